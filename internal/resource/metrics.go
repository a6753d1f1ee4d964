package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// reconciliationsTotal — перезагрузки списка после мутаций по ресурсу и результату.
var reconciliationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "hs_reconciliations_total",
		Help: "Количество перезагрузок списка после мутаций",
	},
	[]string{"resource", "result"},
)
