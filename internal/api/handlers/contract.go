package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	apierrors "github.com/bigkaa/hydrosite/internal/api/errors"
	"github.com/bigkaa/hydrosite/internal/config"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// ContractHandler отдаёт OpenAPI-описание REST backend, построенное
// по описаниям коллекций (GET /openapi.json).
type ContractHandler struct {
	descs []resource.Descriptor

	once sync.Once
	body []byte
	err  error
}

// NewContractHandler создаёт обработчик описания контракта backend.
func NewContractHandler(descs []resource.Descriptor) *ContractHandler {
	return &ContractHandler{descs: descs}
}

// ServeHTTP отдаёт документ; он строится один раз при первом запросе.
func (h *ContractHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(func() {
		doc := resource.Document(h.descs, config.Version)
		h.body, h.err = json.MarshalIndent(doc, "", "  ")
	})
	if h.err != nil {
		apierrors.InternalError(w, "ошибка построения OpenAPI-документа")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.body)
}
