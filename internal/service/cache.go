// Пакет service — сервисы сайта поверх клиентов backend: кэш публичного
// контента, выборки для публичных страниц, журнал изменений, мониторинг
// зависимостей.
//
// ContentCache — LRU-кэш списков коллекций с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hydrosite/internal/resource"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hs_content_cache_hits_total",
		Help: "Общее количество попаданий в кэш публичного контента.",
	}, []string{"resource"})
	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hs_content_cache_misses_total",
		Help: "Общее количество промахов кэша публичного контента.",
	}, []string{"resource"})
	cacheInvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hs_content_cache_invalidations_total",
		Help: "Количество сбросов кэша после изменений в админ-панели.",
	}, []string{"resource"})
)

// ContentCache — кэш последних полученных списков коллекций для публичных страниц.
// Ключ — имя коллекции, значение — типизированный срез элементов.
// Запись сбрасывается по TTL или после мутации коллекции в админ-панели.
type ContentCache struct {
	cache *expirable.LRU[string, any]
}

// NewContentCache создаёт кэш. ttl == 0 отключает кэширование:
// каждый запрос идёт в backend.
func NewContentCache(maxSize int, ttl time.Duration) *ContentCache {
	if ttl <= 0 {
		return &ContentCache{}
	}
	return &ContentCache{cache: expirable.NewLRU[string, any](maxSize, nil, ttl)}
}

// Enabled сообщает, включено ли кэширование.
func (c *ContentCache) Enabled() bool {
	return c != nil && c.cache != nil
}

// Invalidate удаляет список коллекции из кэша.
func (c *ContentCache) Invalidate(name string) {
	if !c.Enabled() {
		return
	}
	if c.cache.Remove(name) {
		cacheInvalidationsTotal.WithLabelValues(name).Inc()
	}
}

// Len возвращает количество записей в кэше.
func (c *ContentCache) Len() int {
	if !c.Enabled() {
		return 0
	}
	return c.cache.Len()
}

// MutationHook возвращает наблюдателя мутаций, сбрасывающего кэш коллекции,
// если изменение дошло до сервера.
func (c *ContentCache) MutationHook() resource.MutationHook {
	return func(_ context.Context, m resource.Mutation) {
		switch m.Outcome {
		case resource.OutcomeOK, resource.OutcomeStale:
			c.Invalidate(m.Resource)
		}
	}
}

// cachedList возвращает список коллекции из кэша или загружает его.
// Ошибки загрузки не кэшируются.
func cachedList[T any](ctx context.Context, c *ContentCache, name string, load func(context.Context) ([]T, error)) ([]T, error) {
	if !c.Enabled() {
		return load(ctx)
	}

	if val, ok := c.cache.Get(name); ok {
		if items, ok := val.([]T); ok {
			cacheHitsTotal.WithLabelValues(name).Inc()
			return items, nil
		}
	}
	cacheMissesTotal.WithLabelValues(name).Inc()

	items, err := load(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Add(name, items)
	return items, nil
}
