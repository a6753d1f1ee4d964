package service

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const statusFail = "fail"

// BackendReadinessChecker — проверка доступности REST backend для /health/ready.
// Запрашивает коллекцию faqs и проверяет, что ответ — JSON.
type BackendReadinessChecker struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewBackendReadinessChecker создаёт checker доступности backend.
// baseURL — базовый URL без trailing slash.
func NewBackendReadinessChecker(baseURL string, timeout time.Duration) *BackendReadinessChecker {
	return &BackendReadinessChecker{
		url:     baseURL + "/api/faqs",
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// CheckReady проверяет, что backend отвечает 200 с JSON-телом.
func (c *BackendReadinessChecker) CheckReady() (status, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return statusFail, "ошибка создания запроса: " + err.Error()
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return statusFail, fmt.Sprintf("backend недоступен: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusFail, fmt.Sprintf("backend вернул статус %d", resp.StatusCode)
	}

	// Достаточно начала тела: массив или объект-обёртка
	head := make([]byte, 64)
	n, _ := resp.Body.Read(head)
	head = bytes.TrimSpace(head[:n])
	if len(head) == 0 || (head[0] != '[' && head[0] != '{') {
		return "degraded", "backend вернул не JSON"
	}

	return "ok", "backend доступен"
}

// HealthSource — текущее состояние зависимостей (DephealthService).
type HealthSource interface {
	Health() map[string]bool
}

// DephealthReadinessChecker — readiness по последней проверке topologymetrics.
// Не делает сетевых запросов; до первой проверки возвращает degraded.
type DephealthReadinessChecker struct {
	source HealthSource
	name   string
}

// NewDephealthReadinessChecker создаёт checker зависимости name.
func NewDephealthReadinessChecker(source HealthSource, name string) *DephealthReadinessChecker {
	return &DephealthReadinessChecker{source: source, name: name}
}

// CheckReady возвращает состояние зависимости по данным topologymetrics.
func (c *DephealthReadinessChecker) CheckReady() (status, message string) {
	healthy, found := findHealthByPrefix(c.source.Health(), c.name)
	switch {
	case !found:
		return "degraded", "проверка ещё не выполнялась"
	case healthy:
		return "ok", "зависимость доступна"
	default:
		return statusFail, "зависимость недоступна"
	}
}

// findHealthByPrefix ищет статус зависимости по имени.
// Health() возвращает ключи формата "dependency:host:port";
// при нескольких записях зависимость здорова, только если здоровы все.
func findHealthByPrefix(health map[string]bool, name string) (healthy, found bool) {
	healthy = true
	for key, ok := range health {
		if strings.HasPrefix(key, name+":") || key == name {
			found = true
			healthy = healthy && ok
		}
	}
	return healthy && found, found
}
