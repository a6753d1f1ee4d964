// Пакет apiclient — HTTP-клиент REST backend контента сайта.
// Одна коллекция — один Client: GET/POST /api/<resource>,
// PUT/DELETE /api/<resource>/<id>. Файлы раздаются backend по /uploads/<имя>.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bigkaa/hydrosite/internal/domain/model"
)

// Максимальный размер тела ответа, который читает клиент.
const maxResponseBytes = 32 << 20

// Backend — общее подключение к backend: базовый URL, HTTP-клиент, логгер.
// Один экземпляр на процесс, разделяется клиентами всех ресурсов.
type Backend struct {
	baseURL    string
	base       *url.URL
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBackend создаёт подключение к backend.
// baseURL — адрес без trailing slash (нормализуется конфигурацией), timeout — таймаут одного запроса.
func NewBackend(baseURL string, timeout time.Duration, logger *slog.Logger) (*Backend, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	base, err := url.Parse(baseURL + "/")
	if err != nil {
		return nil, fmt.Errorf("разбор базового URL %q: %w", baseURL, err)
	}
	return &Backend{
		baseURL:    baseURL,
		base:       base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With(slog.String("component", "api_client")),
	}, nil
}

// BaseURL возвращает базовый URL backend.
func (b *Backend) BaseURL() string {
	return b.baseURL
}

// ResolveFileURL превращает ссылку на файл из ответа backend в абсолютный URL.
// Абсолютные ссылки возвращаются без изменений, относительные (/uploads/...)
// разрешаются относительно хоста backend.
func (b *Backend) ResolveFileURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if u.IsAbs() {
		return ref
	}
	return b.base.ResolveReference(u).String()
}

// Payload — тело запроса create/update.
type Payload struct {
	// Fields — значения редактируемых полей, типизированные по схеме ресурса
	Fields map[string]any
	// Attachment — файл; при наличии тело кодируется как multipart/form-data
	Attachment *model.Attachment
}

// Client — клиент одной коллекции backend.
type Client[T model.Item] struct {
	backend   *Backend
	resource  string
	fileField string
	endpoint  string
}

// New создаёт клиент коллекции resource.
// fileField — имя части multipart-формы для файла (пусто у ресурсов без файлов).
func New[T model.Item](backend *Backend, resource, fileField string) *Client[T] {
	return &Client[T]{
		backend:   backend,
		resource:  resource,
		fileField: fileField,
		endpoint:  backend.baseURL + "/api/" + resource,
	}
}

// Resource возвращает имя коллекции.
func (c *Client[T]) Resource() string {
	return c.resource
}

// ResolveFileURL — см. Backend.ResolveFileURL.
func (c *Client[T]) ResolveFileURL(ref string) string {
	return c.backend.ResolveFileURL(ref)
}

// List запрашивает полный список элементов коллекции.
// Принимает как массив, так и объект {"data": [...]}.
// У каждого элемента должен быть непустой идентификатор.
func (c *Client[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	err := c.do(ctx, "list", http.MethodGet, c.endpoint, nil, "", func(body []byte) error {
		var err error
		items, err = decodeList[T](body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Create создаёт элемент. Тело ответа не используется: после мутации
// вызывающий заново запрашивает список.
func (c *Client[T]) Create(ctx context.Context, p Payload) error {
	body, contentType, err := encodePayload(p, c.fileField)
	if err != nil {
		return err
	}
	return c.do(ctx, "create", http.MethodPost, c.endpoint, body, contentType, nil)
}

// Update полностью заменяет редактируемые поля элемента id.
func (c *Client[T]) Update(ctx context.Context, id string, p Payload) error {
	if id == "" {
		return NewValidationError(map[string]string{"_id": "пустой идентификатор"})
	}
	body, contentType, err := encodePayload(p, c.fileField)
	if err != nil {
		return err
	}
	return c.do(ctx, "update", http.MethodPut, c.itemURL(id), body, contentType, nil)
}

// Delete удаляет элемент id. Ответ 404 возвращается как ошибка сервера.
func (c *Client[T]) Delete(ctx context.Context, id string) error {
	if id == "" {
		return NewValidationError(map[string]string{"_id": "пустой идентификатор"})
	}
	return c.do(ctx, "delete", http.MethodDelete, c.itemURL(id), nil, "", nil)
}

func (c *Client[T]) itemURL(id string) string {
	return c.endpoint + "/" + url.PathEscape(id)
}

// do выполняет запрос, переводит сбои в *Error и пишет метрики.
// decode вызывается для тела успешного ответа (nil — тело не нужно).
func (c *Client[T]) do(
	ctx context.Context,
	operation, method, reqURL string,
	body []byte, contentType string,
	decode func([]byte) error,
) (err error) {
	start := time.Now()
	requestID := uuid.NewString()
	defer func() {
		backendRequestsTotal.WithLabelValues(c.resource, operation, outcomeOf(err)).Inc()
		backendRequestDuration.WithLabelValues(c.resource, operation).Observe(time.Since(start).Seconds())
	}()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return &Error{Kind: KindNetwork, Message: fmt.Sprintf("создание запроса %s: %v", operation, err), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.backend.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return networkError(fmt.Errorf("чтение ответа %s: %w", operation, err))
	}

	c.backend.logger.Debug("Запрос к backend",
		slog.String("resource", c.resource),
		slog.String("operation", operation),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp.StatusCode, extractMessage(respBody), nil)
	}

	if decode != nil {
		if err := decode(respBody); err != nil {
			return serverError(resp.StatusCode, "некорректное тело ответа: "+err.Error(), err)
		}
	}
	return nil
}

// decodeList разбирает тело ответа на GET коллекции.
func decodeList[T model.Item](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("пустое тело")
	}

	var items []T
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
	case '{':
		var envelope struct {
			Data *[]T `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, err
		}
		if envelope.Data == nil {
			return nil, fmt.Errorf("объект без поля data")
		}
		items = *envelope.Data
	default:
		return nil, fmt.Errorf("ожидается массив или объект, получено %q", trimmed[0])
	}

	for i, item := range items {
		if item.ItemID() == "" {
			return nil, fmt.Errorf("элемент %d без идентификатора", i)
		}
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// extractMessage достаёт сообщение об ошибке из тела ответа:
// {"message": "..."}, {"error": "..."} или {"error": {"message": "..."}}.
func extractMessage(body []byte) string {
	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Message != "" {
		return envelope.Message
	}
	if len(envelope.Error) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Error, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(envelope.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}
