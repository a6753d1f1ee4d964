package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/hydrosite/internal/api/errors"
	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// ExportHandler — выгрузка коллекции в JSON (GET /admin/{resource}/export).
// Список каждый раз загружается из backend заново.
type ExportHandler struct {
	registry *resource.Registry
	logger   *slog.Logger
}

// NewExportHandler создаёт обработчик выгрузки коллекций.
func NewExportHandler(registry *resource.Registry, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{
		registry: registry,
		logger:   logger.With(slog.String("component", "export_handler")),
	}
}

// exportItem — элемент выгрузки.
type exportItem struct {
	ID        string            `json:"_id"`
	Fields    map[string]string `json:"fields"`
	FileURL   string            `json:"fileUrl,omitempty"`
	FileName  string            `json:"fileName,omitempty"`
	FileType  string            `json:"fileType,omitempty"`
	FileSize  int64             `json:"fileSize,omitempty"`
	Downloads int64             `json:"downloads,omitempty"`
	CreatedAt *time.Time        `json:"createdAt,omitempty"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty"`
}

// exportResponse — ответ выгрузки.
type exportResponse struct {
	Resource   string       `json:"resource"`
	Total      int          `json:"total"`
	ExportedAt string       `json:"exportedAt"`
	Items      []exportItem `json:"items"`
}

// ServeHTTP загружает коллекцию и отдаёт её элементы.
// Параметр q фильтрует элементы так же, как поиск в админ-панели.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "resource")
	b, ok := h.registry.Lookup(name)
	if !ok {
		apierrors.NotFound(w, "неизвестная коллекция "+name)
		return
	}

	session := b.NewSession()
	if err := session.Mount(r.Context()); err != nil {
		h.logger.Error("Ошибка выгрузки коллекции",
			slog.String("resource", name),
			slog.String("error", err.Error()),
		)
		writeBackendError(w, err)
		return
	}

	view := session.View(r.URL.Query().Get("q"))
	resp := exportResponse{
		Resource:   name,
		Total:      len(view.Rows),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Items:      make([]exportItem, 0, len(view.Rows)),
	}
	for _, row := range view.Rows {
		resp.Items = append(resp.Items, exportItem{
			ID:        row.ID,
			Fields:    row.Fields,
			FileURL:   row.FileURL,
			FileName:  row.FileName,
			FileType:  row.FileType,
			FileSize:  row.FileSize,
			Downloads: row.Downloads,
			CreatedAt: timePtr(row.CreatedAt),
			UpdatedAt: timePtr(row.UpdatedAt),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`.json"`)
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// writeBackendError переводит ошибку backend в JSON-ответ.
func writeBackendError(w http.ResponseWriter, err error) {
	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		apierrors.InternalError(w, err.Error())
		return
	}
	switch apiErr.Kind {
	case apiclient.KindNetwork:
		apierrors.BackendUnavailable(w, apiErr.Message)
	case apiclient.KindValidation:
		apierrors.ValidationError(w, apiErr.Message)
	default:
		apierrors.BackendError(w, apiErr.Message)
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
