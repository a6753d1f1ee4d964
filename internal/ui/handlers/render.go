// Пакет handlers — HTTP-обработчики страниц сайта и админ-панели.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/resource"
	"github.com/bigkaa/hydrosite/internal/ui/i18n"
	"github.com/bigkaa/hydrosite/internal/ui/pages"
)

// view — общие зависимости обработчиков страниц.
type view struct {
	renderer *pages.Renderer
	bundle   *i18n.Bundle
	logger   *slog.Logger
}

// render отдаёт страницу name со статусом status.
func (v view) render(w http.ResponseWriter, r *http.Request, status int, name string, page *pages.Page) {
	c, err := v.renderer.Component(name, page)
	if err != nil {
		v.logger.Error("Ошибка рендеринга страницы",
			slog.String("page", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	templ.Handler(c, templ.WithStatus(status)).ServeHTTP(w, r)
}

// renderError отдаёт страницу ошибки.
func (v view) renderError(w http.ResponseWriter, r *http.Request, status int, messageKey string) {
	page := pages.NewPage(r.Context(), v.bundle, "error.title", r.URL.Path, &pages.ErrorData{MessageKey: messageKey})
	v.render(w, r, status, pages.Error, page)
}

// NotFound — страница 404 для неизвестных путей.
func (v view) NotFound(w http.ResponseWriter, r *http.Request) {
	v.renderError(w, r, http.StatusNotFound, "error.not_found")
}

// errorMessage — текст ошибки операции для пользователя.
func errorMessage(loc i18n.Localizer, err error) string {
	var rerr *resource.ReconcileError
	if errors.As(err, &rerr) {
		return loc.Tf("admin.stale", apiMessage(rerr.Err))
	}

	var apiErr *apiclient.Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	switch apiErr.Kind {
	case apiclient.KindNetwork:
		return loc.Tf("admin.error.network", apiErr.Message)
	case apiclient.KindValidation:
		return loc.T("admin.error.validation")
	default:
		return loc.Tf("admin.error.server", apiErr.Message)
	}
}

func apiMessage(err error) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// errorStatus — HTTP-статус страницы после ошибки операции.
func errorStatus(err error) int {
	var rerr *resource.ReconcileError
	switch {
	case err == nil, errors.As(err, &rerr):
		return http.StatusOK
	case resource.IsValidation(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, resource.ErrUnknownItem):
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
