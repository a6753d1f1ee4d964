package handlers

import (
	"log/slog"
	"net/http"

	"github.com/bigkaa/hydrosite/internal/service"
	"github.com/bigkaa/hydrosite/internal/ui/i18n"
	"github.com/bigkaa/hydrosite/internal/ui/pages"
)

// serviceKeys — разделы страницы услуг.
var serviceKeys = []string{"survey", "design", "construction", "operation"}

// PublicHandler — публичные страницы сайта.
type PublicHandler struct {
	view
	content *service.ContentService
}

// NewPublicHandler создаёт обработчик публичных страниц.
func NewPublicHandler(content *service.ContentService, renderer *pages.Renderer, bundle *i18n.Bundle, logger *slog.Logger) *PublicHandler {
	return &PublicHandler{
		view: view{
			renderer: renderer,
			bundle:   bundle,
			logger:   logger.With(slog.String("component", "ui.public")),
		},
		content: content,
	}
}

// HandleHome обрабатывает GET / — главная страница.
func (h *PublicHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	home, err := h.content.Home(r.Context())
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, pages.Home, pages.NewPage(r.Context(), h.bundle, "home.title", "/", home))
}

// HandleProjects обрабатывает GET /projects.
func (h *PublicHandler) HandleProjects(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.Projects(r.Context())
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, pages.Projects, pages.NewPage(r.Context(), h.bundle, "projects.title", "/projects", items))
}

// HandleFAQ обрабатывает GET /faq.
func (h *PublicHandler) HandleFAQ(w http.ResponseWriter, r *http.Request) {
	groups, err := h.content.FAQ(r.Context())
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, pages.FAQ, pages.NewPage(r.Context(), h.bundle, "faq.title", "/faq", groups))
}

// HandleGallery обрабатывает GET /gallery?category=.
func (h *PublicHandler) HandleGallery(w http.ResponseWriter, r *http.Request) {
	gallery, err := h.content.Gallery(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, pages.Gallery, pages.NewPage(r.Context(), h.bundle, "gallery.title", "/gallery", gallery))
}

// HandleNotices обрабатывает GET /notices — доска объявлений.
func (h *PublicHandler) HandleNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.content.Notices(r.Context())
	if err != nil {
		h.backendError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, pages.Notices, pages.NewPage(r.Context(), h.bundle, "notices.title", "/notices", notices))
}

// HandleServices обрабатывает GET /services — статическая страница.
func (h *PublicHandler) HandleServices(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pages.Services, pages.NewPage(r.Context(), h.bundle, "services.title", "/services", serviceKeys))
}

// HandleNotFound — 404 для неизвестных путей.
func (h *PublicHandler) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	h.NotFound(w, r)
}

func (h *PublicHandler) backendError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("Контент недоступен",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	h.renderError(w, r, http.StatusBadGateway, "error.backend")
}
