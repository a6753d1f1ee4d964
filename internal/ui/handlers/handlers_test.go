package handlers

import (
	"bytes"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/devbackend"
	"github.com/bigkaa/hydrosite/internal/resource"
	"github.com/bigkaa/hydrosite/internal/service"
	"github.com/bigkaa/hydrosite/internal/ui/i18n"
	"github.com/bigkaa/hydrosite/internal/ui/pages"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testSite struct {
	router  http.Handler
	backend *devbackend.Server
	journal *service.MemoryJournal
}

// setupSite собирает сайт поверх dev-backend. backendURL != "" подменяет
// адрес backend (например, на недоступный).
func setupSite(t *testing.T, backendURL string, maxUpload int64) *testSite {
	t.Helper()
	logger := testLogger()

	srv := devbackend.New(logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	if backendURL == "" {
		backendURL = ts.URL
	}

	backend, err := apiclient.NewBackend(backendURL, 2*time.Second, logger)
	require.NoError(t, err)
	clients := resource.NewClients(backend)

	memory := service.NewMemoryJournal(100)
	journal := service.NewJournalService(memory, logger)
	registry := resource.NewRegistry(clients, resource.WithMutationHook(journal.MutationHook()))
	content := service.NewContentService(clients, service.NewContentCache(16, 0), logger)

	bundle, err := i18n.Load(logger)
	require.NoError(t, err)
	renderer, err := pages.NewRenderer()
	require.NoError(t, err)

	public := NewPublicHandler(content, renderer, bundle, logger)
	admin := NewAdminHandler(registry, journal, renderer, bundle, maxUpload, logger)

	r := chi.NewRouter()
	r.Use(i18n.Middleware())
	r.Get("/", public.HandleHome)
	r.Get("/faq", public.HandleFAQ)
	r.Get("/services", public.HandleServices)
	r.Post("/set-language", HandleSetLanguage)
	r.Route("/admin", func(r chi.Router) {
		r.Get("/", admin.HandleIndex)
		r.Get("/activity", admin.HandleActivity)
		r.Get("/{resource}", admin.HandleList)
		r.Post("/{resource}", admin.HandleSubmit)
		r.Get("/{resource}/{id}/edit", admin.HandleEdit)
		r.Get("/{resource}/{id}/delete", admin.HandleDeleteConfirm)
		r.Post("/{resource}/{id}/delete", admin.HandleDelete)
	})
	r.NotFound(public.HandleNotFound)

	return &testSite{router: r, backend: srv, journal: memory}
}

func (s *testSite) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec, rec.Body.String()
}

func (s *testSite) get(t *testing.T, target string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	return s.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func (s *testSite) postForm(t *testing.T, target string, values url.Values) (*httptest.ResponseRecorder, string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		part, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAdmin_List(t *testing.T) {
	site := setupSite(t, "", 1<<20)
	require.NoError(t, site.backend.Seed("faqs",
		map[string]any{"_id": "f1", "question": "Когда запустят турбину?", "answer": "В мае"},
		map[string]any{"_id": "f2", "question": "Где находится станция?", "answer": "На реке"},
	))

	rec, body := site.get(t, "/admin/faqs")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Когда запустят турбину?")
	assert.Contains(t, body, "Где находится станция?")
	assert.Contains(t, body, "Shown 2 of 2")
	assert.Contains(t, body, "/admin/faqs/f1/edit")
	assert.NotContains(t, body, `role="dialog"`)

	rec, body = site.get(t, "/admin/faqs?q="+url.QueryEscape("турбин"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Когда запустят турбину?")
	assert.NotContains(t, body, "Где находится станция?")
	assert.Contains(t, body, "Shown 1 of 2")
}

func TestAdmin_ListPagination(t *testing.T) {
	site := setupSite(t, "", 1<<20)
	items := make([]map[string]any, 0, adminPageSize+5)
	for i := 0; i < adminPageSize+5; i++ {
		items = append(items, map[string]any{"question": "Вопрос " + strconv.Itoa(i), "answer": "a"})
	}
	require.NoError(t, site.backend.Seed("faqs", items...))

	_, body := site.get(t, "/admin/faqs")
	assert.Contains(t, body, "Page 1 of 2")
	assert.Contains(t, body, "/admin/faqs?page=2")

	_, body = site.get(t, "/admin/faqs?page=2")
	assert.Contains(t, body, "Page 2 of 2")
	assert.Equal(t, 5, strings.Count(body, "/edit\""))

	_, body = site.get(t, "/admin/faqs?page=99")
	assert.Contains(t, body, "Page 2 of 2", "номер страницы ограничивается последней")
}

func TestAdmin_OpenCreateForm(t *testing.T) {
	site := setupSite(t, "", 1<<20)

	rec, body := site.get(t, "/admin/marquee?new=1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, `role="dialog"`)
	assert.Contains(t, body, "New item")
	assert.NotContains(t, body, `name="_id"`)
	assert.Contains(t, body, `type="checkbox" name="active" value="true" checked`, "значение по умолчанию из описания")
}

func TestAdmin_CreateValidationKeepsDraft(t *testing.T) {
	site := setupSite(t, "", 1<<20)

	rec, body := site.postForm(t, "/admin/faqs", url.Values{"question": {""}, "answer": {"Черновик ответа"}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body, "Please fix the highlighted fields.")
	assert.Contains(t, body, "This field is required.")
	assert.Contains(t, body, "Черновик ответа", "введённые значения сохраняются")
	assert.Contains(t, body, `role="dialog"`)
	assert.Equal(t, 0, site.backend.Len("faqs"))
}

func TestAdmin_Create(t *testing.T) {
	site := setupSite(t, "", 1<<20)

	rec, body := site.postForm(t, "/admin/faqs", url.Values{
		"question": {"Какая мощность?"},
		"answer":   {"120 МВт"},
		"order":    {"1"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Item created.")
	assert.Contains(t, body, "Какая мощность?")
	assert.NotContains(t, body, `role="dialog"`)
	assert.Equal(t, 1, site.backend.Len("faqs"))

	entries, err := site.journal.ListRecent(t.Context(), "faqs", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, resource.OpCreate, entries[0].Operation)
	assert.Equal(t, resource.OutcomeOK, entries[0].Outcome)
}

func TestAdmin_CreateWithFile(t *testing.T) {
	site := setupSite(t, "", 1<<20)

	req := multipartRequest(t, "/admin/gallery", map[string]string{"title": "Плотина", "category": "Стройка"},
		"image", "dam.png", []byte("\x89PNG\r\n\x1a\n"))
	rec, body := site.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Item created.")
	assert.Equal(t, 1, site.backend.Len("gallery"))
	assert.Contains(t, body, "/uploads/")

	req = multipartRequest(t, "/admin/gallery", map[string]string{"title": "Без файла"}, "", "", nil)
	rec, body = site.do(t, req)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, body, "This field is required.")
	assert.Equal(t, 1, site.backend.Len("gallery"))
}

func TestAdmin_UploadTooLarge(t *testing.T) {
	site := setupSite(t, "", 1024)

	req := multipartRequest(t, "/admin/gallery", map[string]string{"title": "Большой"},
		"image", "big.png", bytes.Repeat([]byte{1}, 4096))
	rec, body := site.do(t, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, body, "The uploaded file is too large.")
	assert.Equal(t, 0, site.backend.Len("gallery"))
}

func TestAdmin_EditAndUpdate(t *testing.T) {
	site := setupSite(t, "", 1<<20)
	require.NoError(t, site.backend.Seed("projects", map[string]any{
		"_id": "p1", "title": "Водосброс", "description": "Бетон", "status": "active",
		"progress": 40.0, "startDate": "2024-01-15T00:00:00.000Z",
	}))

	rec, body := site.get(t, "/admin/projects/p1/edit")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Edit item")
	assert.Contains(t, body, `name="_id" value="p1"`)
	assert.Contains(t, body, `value="2024-01-15"`, "дата обрезается до дня для input[type=date]")
	assert.Contains(t, body, `value="40"`)

	rec, _ = site.get(t, "/admin/projects/missing/edit")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = site.postForm(t, "/admin/projects", url.Values{
		"_id":         {"p1"},
		"title":       {"Водосброс"},
		"description": {"Бетонные работы завершены"},
		"status":      {"completed"},
		"progress":    {"100"},
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Item saved.")
	assert.Contains(t, body, "Бетонные работы завершены")

	rec, _ = site.postForm(t, "/admin/projects", url.Values{"_id": {"missing"}, "title": {"t"}, "description": {"d"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_Delete(t *testing.T) {
	site := setupSite(t, "", 1<<20)
	require.NoError(t, site.backend.Seed("marquee", map[string]any{"_id": "m1", "text": "Плановые работы", "active": true}))

	rec, body := site.get(t, "/admin/marquee/m1/delete")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Плановые работы")
	assert.Contains(t, body, `name="confirm" value="yes"`)
	assert.Contains(t, body, `action="/admin/marquee/m1/delete"`)

	rec, _ = site.get(t, "/admin/marquee/missing/delete")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Без подтверждения элемент остаётся
	rec, _ = site.postForm(t, "/admin/marquee/m1/delete", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/admin/marquee", rec.Header().Get("Location"))
	assert.Equal(t, 1, site.backend.Len("marquee"))

	rec, body = site.postForm(t, "/admin/marquee/m1/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Item deleted.")
	assert.Equal(t, 0, site.backend.Len("marquee"))

	rec, _ = site.postForm(t, "/admin/marquee/m1/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	entries, err := site.journal.ListRecent(t.Context(), "marquee", 10)
	require.NoError(t, err)
	outcomes := make([]string, 0, len(entries))
	for _, e := range entries {
		outcomes = append(outcomes, e.Operation+":"+e.Outcome)
	}
	assert.Contains(t, outcomes, resource.OpDelete+":"+resource.OutcomeCancelled)
	assert.Contains(t, outcomes, resource.OpDelete+":"+resource.OutcomeOK)
}

func TestAdmin_ActivityAndIndex(t *testing.T) {
	site := setupSite(t, "", 1<<20)
	site.postForm(t, "/admin/faqs", url.Values{"question": {"q"}, "answer": {"a"}})
	site.postForm(t, "/admin/faqs", url.Values{"question": {""}})

	rec, body := site.get(t, "/admin/activity")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Activity")
	assert.Contains(t, body, "Succeeded")
	assert.Contains(t, body, `badge invalid`)

	rec, body = site.get(t, "/admin/")
	assert.Equal(t, http.StatusOK, rec.Code)
	for _, name := range []string{"slides", "faqs", "gallery", "projects", "forms", "marquee", "popups"} {
		assert.Contains(t, body, "/admin/"+name)
	}
}

func TestAdmin_UnknownResource(t *testing.T) {
	site := setupSite(t, "", 1<<20)

	rec, body := site.get(t, "/admin/users")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body, "Page not found.")

	rec, _ = site.postForm(t, "/admin/users", url.Values{"name": {"x"}})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_BackendUnavailable(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	downURL := down.URL
	down.Close()
	site := setupSite(t, downURL, 1<<20)

	rec, body := site.get(t, "/admin/faqs")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body, "The backend is unreachable")
	assert.Contains(t, body, "/admin/faqs?new=1", "страница коллекции отображается и без данных")

	rec, body = site.postForm(t, "/admin/faqs", url.Values{"question": {"q"}, "answer": {"Ответ"}})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body, "Ответ", "черновик сохраняется после сетевой ошибки")
	assert.Contains(t, body, `role="dialog"`)

	rec, body = site.get(t, "/")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, body, "Content is temporarily unavailable. Please try again later.")
}

func TestPublic_Pages(t *testing.T) {
	site := setupSite(t, "", 1<<20)
	require.NoError(t, site.backend.SeedDemo())

	rec, body := site.get(t, "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Чистая энергия рек")

	rec, _ = site.get(t, "/faq")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = site.get(t, "/services")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body = site.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body, "Page not found.")
}

func TestPublic_LanguageFromCookie(t *testing.T) {
	site := setupSite(t, "", 1<<20)

	req := httptest.NewRequest(http.MethodGet, "/faq", nil)
	req.AddCookie(&http.Cookie{Name: i18n.LangCookieName, Value: "ru"})
	_, body := site.do(t, req)
	assert.Contains(t, body, `<html lang="ru">`)

	req = httptest.NewRequest(http.MethodGet, "/faq", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	_, body = site.do(t, req)
	assert.Contains(t, body, `<html lang="ru">`)

	_, body = site.get(t, "/faq")
	assert.Contains(t, body, `<html lang="en">`)
}

func TestHandleSetLanguage(t *testing.T) {
	tests := []struct {
		name       string
		lang       string
		referer    string
		wantLang   string
		wantTarget string
	}{
		{name: "тот же хост", lang: "ru", referer: "http://example.com/faq?x=1", wantLang: "ru", wantTarget: "/faq?x=1"},
		{name: "чужой хост", lang: "ru", referer: "http://evil.test/phish", wantLang: "ru", wantTarget: "/"},
		{name: "без referer", lang: "en", wantLang: "en", wantTarget: "/"},
		{name: "неподдерживаемый язык", lang: "de", referer: "/gallery", wantLang: "en", wantTarget: "/gallery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/set-language", strings.NewReader(url.Values{"lang": {tt.lang}}.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()
			HandleSetLanguage(rec, req)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.wantTarget, rec.Header().Get("Location"))

			res := rec.Result()
			defer res.Body.Close()
			_, _ = io.Copy(io.Discard, res.Body)
			require.Len(t, res.Cookies(), 1)
			assert.Equal(t, tt.wantLang, res.Cookies()[0].Value)
		})
	}
}
