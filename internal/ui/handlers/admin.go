package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/domain/model"
	"github.com/bigkaa/hydrosite/internal/resource"
	"github.com/bigkaa/hydrosite/internal/service"
	"github.com/bigkaa/hydrosite/internal/ui/i18n"
	"github.com/bigkaa/hydrosite/internal/ui/pages"
)

// Размер страницы таблицы коллекции.
const adminPageSize = 20

// Количество колонок таблицы: остальные поля видны в форме.
const adminColumns = 3

// Лимит записей журнала на странице активности.
const activityLimit = 100

// multipartMemory — часть формы, хранимая в памяти; остальное — во временных файлах.
const multipartMemory = 8 << 20

// AdminHandler — админ-панели коллекций: таблица с поиском и пагинацией,
// форма создания и изменения, подтверждение удаления, журнал.
// Каждый запрос работает со своей сессией контроллера.
type AdminHandler struct {
	view
	registry  *resource.Registry
	journal   *service.JournalService
	maxUpload int64
}

// NewAdminHandler создаёт обработчик админ-панелей.
// maxUpload — максимальный размер тела multipart-запроса (HS_UPLOAD_MAX_BYTES).
func NewAdminHandler(
	registry *resource.Registry,
	journal *service.JournalService,
	renderer *pages.Renderer,
	bundle *i18n.Bundle,
	maxUpload int64,
	logger *slog.Logger,
) *AdminHandler {
	return &AdminHandler{
		view: view{
			renderer: renderer,
			bundle:   bundle,
			logger:   logger.With(slog.String("component", "ui.admin")),
		},
		registry:  registry,
		journal:   journal,
		maxUpload: maxUpload,
	}
}

// listState — параметры отображения таблицы после операции.
type listState struct {
	query      string
	page       int
	notice     string
	err        error
	fieldErrs  map[string]string
	editingRow *resource.Row
}

// HandleIndex обрабатывает GET /admin/ — обзор коллекций.
func (h *AdminHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	data := &pages.AdminIndexData{Resources: h.resourceLinks("")}

	if h.journal != nil {
		summary, err := h.journal.Summary(r.Context())
		if err != nil {
			h.logger.Warn("Ошибка чтения журнала", slog.String("error", err.Error()))
		}
		data.Summary = outcomeCounts(summary)
	}

	h.render(w, r, http.StatusOK, pages.AdminIndex, pages.NewPage(r.Context(), h.bundle, "admin.title", "/admin/", data))
}

// HandleActivity обрабатывает GET /admin/activity — журнал изменений.
// Параметр resource ограничивает журнал одной коллекцией.
func (h *AdminHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := &pages.ActivityData{Resources: h.resourceLinks("")}
	page := pages.NewPage(ctx, h.bundle, "activity.title", "/admin/activity", data)

	if h.journal != nil {
		entries, err := h.journal.Recent(ctx, r.URL.Query().Get("resource"), activityLimit)
		if err != nil {
			h.logger.Error("Ошибка чтения журнала", slog.String("error", err.Error()))
			page.Error = err.Error()
		}
		data.Entries = entries

		summary, err := h.journal.Summary(ctx)
		if err == nil {
			data.Summary = outcomeCounts(summary)
		}
	}

	h.render(w, r, http.StatusOK, pages.Activity, page)
}

// HandleList обрабатывает GET /admin/{resource} — таблица коллекции.
// ?q= — поиск, ?page= — страница, ?new=1 — открыть форму создания.
func (h *AdminHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	session := b.NewSession()
	st := listState{query: r.URL.Query().Get("q"), page: pageParam(r)}

	if err := session.Mount(ctx); err != nil {
		h.logOpError(b, "mount", err)
		st.err = err
	}
	if r.URL.Query().Get("new") == "1" {
		session.OpenCreate()
	}

	h.renderList(w, r, errorStatus(st.err), b.Descriptor(), session, st)
}

// HandleEdit обрабатывает GET /admin/{resource}/{id}/edit — форма изменения.
func (h *AdminHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	session := b.NewSession()
	if err := session.Mount(ctx); err != nil {
		h.logOpError(b, "mount", err)
		h.renderList(w, r, errorStatus(err), b.Descriptor(), session, listState{err: err})
		return
	}

	id := chi.URLParam(r, "id")
	if err := session.OpenEdit(id); err != nil {
		h.NotFound(w, r)
		return
	}
	h.renderList(w, r, http.StatusOK, b.Descriptor(), session, listState{editingRow: findRow(session.View(""), id)})
}

// HandleSubmit обрабатывает POST /admin/{resource} — сохранение формы.
// Скрытое поле _id задаёт изменяемый элемент; без него элемент создаётся.
// При ошибке форма показывается снова с введёнными значениями.
func (h *AdminHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	desc := b.Descriptor()
	ctx := r.Context()
	loc := h.bundle.For(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderError(w, r, http.StatusRequestEntityTooLarge, "admin.error.too_large")
			return
		}
		h.logger.Warn("Некорректная форма", slog.String("resource", desc.Name), slog.String("error", err.Error()))
		h.renderError(w, r, http.StatusBadRequest, "validation.invalid")
		return
	}

	session := b.NewSession()
	id := strings.TrimSpace(r.FormValue("_id"))
	if err := session.Mount(ctx); err != nil {
		h.logOpError(b, "mount", err)
		if id != "" {
			h.renderList(w, r, errorStatus(err), desc, session, listState{err: err})
			return
		}
	}

	var editingRow *resource.Row
	if id != "" {
		if err := session.OpenEdit(id); err != nil {
			h.NotFound(w, r)
			return
		}
		editingRow = findRow(session.View(""), id)
	} else {
		session.OpenCreate()
	}

	for _, f := range desc.Fields {
		if err := session.SetField(f.Name, r.FormValue(f.Name)); err != nil {
			h.renderError(w, r, http.StatusBadRequest, "validation.invalid")
			return
		}
	}

	if desc.HasFile() && r.MultipartForm != nil {
		if files := r.MultipartForm.File[desc.FileField]; len(files) > 0 {
			attachment, err := model.AttachmentFromMultipart(files[0])
			if err != nil {
				h.logger.Warn("Ошибка чтения файла", slog.String("resource", desc.Name), slog.String("error", err.Error()))
				h.renderError(w, r, http.StatusBadRequest, "validation.invalid")
				return
			}
			if attachment != nil {
				if err := session.SetAttachment(attachment); err != nil {
					h.renderError(w, r, http.StatusBadRequest, "validation.invalid")
					return
				}
			}
		}
	}

	st := listState{editingRow: editingRow}
	err := session.Submit(ctx)
	switch {
	case err == nil && id == "":
		st.notice = loc.T("admin.created")
	case err == nil:
		st.notice = loc.T("admin.updated")
	default:
		st.err = err
		var apiErr *apiclient.Error
		if resource.IsValidation(err) && errors.As(err, &apiErr) {
			st.fieldErrs = apiErr.Fields
		} else {
			h.logOpError(b, "submit", err)
		}
	}

	h.renderList(w, r, errorStatus(err), desc, session, st)
}

// HandleDeleteConfirm обрабатывает GET /admin/{resource}/{id}/delete —
// страница подтверждения удаления.
func (h *AdminHandler) HandleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	desc := b.Descriptor()
	ctx := r.Context()

	session := b.NewSession()
	if err := session.Mount(ctx); err != nil {
		h.logOpError(b, "mount", err)
		h.renderList(w, r, errorStatus(err), desc, session, listState{err: err})
		return
	}

	row := findRow(session.View(""), chi.URLParam(r, "id"))
	if row == nil {
		h.NotFound(w, r)
		return
	}

	base := "/admin/" + desc.Name
	data := &pages.AdminDeleteData{
		Resource:  desc.Name,
		Resources: h.resourceLinks(desc.Name),
		Columns:   desc.FieldNames(),
		Row:       *row,
		Action:    base + "/" + url.PathEscape(row.ID) + "/delete",
		CancelURL: base,
	}
	h.render(w, r, http.StatusOK, pages.AdminDelete, pages.NewPage(ctx, h.bundle, "admin.delete_title", base, data))
}

// HandleDelete обрабатывает POST /admin/{resource}/{id}/delete.
// Удаление выполняется только с confirm=yes; иначе возврат к таблице.
func (h *AdminHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	b, ok := h.binding(w, r)
	if !ok {
		return
	}
	desc := b.Descriptor()
	ctx := r.Context()

	session := b.NewSession()
	if err := session.Mount(ctx); err != nil {
		h.logOpError(b, "mount", err)
		h.renderList(w, r, errorStatus(err), desc, session, listState{err: err})
		return
	}

	confirmed := r.PostFormValue("confirm") == "yes"
	err := session.Delete(ctx, chi.URLParam(r, "id"), func(resource.Row) bool { return confirmed })
	switch {
	case errors.Is(err, resource.ErrCancelled):
		http.Redirect(w, r, "/admin/"+desc.Name, http.StatusSeeOther)
		return
	case errors.Is(err, resource.ErrUnknownItem):
		h.NotFound(w, r)
		return
	}

	st := listState{err: err}
	if err == nil {
		st.notice = h.bundle.For(ctx).T("admin.deleted")
	} else {
		h.logOpError(b, "delete", err)
	}
	h.renderList(w, r, errorStatus(err), desc, session, st)
}

// renderList отдаёт таблицу коллекции и, если она открыта, форму черновика.
func (h *AdminHandler) renderList(w http.ResponseWriter, r *http.Request, status int, desc resource.Descriptor, session resource.Session, st listState) {
	ctx := r.Context()
	v := session.View(st.query)

	columns := desc.FieldNames()
	if len(columns) > adminColumns {
		columns = columns[:adminColumns]
	}

	data := &pages.AdminListData{
		Resource:  desc.Name,
		Resources: h.resourceLinks(desc.Name),
		Columns:   columns,
		HasFile:   desc.HasFile(),
		Query:     st.query,
		Shown:     len(v.Rows),
		Total:     v.Total,
	}
	if !v.LastSync.IsZero() {
		data.LastSync = v.LastSync.Local().Format("15:04:05")
	}

	// Пагинация
	data.Pages = (len(v.Rows) + adminPageSize - 1) / adminPageSize
	if data.Pages < 1 {
		data.Pages = 1
	}
	data.Page = min(max(st.page, 1), data.Pages)
	start := (data.Page - 1) * adminPageSize
	end := min(start+adminPageSize, len(v.Rows))
	data.Rows = v.Rows[start:end]
	if data.Page > 1 {
		data.PrevURL = listURL(desc.Name, st.query, data.Page-1)
	}
	if data.Page < data.Pages {
		data.NextURL = listURL(desc.Name, st.query, data.Page+1)
	}

	if v.ModalOpen {
		data.Form = buildForm(desc, v, st)
	}

	page := pages.NewPage(ctx, h.bundle, "resource."+desc.Name, "/admin/"+desc.Name, data)
	page.Notice = st.notice
	if st.err != nil {
		page.Error = errorMessage(page.Localizer, st.err)
	}
	h.render(w, r, status, pages.AdminList, page)
}

// buildForm заполняет форму значениями черновика и ошибками проверки.
func buildForm(desc resource.Descriptor, v resource.View, st listState) *pages.FormData {
	base := "/admin/" + desc.Name
	form := &pages.FormData{
		Action:    base,
		CancelURL: base,
		EditingID: v.EditingID,
	}

	for _, f := range desc.Fields {
		value := v.Draft.Fields[f.Name]
		if f.Type == resource.FieldDate && len(value) > len("2006-01-02") {
			value = value[:len("2006-01-02")]
		}
		form.Fields = append(form.Fields, pages.FormField{
			Name:     f.Name,
			Type:     string(f.Type),
			Value:    value,
			Required: f.Required,
			Error:    st.fieldErrs[f.Name],
		})
	}

	if desc.HasFile() {
		file := &pages.FileInput{
			Name:     desc.FileField,
			Accept:   desc.FileAccept,
			Required: desc.FileRequired && v.EditingID == "",
			Error:    st.fieldErrs[desc.FileField],
		}
		if st.editingRow != nil {
			file.Current = st.editingRow.FileURL
			file.CurrentName = st.editingRow.FileName
		}
		form.File = file
	}
	return form
}

// binding находит коллекцию по параметру маршрута; неизвестная — 404.
func (h *AdminHandler) binding(w http.ResponseWriter, r *http.Request) (resource.Binding, bool) {
	b, ok := h.registry.Lookup(chi.URLParam(r, "resource"))
	if !ok {
		h.NotFound(w, r)
	}
	return b, ok
}

func (h *AdminHandler) resourceLinks(active string) []pages.ResourceLink {
	all := h.registry.All()
	links := make([]pages.ResourceLink, 0, len(all))
	for _, b := range all {
		name := b.Descriptor().Name
		links = append(links, pages.ResourceLink{Name: name, Active: name == active})
	}
	return links
}

func (h *AdminHandler) logOpError(b resource.Binding, op string, err error) {
	h.logger.Error("Ошибка операции с коллекцией",
		slog.String("resource", b.Descriptor().Name),
		slog.String("operation", op),
		slog.String("kind", string(apiclient.KindOf(err))),
		slog.String("error", err.Error()),
	)
}

func findRow(v resource.View, id string) *resource.Row {
	for i := range v.Rows {
		if v.Rows[i].ID == id {
			return &v.Rows[i]
		}
	}
	return nil
}

func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func listURL(name, query string, page int) string {
	params := url.Values{}
	if query != "" {
		params.Set("q", query)
	}
	params.Set("page", strconv.Itoa(page))
	return "/admin/" + name + "?" + params.Encode()
}

// outcomeCounts — исходы мутаций в порядке убывания количества.
func outcomeCounts(summary map[string]int) []pages.OutcomeCount {
	out := make([]pages.OutcomeCount, 0, len(summary))
	for outcome, n := range summary {
		out = append(out, pages.OutcomeCount{Outcome: outcome, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out
}
