// Пакет pages — HTML-страницы сайта и админ-панели.
// Шаблоны html/template встраиваются в бинарник и отдаются как
// templ.Component через templ.FromGoHTML.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/bigkaa/hydrosite/internal/config"
	"github.com/bigkaa/hydrosite/internal/domain/model"
	"github.com/bigkaa/hydrosite/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// Имена страниц.
const (
	Home        = "home"
	Projects    = "projects"
	FAQ         = "faq"
	Gallery     = "gallery"
	Notices     = "notices"
	Services    = "services"
	AdminIndex  = "admin_index"
	AdminList   = "admin_list"
	AdminDelete = "admin_delete"
	Activity    = "activity"
	Error       = "error"
)

var pageNames = []string{
	Home, Projects, FAQ, Gallery, Notices, Services,
	AdminIndex, AdminList, AdminDelete, Activity, Error,
}

// Page — общие данные страницы: переводчик, заголовок, уведомления.
type Page struct {
	i18n.Localizer
	// TitleKey — ключ перевода заголовка
	TitleKey string
	// Path — текущий путь для подсветки меню
	Path string
	// Admin — страница админ-панели (другое меню)
	Admin  bool
	Notice string
	Error  string
	Data   any
}

// NewPage создаёт данные страницы для языка запроса.
func NewPage(ctx context.Context, bundle *i18n.Bundle, titleKey, path string, data any) *Page {
	return &Page{
		Localizer: bundle.For(ctx),
		TitleKey:  titleKey,
		Path:      path,
		Admin:     strings.HasPrefix(path, "/admin"),
		Data:      data,
	}
}

// Languages — языки переключателя.
func (p *Page) Languages() []string {
	return i18n.Languages
}

// Version — версия сайта в подвале.
func (p *Page) Version() string {
	return config.Version
}

// Renderer — наборы шаблонов страниц: у каждой страницы свой набор
// из layout.html и файла страницы.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer разбирает все шаблоны. Ошибка разбора — ошибка сборки,
// поэтому проверяется при старте.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New("layout").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("шаблон %s: %w", name, err)
		}
		layout := t.Lookup("layout")
		if layout == nil || t.Lookup("content") == nil {
			return nil, fmt.Errorf("шаблон %s: нет layout или content", name)
		}
		r.pages[name] = layout
	}
	return r, nil
}

// Component возвращает страницу name как templ.Component.
func (r *Renderer) Component(name string, page *Page) (templ.Component, error) {
	t, ok := r.pages[name]
	if !ok {
		return nil, fmt.Errorf("неизвестная страница %q", name)
	}
	return templ.FromGoHTML(t, page), nil
}

var funcs = template.FuncMap{
	"formatSize":   formatSize,
	"formatTime":   formatTime,
	"formatNumber": model.FormatNumber,
	"dateOr":       dateOr,
	"isImage":      isImage,
	"truncate":     truncate,
	"eqFold":       strings.EqualFold,
}

// formatSize — размер файла в читаемом виде.
func formatSize(n int64) string {
	const unit = 1024
	if n <= 0 {
		return ""
	}
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// dateOr — дата YYYY-MM-DD из даты или даты-времени; пустая — fallback.
func dateOr(s, fallback string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return fallback
	}
	if len(s) > len(time.DateOnly) {
		if _, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)]); err == nil {
			return s[:len(time.DateOnly)]
		}
	}
	return s
}

// isImage — файл можно показать как картинку (по MIME-типу или расширению).
func isImage(fileType, ref string) bool {
	if strings.HasPrefix(fileType, "image/") {
		return true
	}
	switch strings.ToLower(path.Ext(ref)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return true
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
