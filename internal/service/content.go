package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/bigkaa/hydrosite/internal/domain/model"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// Home — данные главной страницы.
type Home struct {
	// Slides — слайды карусели по возрастанию order
	Slides []model.Slide
	// Marquee — активные строки бегущей строки
	Marquee []model.MarqueeItem
	// Popup — действующее всплывающее объявление (nil — нет)
	Popup *model.Popup
}

// FAQGroup — вопросы одной категории.
type FAQGroup struct {
	Category string
	Items    []model.FAQ
}

// GalleryPage — фотографии галереи с фильтром по категории.
type GalleryPage struct {
	Items []model.GalleryItem
	// Categories — все категории галереи в алфавитном порядке
	Categories []string
	// Category — выбранная категория ("" — все)
	Category string
}

// Notice — документ доски объявлений со ссылкой для скачивания.
type Notice struct {
	model.Form
	// DownloadURL — абсолютная ссылка на файл
	DownloadURL string
}

// ContentService — выборки контента для публичных страниц.
// Списки читаются через кэш; мутации в админ-панели его сбрасывают.
type ContentService struct {
	clients *resource.Clients
	cache   *ContentCache
	logger  *slog.Logger
	now     func() time.Time
}

// NewContentService создаёт сервис публичного контента.
func NewContentService(clients *resource.Clients, cache *ContentCache, logger *slog.Logger) *ContentService {
	return &ContentService{
		clients: clients,
		cache:   cache,
		logger:  logger.With(slog.String("component", "content_service")),
		now:     time.Now,
	}
}

// Home собирает данные главной страницы.
// Недоступность бегущей строки или объявлений не мешает показать слайды.
func (s *ContentService) Home(ctx context.Context) (*Home, error) {
	slides, err := cachedList(ctx, s.cache, resource.Slides.Name, s.clients.Slides.List)
	if err != nil {
		return nil, fmt.Errorf("загрузка слайдов: %w", err)
	}
	home := &Home{Slides: sortedByOrder(slides, func(sl model.Slide) float64 { return sl.Order })}

	marquee, err := cachedList(ctx, s.cache, resource.Marquee.Name, s.clients.Marquee.List)
	if err != nil {
		s.logger.Warn("Бегущая строка недоступна", slog.String("error", err.Error()))
	}
	for _, m := range marquee {
		if m.Active {
			home.Marquee = append(home.Marquee, m)
		}
	}

	popups, err := cachedList(ctx, s.cache, resource.Popups.Name, s.clients.Popups.List)
	if err != nil {
		s.logger.Warn("Объявления недоступны", slog.String("error", err.Error()))
	}
	today := s.now().Format(time.DateOnly)
	for _, p := range popups {
		if p.Active && inWindow(today, p.StartDate, p.EndDate) {
			p.Image = s.clients.Popups.ResolveFileURL(p.Image)
			home.Popup = &p
			break
		}
	}

	for i := range home.Slides {
		home.Slides[i].Image = s.clients.Slides.ResolveFileURL(home.Slides[i].Image)
	}
	return home, nil
}

// Projects возвращает этапы проекта по дате начала.
func (s *ContentService) Projects(ctx context.Context) ([]model.ProjectPhase, error) {
	items, err := cachedList(ctx, s.cache, resource.Projects.Name, s.clients.Projects.List)
	if err != nil {
		return nil, fmt.Errorf("загрузка проектов: %w", err)
	}
	out := append([]model.ProjectPhase(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		// Этапы без даты начала — в конце
		a, b := out[i].StartDate, out[j].StartDate
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return a < b
	})
	for i := range out {
		out[i].Image = s.clients.Projects.ResolveFileURL(out[i].Image)
	}
	return out, nil
}

// FAQ возвращает вопросы, сгруппированные по категориям.
// Категории идут в порядке первого вопроса (по order).
func (s *ContentService) FAQ(ctx context.Context) ([]FAQGroup, error) {
	items, err := cachedList(ctx, s.cache, resource.FAQs.Name, s.clients.FAQs.List)
	if err != nil {
		return nil, fmt.Errorf("загрузка FAQ: %w", err)
	}

	var groups []FAQGroup
	index := make(map[string]int)
	for _, f := range sortedByOrder(items, func(f model.FAQ) float64 { return f.Order }) {
		key := strings.TrimSpace(f.Category)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, FAQGroup{Category: key})
		}
		groups[i].Items = append(groups[i].Items, f)
	}
	return groups, nil
}

// Gallery возвращает фотографии категории category ("" — все).
func (s *ContentService) Gallery(ctx context.Context, category string) (*GalleryPage, error) {
	items, err := cachedList(ctx, s.cache, resource.Gallery.Name, s.clients.Gallery.List)
	if err != nil {
		return nil, fmt.Errorf("загрузка галереи: %w", err)
	}

	page := &GalleryPage{Category: strings.TrimSpace(category)}
	seen := make(map[string]bool)
	for _, g := range items {
		if c := strings.TrimSpace(g.Category); c != "" && !seen[strings.ToLower(c)] {
			seen[strings.ToLower(c)] = true
			page.Categories = append(page.Categories, c)
		}
		if page.Category != "" && !strings.EqualFold(strings.TrimSpace(g.Category), page.Category) {
			continue
		}
		g.Image = s.clients.Gallery.ResolveFileURL(g.Image)
		page.Items = append(page.Items, g)
	}
	sort.Strings(page.Categories)
	return page, nil
}

// Notices возвращает документы доски объявлений по категориям и названиям.
func (s *ContentService) Notices(ctx context.Context) ([]Notice, error) {
	items, err := cachedList(ctx, s.cache, resource.Forms.Name, s.clients.Forms.List)
	if err != nil {
		return nil, fmt.Errorf("загрузка документов: %w", err)
	}

	out := make([]Notice, 0, len(items))
	for _, f := range items {
		out = append(out, Notice{Form: f, DownloadURL: s.clients.Forms.ResolveFileURL(f.FileURL)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func sortedByOrder[T any](items []T, order func(T) float64) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return order(out[i]) < order(out[j]) })
	return out
}

// inWindow сообщает, попадает ли день today (YYYY-MM-DD) в интервал дат.
// Пустая граница не ограничивает интервал.
func inWindow(today, start, end string) bool {
	if d := day(start); d != "" && today < d {
		return false
	}
	if d := day(end); d != "" && today > d {
		return false
	}
	return true
}

// day возвращает дату YYYY-MM-DD из строки даты или даты-времени.
// Нераспознанная строка даёт "".
func day(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < len(time.DateOnly) {
		return ""
	}
	s = s[:len(time.DateOnly)]
	if _, err := time.Parse(time.DateOnly, s); err != nil {
		return ""
	}
	return s
}
