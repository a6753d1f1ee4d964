// Пакет i18n — переводы интерфейса сайта и админ-панели.
// Поддерживаемые языки: English (en), Русский (ru).
// Язык запроса определяет Middleware: cookie "lang" → Accept-Language → "en".
package i18n

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/language"
)

// DefaultLang — язык по умолчанию и запасной каталог.
const DefaultLang = "en"

//go:embed locales/*.json
var localeFS embed.FS

// Languages — коды поддерживаемых языков в порядке переключателя.
var Languages = []string{"en", "ru"}

var matcher = language.NewMatcher([]language.Tag{language.English, language.Russian})

type contextKey struct{}

// Bundle — каталоги переводов всех языков. После Load только читается.
type Bundle struct {
	catalogs map[string]map[string]string // lang → key → перевод
}

// Load загружает встроенные каталоги locales/<lang>.json.
func Load(logger *slog.Logger) (*Bundle, error) {
	b := &Bundle{catalogs: make(map[string]map[string]string, len(Languages))}
	for _, lang := range Languages {
		path := "locales/" + lang + ".json"
		data, err := localeFS.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("i18n: не удалось прочитать %s: %w", path, err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("i18n: ошибка парсинга каталога %s: %w", lang, err)
		}
		b.catalogs[lang] = messages

		logger.Debug("i18n каталог загружен",
			slog.String("lang", lang),
			slog.Int("keys", len(messages)),
		)
	}
	return b, nil
}

// Translate возвращает перевод ключа. Если ключа нет в каталоге языка,
// берётся английский; если нет и там — возвращается сам ключ.
func (b *Bundle) Translate(lang, key string) string {
	if b == nil {
		return key
	}
	if msg, ok := b.catalogs[lang][key]; ok {
		return msg
	}
	if msg, ok := b.catalogs[DefaultLang][key]; ok {
		return msg
	}
	return key
}

// Has сообщает, есть ли ключ в каталоге языка.
func (b *Bundle) Has(lang, key string) bool {
	if b == nil {
		return false
	}
	_, ok := b.catalogs[lang][key]
	return ok
}

// Localizer — переводчик, привязанный к языку запроса.
// Методы вызываются из шаблонов: {{.T "nav.home"}}.
type Localizer struct {
	bundle *Bundle
	Lang   string
}

// For возвращает переводчик для языка из контекста запроса.
func (b *Bundle) For(ctx context.Context) Localizer {
	return Localizer{bundle: b, Lang: LangFromContext(ctx)}
}

// T возвращает перевод ключа.
func (l Localizer) T(key string) string {
	return l.bundle.Translate(l.Lang, key)
}

// Tf возвращает перевод с подстановкой аргументов.
func (l Localizer) Tf(key string, args ...any) string {
	format := l.T(key)
	if len(args) == 0 {
		return format
	}
	return sprintf(format, args...)
}

// TOr возвращает перевод ключа или fallback, если перевода нет.
// Нужен для подписей, зависящих от данных (категории, статусы).
func (l Localizer) TOr(key, fallback string) string {
	if l.bundle.Has(l.Lang, key) || l.bundle.Has(DefaultLang, key) {
		return l.T(key)
	}
	return fallback
}

// sprintf — fmt.Sprintf через переменную: формат приходит из каталога,
// go vet не может его проверить.
var sprintf = fmt.Sprintf

// WithLang помещает язык в контекст.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, contextKey{}, lang)
}

// LangFromContext извлекает язык из контекста. По умолчанию "en".
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(contextKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}

// Supported сообщает, поддерживается ли язык.
func Supported(lang string) bool {
	for _, l := range Languages {
		if l == lang {
			return true
		}
	}
	return false
}

// MatchLanguage выбирает язык по заголовку Accept-Language.
func MatchLanguage(acceptLanguage string) string {
	tag, _ := language.MatchStrings(matcher, acceptLanguage)
	base, _ := tag.Base()
	if strings.HasPrefix(base.String(), "ru") {
		return "ru"
	}
	return DefaultLang
}
