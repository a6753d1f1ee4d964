// Пакет resource — синхронизация коллекций backend с локальным состоянием
// представления: описания ресурсов, валидация черновиков, контроллер
// с полной перезагрузкой списка после каждой мутации.
package resource

import (
	"strconv"
	"strings"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/domain/model"
)

// FieldType — тип редактируемого поля.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldText   FieldType = "text"
	FieldNumber FieldType = "number"
	FieldBool   FieldType = "bool"
	FieldDate   FieldType = "date"
	FieldURL    FieldType = "url"
)

// Field — описание редактируемого поля ресурса.
type Field struct {
	// Name — имя поля в JSON backend
	Name string
	Type FieldType
	// Required — поле обязательно при создании и изменении
	Required bool
	// Default — значение в черновике после OpenCreate
	Default string
	// Min, Max — допустимый диапазон числового поля (проверяет только backend)
	Min, Max *float64
}

// Descriptor — описание коллекции backend: путь, поля, файловое поле.
type Descriptor struct {
	// Name — имя коллекции в URL (/api/<Name>)
	Name   string
	Fields []Field
	// FileField — имя части multipart-формы для файла; пусто — ресурс без файлов
	FileField string
	// FileURLField — поле элемента со ссылкой на сохранённый файл
	FileURLField string
	// FileRequired — файл обязателен при создании
	FileRequired bool
	// FileAccept — подсказка для input[type=file] (например, image/*)
	FileAccept string
	// SearchFields — поля, по которым ищет админ-панель (пусто — все редактируемые)
	SearchFields []string
}

// Field возвращает описание поля по имени.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldNames возвращает имена редактируемых полей в порядке описания.
func (d Descriptor) FieldNames() []string {
	names := make([]string, len(d.Fields))
	for i, f := range d.Fields {
		names[i] = f.Name
	}
	return names
}

// HasFile сообщает, принимает ли ресурс файл.
func (d Descriptor) HasFile() bool {
	return d.FileField != ""
}

// DefaultDraft возвращает черновик со значениями по умолчанию.
func (d Descriptor) DefaultDraft() model.Draft {
	draft := model.NewDraft()
	for _, f := range d.Fields {
		draft.Fields[f.Name] = f.Default
	}
	return draft
}

// Prepare проверяет черновик и превращает его в тело запроса.
// creating — черновик нового элемента (файл обязателен, если FileRequired).
// Ошибки проверки возвращаются как *apiclient.Error с Kind = KindValidation.
func (d Descriptor) Prepare(draft model.Draft, creating bool) (apiclient.Payload, error) {
	fields, errs := d.coerce(draft.Fields, false)

	doc := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		doc[k] = v
	}
	if creating && d.FileRequired {
		name := ""
		if draft.Attachment != nil {
			name = draft.Attachment.Filename()
		}
		doc[d.FileField] = name
	}

	for field, code := range validate(d.clientSchema(creating), doc) {
		if _, ok := errs[field]; !ok {
			errs[field] = code
		}
	}
	if len(errs) > 0 {
		return apiclient.Payload{}, apiclient.NewValidationError(errs)
	}

	return apiclient.Payload{Fields: fields, Attachment: draft.Attachment}, nil
}

// Coerce приводит строковые значения (форма, multipart) к типам схемы.
// Используется backend для разбора multipart-запросов.
func (d Descriptor) Coerce(values map[string]string) (map[string]any, map[string]string) {
	return d.coerce(values, true)
}

// coerce приводит значения полей к типам схемы.
// Строковые поля присутствуют всегда (пустая строка, если значения нет),
// пустые числовые поля опускаются. keepUnknown сохраняет поля вне описания.
func (d Descriptor) coerce(values map[string]string, keepUnknown bool) (map[string]any, map[string]string) {
	out := make(map[string]any, len(d.Fields))
	errs := make(map[string]string)

	for _, f := range d.Fields {
		raw, present := values[f.Name]
		raw = strings.TrimSpace(raw)

		switch f.Type {
		case FieldNumber:
			if raw == "" {
				continue
			}
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				errs[f.Name] = CodeType
				continue
			}
			out[f.Name] = n
		case FieldBool:
			if !present && keepUnknown {
				continue
			}
			out[f.Name] = ParseBool(raw)
		default:
			if !present && keepUnknown {
				continue
			}
			out[f.Name] = raw
		}
	}

	if keepUnknown {
		for k, v := range values {
			if _, ok := out[k]; ok {
				continue
			}
			if _, known := d.Field(k); known {
				continue
			}
			out[k] = v
		}
	}
	return out, errs
}

// ParseBool разбирает значение флажка: true, on, 1, yes — истина.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

// Matches сообщает, содержит ли элемент подстроку query (без учёта регистра)
// в одном из полей поиска.
func (d Descriptor) Matches(fields map[string]string, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	names := d.SearchFields
	if len(names) == 0 {
		names = d.FieldNames()
	}
	for _, name := range names {
		if strings.Contains(strings.ToLower(fields[name]), query) {
			return true
		}
	}
	return false
}
