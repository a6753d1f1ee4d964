// schema.go — JSON Schema (kin-openapi) черновиков и элементов коллекций.
// Клиент проверяет только наличие обязательных полей, backend — ещё типы и диапазоны.
package resource

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Коды ошибок полей черновика.
const (
	CodeRequired = "required"
	CodeType     = "type"
	CodeRange    = "range"
	CodeFormat   = "format"
	CodeInvalid  = "invalid"
)

// GeneralField — ключ ошибки, не относящейся к конкретному полю.
const GeneralField = "_"

// clientSchema — схема черновика для проверки перед отправкой.
func (d Descriptor) clientSchema(creating bool) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	var required []string

	for _, f := range d.Fields {
		prop := fieldSchema(f, false)
		if f.Required && isStringLike(f.Type) {
			prop = prop.WithMinLength(1)
		}
		if f.Required {
			required = append(required, f.Name)
		}
		schema = schema.WithProperty(f.Name, prop)
	}

	if creating && d.FileRequired {
		schema = schema.WithProperty(d.FileField, openapi3.NewStringSchema().WithFormat("binary").WithMinLength(1))
		required = append(required, d.FileField)
	}

	schema.Required = required
	return schema
}

// RequestSchema — схема тела create/update, которую проверяет backend.
// При создании обязательные поля должны быть заданы, при изменении
// проверяются только типы и диапазоны.
func (d Descriptor) RequestSchema(creating bool) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	var required []string

	for _, f := range d.Fields {
		prop := fieldSchema(f, true)
		if creating && f.Required {
			if isStringLike(f.Type) {
				prop = prop.WithMinLength(1)
			}
			required = append(required, f.Name)
		}
		schema = schema.WithProperty(f.Name, prop)
	}

	schema.Required = required
	return schema
}

// ItemSchema — схема элемента коллекции в ответе GET.
func (d Descriptor) ItemSchema() *openapi3.Schema {
	schema := openapi3.NewObjectSchema().
		WithProperty("_id", openapi3.NewStringSchema().WithMinLength(1))

	for _, f := range d.Fields {
		schema = schema.WithProperty(f.Name, fieldSchema(f, false))
	}

	if d.HasFile() {
		schema = schema.
			WithProperty(d.FileURLField, openapi3.NewStringSchema()).
			WithProperty("fileName", openapi3.NewStringSchema()).
			WithProperty("fileType", openapi3.NewStringSchema()).
			WithProperty("fileSize", openapi3.NewInt64Schema().WithMin(0)).
			WithProperty("downloads", openapi3.NewInt64Schema().WithMin(0))
	}

	schema = schema.
		WithProperty("createdAt", openapi3.NewDateTimeSchema()).
		WithProperty("updatedAt", openapi3.NewDateTimeSchema())

	schema.Required = []string{"_id"}
	return schema
}

// MultipartSchema — схема multipart-тела create/update ресурса с файлом.
func (d Descriptor) MultipartSchema(creating bool) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	for _, f := range d.Fields {
		schema = schema.WithProperty(f.Name, openapi3.NewStringSchema())
	}
	schema = schema.WithProperty(d.FileField, openapi3.NewStringSchema().WithFormat("binary"))
	if creating && d.FileRequired {
		schema.Required = []string{d.FileField}
	}
	return schema
}

func fieldSchema(f Field, strict bool) *openapi3.Schema {
	switch f.Type {
	case FieldNumber:
		s := openapi3.NewFloat64Schema()
		if strict && f.Min != nil {
			s = s.WithMin(*f.Min)
		}
		if strict && f.Max != nil {
			s = s.WithMax(*f.Max)
		}
		return s
	case FieldBool:
		return openapi3.NewBoolSchema()
	case FieldDate:
		s := openapi3.NewStringSchema()
		if strict {
			// Пустая строка или дата ISO 8601 (с временем или без)
			s = s.WithPattern(`^(\d{4}-\d{2}-\d{2}.*)?$`)
		}
		return s
	default:
		return openapi3.NewStringSchema()
	}
}

func isStringLike(t FieldType) bool {
	return t != FieldNumber && t != FieldBool
}

// validate проверяет документ по схеме и возвращает коды ошибок по полям.
func validate(schema *openapi3.Schema, doc map[string]any) map[string]string {
	errs := make(map[string]string)
	if err := schema.VisitJSON(doc, openapi3.MultiErrors()); err != nil {
		collectErrors(err, errs)
	}
	return errs
}

// Validate проверяет тело запроса по схеме. Используется backend.
func Validate(schema *openapi3.Schema, doc map[string]any) map[string]string {
	return validate(schema, doc)
}

func collectErrors(err error, errs map[string]string) {
	switch e := err.(type) {
	case openapi3.MultiError:
		for _, inner := range e {
			collectErrors(inner, errs)
		}
	case *openapi3.SchemaError:
		field := GeneralField
		if p := e.JSONPointer(); len(p) > 0 {
			field = p[0]
		}
		if _, ok := errs[field]; !ok {
			errs[field] = codeFor(e.SchemaField)
		}
	default:
		if _, ok := errs[GeneralField]; !ok {
			errs[GeneralField] = CodeInvalid
		}
	}
}

func codeFor(schemaField string) string {
	switch schemaField {
	case "required", "minLength":
		return CodeRequired
	case "type":
		return CodeType
	case "minimum", "maximum":
		return CodeRange
	case "pattern", "format":
		return CodeFormat
	default:
		return CodeInvalid
	}
}
