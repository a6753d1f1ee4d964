package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"
	"strconv"
	"strings"
)

// encodePayload кодирует тело create/update.
// С файлом — multipart/form-data (часть fileField), без файла — JSON.
func encodePayload(p Payload, fileField string) ([]byte, string, error) {
	fields := p.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	if p.Attachment == nil {
		data, err := json.Marshal(fields)
		if err != nil {
			return nil, "", &Error{Kind: KindValidation, Message: "кодирование JSON: " + err.Error(), Err: err}
		}
		return data, "application/json", nil
	}

	if fileField == "" {
		return nil, "", &Error{Kind: KindValidation, Message: "ресурс не принимает файлы"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, FormValue(fields[k])); err != nil {
			return nil, "", fmt.Errorf("запись поля %s: %w", k, err)
		}
	}

	data, err := p.Attachment.File.Bytes()
	if err != nil {
		return nil, "", &Error{Kind: KindValidation, Message: "чтение файла: " + err.Error(), Err: err}
	}

	contentType := p.Attachment.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(fileField), quoteEscaper.Replace(p.Attachment.Filename())))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("создание части %s: %w", fileField, err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("запись файла: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("завершение multipart: %w", err)
	}

	return buf.Bytes(), mw.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// FormValue — строковое представление значения поля для multipart-формы.
func FormValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
