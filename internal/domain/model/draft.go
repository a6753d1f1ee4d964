package model

import (
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"

	openapi_types "github.com/oapi-codegen/runtime/types"
)

// Draft — буфер редактирования: элемент, который создаётся или изменяется
// и ещё не сохранён на сервере.
type Draft struct {
	// Fields — значения редактируемых полей (ключ — имя поля backend)
	Fields map[string]string
	// Attachment — новый файл; nil означает «файл не меняется»
	Attachment *Attachment
}

// NewDraft создаёт пустой черновик.
func NewDraft() Draft {
	return Draft{Fields: make(map[string]string)}
}

// Clone возвращает независимую копию черновика.
func (d Draft) Clone() Draft {
	out := Draft{Fields: make(map[string]string, len(d.Fields)), Attachment: d.Attachment}
	for k, v := range d.Fields {
		out.Fields[k] = v
	}
	return out
}

// Attachment — файл, прикладываемый к элементу (изображение или документ).
type Attachment struct {
	File openapi_types.File
	// ContentType — MIME-тип файла
	ContentType string
}

// NewAttachment создаёт вложение из содержимого в памяти.
// Пустой contentType определяется по расширению имени, затем по содержимому.
func NewAttachment(filename, contentType string, data []byte) *Attachment {
	a := &Attachment{}
	a.File.InitFromBytes(data, filepath.Base(filename))
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	a.ContentType = contentType
	return a
}

// AttachmentFromMultipart создаёт вложение из части multipart-формы.
// Пустая часть (файл не выбран) возвращает nil.
func AttachmentFromMultipart(fh *multipart.FileHeader) (*Attachment, error) {
	if fh == nil || fh.Filename == "" || fh.Size == 0 {
		return nil, nil
	}
	a := &Attachment{ContentType: fh.Header.Get("Content-Type")}
	a.File.InitFromMultipart(fh)
	if a.ContentType == "" || a.ContentType == "application/octet-stream" {
		if ct := mime.TypeByExtension(filepath.Ext(fh.Filename)); ct != "" {
			a.ContentType = ct
		}
	}
	if _, err := a.File.Bytes(); err != nil {
		return nil, fmt.Errorf("чтение файла %s: %w", fh.Filename, err)
	}
	return a, nil
}

// Filename — имя файла вложения.
func (a *Attachment) Filename() string {
	return a.File.Filename()
}

// Size — размер файла вложения в байтах.
func (a *Attachment) Size() int64 {
	return a.File.FileSize()
}
