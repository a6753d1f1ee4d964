// Пакет model — доменные типы ресурсов сайта: элементы коллекций backend,
// черновик формы редактирования и вложение.
package model

import (
	"strconv"
	"time"
)

// Item — элемент коллекции backend.
// Идентификатор присваивает сервер; у черновика до создания его нет.
type Item interface {
	// ItemID — идентификатор, присвоенный сервером
	ItemID() string
	// EditableFields — редактируемые поля в строковом виде (ключ — имя поля backend)
	EditableFields() map[string]string
	// FileRef — ссылка на прикреплённый файл (относительная или абсолютная), "" если нет
	FileRef() string
}

// Base — поля, которые ведёт сервер. Никогда не копируются в черновик.
type Base struct {
	// ID — идентификатор элемента (_id в JSON backend)
	ID string `json:"_id"`
	// Downloads — счётчик скачиваний прикреплённого файла
	Downloads int64 `json:"downloads,omitempty"`
	// CreatedAt — время создания
	CreatedAt time.Time `json:"createdAt,omitzero"`
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// ItemID возвращает идентификатор элемента.
func (b Base) ItemID() string { return b.ID }

// FileRef по умолчанию пуст; ресурсы с файлами переопределяют его.
func (b Base) FileRef() string { return "" }

// Meta возвращает серверные поля элемента.
func (b Base) Meta() Base { return b }

// FileMeta — метаданные прикреплённого файла, заполняемые сервером.
type FileMeta struct {
	FileName string `json:"fileName,omitempty"`
	FileType string `json:"fileType,omitempty"`
	FileSize int64  `json:"fileSize,omitempty"`
}

// Attached возвращает метаданные файла.
func (m FileMeta) Attached() FileMeta { return m }

// FormatNumber — строковое представление числового поля для черновика.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatBool — строковое представление логического поля для черновика.
func FormatBool(v bool) string {
	return strconv.FormatBool(v)
}
