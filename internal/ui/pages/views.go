package pages

import (
	"github.com/bigkaa/hydrosite/internal/repository"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// ResourceLink — пункт меню коллекций админ-панели.
type ResourceLink struct {
	Name   string
	Active bool
}

// OutcomeCount — количество мутаций с данным исходом.
type OutcomeCount struct {
	Outcome string
	Count   int
}

// AdminIndexData — обзор админ-панели.
type AdminIndexData struct {
	Resources []ResourceLink
	Summary   []OutcomeCount
}

// AdminListData — таблица коллекции с поиском, пагинацией и формой.
type AdminListData struct {
	Resource  string
	Resources []ResourceLink
	// Columns — поля, показываемые в таблице
	Columns []string
	HasFile bool
	Rows    []resource.Row
	Query   string
	Page    int
	Pages   int
	// Shown — элементов после поиска, Total — всего в коллекции
	Shown    int
	Total    int
	PrevURL  string
	NextURL  string
	LastSync string
	// Form — открытая форма создания или изменения (nil — закрыта)
	Form *FormData
}

// FormData — форма черновика.
type FormData struct {
	Action    string
	CancelURL string
	EditingID string
	Fields    []FormField
	File      *FileInput
}

// FormField — поле формы.
type FormField struct {
	Name string
	// Type — тип поля описания (string, text, number, bool, date, url)
	Type     string
	Value    string
	Required bool
	// Error — код ошибки проверки (required, type, range, format)
	Error string
}

// InputType — тип input для поля.
func (f FormField) InputType() string {
	switch f.Type {
	case string(resource.FieldNumber):
		return "number"
	case string(resource.FieldDate):
		return "date"
	default:
		return "text"
	}
}

// FileInput — поле загрузки файла.
type FileInput struct {
	Name     string
	Accept   string
	Required bool
	// Current — ссылка на сохранённый файл редактируемого элемента
	Current     string
	CurrentName string
	Error       string
}

// AdminDeleteData — подтверждение удаления.
type AdminDeleteData struct {
	Resource  string
	Resources []ResourceLink
	Columns   []string
	Row       resource.Row
	Action    string
	CancelURL string
}

// ActivityData — журнал изменений.
type ActivityData struct {
	Resources []ResourceLink
	Summary   []OutcomeCount
	Entries   []repository.JournalEntry
}

// ErrorData — страница ошибки.
type ErrorData struct {
	MessageKey string
}
