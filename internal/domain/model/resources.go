package model

// Slide — слайд карусели на главной странице (коллекция slides).
type Slide struct {
	Base
	FileMeta
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle,omitempty"`
	Description string  `json:"description,omitempty"`
	ButtonText  string  `json:"buttonText,omitempty"`
	ButtonLink  string  `json:"buttonLink,omitempty"`
	Order       float64 `json:"order,omitempty"`
	Image       string  `json:"image,omitempty"`
}

func (s Slide) EditableFields() map[string]string {
	return map[string]string{
		"title":       s.Title,
		"subtitle":    s.Subtitle,
		"description": s.Description,
		"buttonText":  s.ButtonText,
		"buttonLink":  s.ButtonLink,
		"order":       FormatNumber(s.Order),
	}
}

func (s Slide) FileRef() string { return s.Image }

// FAQ — вопрос и ответ (коллекция faqs).
type FAQ struct {
	Base
	Question string  `json:"question"`
	Answer   string  `json:"answer"`
	Category string  `json:"category,omitempty"`
	Order    float64 `json:"order,omitempty"`
}

func (f FAQ) EditableFields() map[string]string {
	return map[string]string{
		"question": f.Question,
		"answer":   f.Answer,
		"category": f.Category,
		"order":    FormatNumber(f.Order),
	}
}

// GalleryItem — фотография галереи (коллекция gallery).
type GalleryItem struct {
	Base
	FileMeta
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	Image       string `json:"image,omitempty"`
}

func (g GalleryItem) EditableFields() map[string]string {
	return map[string]string{
		"title":       g.Title,
		"description": g.Description,
		"category":    g.Category,
	}
}

func (g GalleryItem) FileRef() string { return g.Image }

// ProjectPhase — этап проекта (коллекция projects).
// Даты хранятся строками в том виде, в котором их отдаёт backend.
type ProjectPhase struct {
	Base
	FileMeta
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status,omitempty"`
	Progress    float64 `json:"progress,omitempty"`
	StartDate   string  `json:"startDate,omitempty"`
	EndDate     string  `json:"endDate,omitempty"`
	Image       string  `json:"image,omitempty"`
}

func (p ProjectPhase) EditableFields() map[string]string {
	return map[string]string{
		"title":       p.Title,
		"description": p.Description,
		"status":      p.Status,
		"progress":    FormatNumber(p.Progress),
		"startDate":   p.StartDate,
		"endDate":     p.EndDate,
	}
}

func (p ProjectPhase) FileRef() string { return p.Image }

// Form — документ доски объявлений с файлом для скачивания (коллекция forms).
type Form struct {
	Base
	FileMeta
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	FileURL     string `json:"fileUrl,omitempty"`
}

func (f Form) EditableFields() map[string]string {
	return map[string]string{
		"name":        f.Name,
		"description": f.Description,
		"category":    f.Category,
	}
}

func (f Form) FileRef() string { return f.FileURL }

// MarqueeItem — строка бегущей строки (коллекция marquee).
type MarqueeItem struct {
	Base
	Text   string `json:"text"`
	Link   string `json:"link,omitempty"`
	Active bool   `json:"active"`
}

func (m MarqueeItem) EditableFields() map[string]string {
	return map[string]string{
		"text":   m.Text,
		"link":   m.Link,
		"active": FormatBool(m.Active),
	}
}

// Popup — всплывающее объявление (коллекция popups).
type Popup struct {
	Base
	FileMeta
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	Link      string `json:"link,omitempty"`
	Active    bool   `json:"active"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Image     string `json:"image,omitempty"`
}

func (p Popup) EditableFields() map[string]string {
	return map[string]string{
		"title":     p.Title,
		"content":   p.Content,
		"link":      p.Link,
		"active":    FormatBool(p.Active),
		"startDate": p.StartDate,
		"endDate":   p.EndDate,
	}
}

func (p Popup) FileRef() string { return p.Image }
