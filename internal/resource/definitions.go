package resource

func bound(v float64) *float64 { return &v }

// Описания коллекций backend.
var (
	Slides = Descriptor{
		Name: "slides",
		Fields: []Field{
			{Name: "title", Type: FieldString, Required: true},
			{Name: "subtitle", Type: FieldString},
			{Name: "description", Type: FieldText},
			{Name: "buttonText", Type: FieldString},
			{Name: "buttonLink", Type: FieldURL},
			{Name: "order", Type: FieldNumber, Default: "0"},
		},
		FileField:    "image",
		FileURLField: "image",
		FileAccept:   "image/*",
	}

	FAQs = Descriptor{
		Name: "faqs",
		Fields: []Field{
			{Name: "question", Type: FieldString, Required: true},
			{Name: "answer", Type: FieldText, Required: true},
			{Name: "category", Type: FieldString},
			{Name: "order", Type: FieldNumber, Default: "0"},
		},
	}

	Gallery = Descriptor{
		Name: "gallery",
		Fields: []Field{
			{Name: "title", Type: FieldString, Required: true},
			{Name: "description", Type: FieldText},
			{Name: "category", Type: FieldString},
		},
		FileField:    "image",
		FileURLField: "image",
		FileRequired: true,
		FileAccept:   "image/*",
	}

	Projects = Descriptor{
		Name: "projects",
		Fields: []Field{
			{Name: "title", Type: FieldString, Required: true},
			{Name: "description", Type: FieldText, Required: true},
			{Name: "status", Type: FieldString, Default: "planned"},
			{Name: "progress", Type: FieldNumber, Default: "0", Min: bound(0), Max: bound(100)},
			{Name: "startDate", Type: FieldDate},
			{Name: "endDate", Type: FieldDate},
		},
		FileField:    "image",
		FileURLField: "image",
		FileAccept:   "image/*",
	}

	Forms = Descriptor{
		Name: "forms",
		Fields: []Field{
			{Name: "name", Type: FieldString, Required: true},
			{Name: "description", Type: FieldText, Required: true},
			{Name: "category", Type: FieldString, Required: true},
		},
		FileField:    "file",
		FileURLField: "fileUrl",
		FileRequired: true,
		FileAccept:   ".pdf,.doc,.docx,.xls,.xlsx,.odt,.zip",
	}

	Marquee = Descriptor{
		Name: "marquee",
		Fields: []Field{
			{Name: "text", Type: FieldText, Required: true},
			{Name: "link", Type: FieldURL},
			{Name: "active", Type: FieldBool, Default: "true"},
		},
	}

	Popups = Descriptor{
		Name: "popups",
		Fields: []Field{
			{Name: "title", Type: FieldString, Required: true},
			{Name: "content", Type: FieldText},
			{Name: "link", Type: FieldURL},
			{Name: "active", Type: FieldBool, Default: "true"},
			{Name: "startDate", Type: FieldDate},
			{Name: "endDate", Type: FieldDate},
		},
		FileField:    "image",
		FileURLField: "image",
		FileAccept:   "image/*",
	}
)

// Descriptors возвращает описания всех коллекций в порядке меню админ-панели.
func Descriptors() []Descriptor {
	return []Descriptor{Slides, FAQs, Gallery, Projects, Forms, Marquee, Popups}
}

// Lookup возвращает описание коллекции по имени.
func Lookup(name string) (Descriptor, bool) {
	for _, d := range Descriptors() {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}
