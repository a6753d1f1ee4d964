package resource

import (
	"context"
	"sort"
	"time"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/domain/model"
)

// Clients — типизированные клиенты всех коллекций backend.
type Clients struct {
	Slides   *apiclient.Client[model.Slide]
	FAQs     *apiclient.Client[model.FAQ]
	Gallery  *apiclient.Client[model.GalleryItem]
	Projects *apiclient.Client[model.ProjectPhase]
	Forms    *apiclient.Client[model.Form]
	Marquee  *apiclient.Client[model.MarqueeItem]
	Popups   *apiclient.Client[model.Popup]
}

// NewClients создаёт клиенты всех коллекций поверх одного подключения.
func NewClients(backend *apiclient.Backend) *Clients {
	return &Clients{
		Slides:   newClient[model.Slide](backend, Slides),
		FAQs:     newClient[model.FAQ](backend, FAQs),
		Gallery:  newClient[model.GalleryItem](backend, Gallery),
		Projects: newClient[model.ProjectPhase](backend, Projects),
		Forms:    newClient[model.Form](backend, Forms),
		Marquee:  newClient[model.MarqueeItem](backend, Marquee),
		Popups:   newClient[model.Popup](backend, Popups),
	}
}

func newClient[T model.Item](backend *apiclient.Backend, d Descriptor) *apiclient.Client[T] {
	return apiclient.New[T](backend, d.Name, d.FileField)
}

// Row — элемент коллекции в нетипизированном виде для админ-панели и CLI.
type Row struct {
	ID     string
	Fields map[string]string
	// FileURL — абсолютная ссылка на файл
	FileURL   string
	FileName  string
	FileType  string
	FileSize  int64
	Downloads int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// View — состояние представления коллекции для отрисовки.
type View struct {
	Resource Descriptor
	// Rows — элементы после фильтра
	Rows []Row
	// Total — элементов в списке до фильтра
	Total     int
	Draft     model.Draft
	EditingID string
	ModalOpen bool
	Loading   bool
	Err       error
	LastSync  time.Time
}

// Session — контроллер одной коллекции без параметра типа.
// Админ-панель создаёт сессию на каждый запрос, CLI — на каждую команду.
type Session interface {
	Mount(ctx context.Context) error
	Refresh(ctx context.Context) error
	OpenCreate()
	OpenEdit(id string) error
	Cancel()
	SetField(name, value string) error
	SetAttachment(a *model.Attachment) error
	Submit(ctx context.Context) error
	Delete(ctx context.Context, id string, confirm func(Row) bool) error
	View(query string) View
}

// Binding связывает описание коллекции с её клиентом.
type Binding interface {
	Descriptor() Descriptor
	NewSession(opts ...Option) Session
}

// Registry — все коллекции сайта с общими настройками контроллеров.
type Registry struct {
	bindings []Binding
	byName   map[string]Binding
	opts     []Option
}

// NewRegistry создаёт реестр коллекций. opts применяются к каждой сессии
// (наблюдатели мутаций, логгер).
func NewRegistry(clients *Clients, opts ...Option) *Registry {
	r := &Registry{byName: make(map[string]Binding), opts: opts}
	r.add(bind[model.Slide](Slides, clients.Slides, r))
	r.add(bind[model.FAQ](FAQs, clients.FAQs, r))
	r.add(bind[model.GalleryItem](Gallery, clients.Gallery, r))
	r.add(bind[model.ProjectPhase](Projects, clients.Projects, r))
	r.add(bind[model.Form](Forms, clients.Forms, r))
	r.add(bind[model.MarqueeItem](Marquee, clients.Marquee, r))
	r.add(bind[model.Popup](Popups, clients.Popups, r))
	return r
}

func (r *Registry) add(b Binding) {
	r.bindings = append(r.bindings, b)
	r.byName[b.Descriptor().Name] = b
}

// Lookup возвращает коллекцию по имени.
func (r *Registry) Lookup(name string) (Binding, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// All возвращает все коллекции в порядке меню.
func (r *Registry) All() []Binding {
	return append([]Binding(nil), r.bindings...)
}

// Names возвращает имена коллекций в алфавитном порядке.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FileResolver — разрешение относительных ссылок на файлы.
type FileResolver interface {
	ResolveFileURL(ref string) string
}

// remoteClient — клиент коллекции, который умеет разрешать ссылки на файлы.
type remoteClient[T model.Item] interface {
	Remote[T]
	FileResolver
}

type binding[T model.Item] struct {
	desc     Descriptor
	client   remoteClient[T]
	registry *Registry
}

func bind[T model.Item](desc Descriptor, client remoteClient[T], r *Registry) *binding[T] {
	return &binding[T]{desc: desc, client: client, registry: r}
}

func (b *binding[T]) Descriptor() Descriptor {
	return b.desc
}

func (b *binding[T]) NewSession(opts ...Option) Session {
	all := append(append([]Option(nil), b.registry.opts...), opts...)
	return &session[T]{
		Controller: NewController[T](b.desc, b.client, all...),
		resolve:    b.client,
	}
}

type session[T model.Item] struct {
	*Controller[T]
	resolve FileResolver
}

func (s *session[T]) Delete(ctx context.Context, id string, confirm func(Row) bool) error {
	var typed ConfirmFunc[T]
	if confirm != nil {
		typed = func(item T) bool { return confirm(ToRow(item, s.resolve)) }
	}
	return s.Controller.Delete(ctx, id, typed)
}

func (s *session[T]) View(query string) View {
	st := s.Snapshot()

	rows := make([]Row, 0, len(st.Items))
	for _, item := range st.Items {
		if s.desc.Matches(item.EditableFields(), query) {
			rows = append(rows, ToRow(item, s.resolve))
		}
	}

	return View{
		Resource:  s.desc,
		Rows:      rows,
		Total:     len(st.Items),
		Draft:     st.Draft,
		EditingID: st.EditingID,
		ModalOpen: st.ModalOpen,
		Loading:   st.Loading,
		Err:       st.Err,
		LastSync:  st.LastSync,
	}
}

// ToRow переводит типизированный элемент в Row.
func ToRow[T model.Item](item T, resolve FileResolver) Row {
	row := Row{
		ID:     item.ItemID(),
		Fields: item.EditableFields(),
	}
	if resolve != nil {
		row.FileURL = resolve.ResolveFileURL(item.FileRef())
	} else {
		row.FileURL = item.FileRef()
	}

	if m, ok := any(item).(interface{ Meta() model.Base }); ok {
		meta := m.Meta()
		row.Downloads = meta.Downloads
		row.CreatedAt = meta.CreatedAt
		row.UpdatedAt = meta.UpdatedAt
	}
	if f, ok := any(item).(interface{ Attached() model.FileMeta }); ok {
		meta := f.Attached()
		row.FileName = meta.FileName
		row.FileType = meta.FileType
		row.FileSize = meta.FileSize
	}
	return row
}
