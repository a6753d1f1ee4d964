package resource

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/domain/model"
)

// Remote — операции с коллекцией backend, которые нужны контроллеру.
// Реализуется *apiclient.Client[T].
type Remote[T model.Item] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, p apiclient.Payload) error
	Update(ctx context.Context, id string, p apiclient.Payload) error
	Delete(ctx context.Context, id string) error
}

// ConfirmFunc — блокирующий запрос подтверждения удаления.
// false — пользователь отказался, запрос на сервер не отправляется.
type ConfirmFunc[T model.Item] func(item T) bool

// State — снимок локального состояния представления.
type State[T model.Item] struct {
	// Items — последний успешно полученный список
	Items []T
	// Draft — буфер редактирования
	Draft model.Draft
	// EditingID — идентификатор редактируемого элемента; пусто — создание
	EditingID string
	ModalOpen bool
	// Loading — идёт загрузка списка
	Loading bool
	// Err — последняя ошибка операции
	Err error
	// LastSync — время последнего успешного применения списка
	LastSync time.Time
}

// Операции мутаций.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// Исходы мутаций.
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
	OutcomeCancelled = "cancelled"
	// OutcomeStale — мутация выполнена, список не перезагружен
	OutcomeStale = "stale"
)

// Mutation — попытка изменения коллекции, передаётся наблюдателям.
type Mutation struct {
	Resource  string
	Operation string
	ItemID    string
	Outcome   string
	// ErrorKind — категория ошибки (пусто при успехе)
	ErrorKind apiclient.Kind
	Err       error
}

// MutationHook наблюдает за мутациями (журнал, сброс кэша).
type MutationHook func(ctx context.Context, m Mutation)

// Option — настройка контроллера.
type Option func(*options)

type options struct {
	hooks  []MutationHook
	logger *slog.Logger
}

// WithMutationHook добавляет наблюдателя мутаций.
func WithMutationHook(h MutationHook) Option {
	return func(o *options) {
		if h != nil {
			o.hooks = append(o.hooks, h)
		}
	}
}

// WithLogger задаёт логгер контроллера.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Controller — локальное состояние представления одной коллекции и цикл
// согласования: после каждой успешной мутации список перезагружается целиком.
// Безопасен для конкурентного использования; блокировка не удерживается
// во время сетевых вызовов.
type Controller[T model.Item] struct {
	desc   Descriptor
	remote Remote[T]
	hooks  []MutationHook
	logger *slog.Logger

	mu    sync.Mutex
	state State[T]
	// issued — номер последней запущенной загрузки списка, applied — последней применённой
	issued   uint64
	applied  uint64
	inflight int
}

// NewController создаёт контроллер коллекции desc.
func NewController[T model.Item](desc Descriptor, remote Remote[T], opts ...Option) *Controller[T] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[T]{
		desc:   desc,
		remote: remote,
		hooks:  o.hooks,
		logger: o.logger.With(slog.String("component", "resource_controller"), slog.String("resource", desc.Name)),
		state: State[T]{
			Items: []T{},
			Draft: desc.DefaultDraft(),
		},
	}
}

// Descriptor возвращает описание коллекции.
func (c *Controller[T]) Descriptor() Descriptor {
	return c.desc
}

// Snapshot возвращает копию текущего состояния.
func (c *Controller[T]) Snapshot() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state
	s.Items = append([]T(nil), c.state.Items...)
	s.Draft = c.state.Draft.Clone()
	return s
}

// Mount — первичная загрузка списка при открытии представления.
func (c *Controller[T]) Mount(ctx context.Context) error {
	return c.Refresh(ctx)
}

// Refresh запрашивает список и заменяет им локальный целиком.
// Результат загрузки, запущенной раньше уже применённой, отбрасывается.
// При ошибке прежний список сохраняется.
func (c *Controller[T]) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	ticket := c.issued
	c.inflight++
	c.state.Loading = true
	c.mu.Unlock()

	items, err := c.remote.List(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.inflight--
	c.state.Loading = c.inflight > 0

	if ticket < c.applied {
		c.logger.Debug("Устаревший результат загрузки списка отброшен",
			slog.Uint64("ticket", ticket),
			slog.Uint64("applied", c.applied),
		)
		return nil
	}
	c.applied = ticket

	if err != nil {
		c.state.Err = err
		c.logger.Warn("Ошибка загрузки списка",
			slog.String("error", err.Error()),
			slog.String("kind", string(apiclient.KindOf(err))),
		)
		return err
	}

	c.state.Items = items
	c.state.Err = nil
	c.state.LastSync = time.Now()
	return nil
}

// OpenCreate открывает форму создания с черновиком по умолчанию.
func (c *Controller[T]) OpenCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Draft = c.desc.DefaultDraft()
	c.state.EditingID = ""
	c.state.ModalOpen = true
	c.state.Err = nil
}

// OpenEdit копирует редактируемые поля элемента id в черновик и открывает форму.
// Серверные поля (счётчики, даты, файл) в черновик не попадают.
func (c *Controller[T]) OpenEdit(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.findLocked(id)
	if !ok {
		return ErrUnknownItem
	}

	draft := model.NewDraft()
	editable := item.EditableFields()
	for _, name := range c.desc.FieldNames() {
		draft.Fields[name] = editable[name]
	}

	c.state.Draft = draft
	c.state.EditingID = id
	c.state.ModalOpen = true
	c.state.Err = nil
	return nil
}

// Cancel закрывает форму и сбрасывает черновик.
func (c *Controller[T]) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.state.Draft = c.desc.DefaultDraft()
	c.state.EditingID = ""
	c.state.ModalOpen = false
}

// SetField изменяет поле черновика.
func (c *Controller[T]) SetField(name, value string) error {
	if _, ok := c.desc.Field(name); !ok {
		return ErrUnknownField
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Draft.Fields[name] = value
	return nil
}

// SetAttachment прикладывает файл к черновику (nil — убрать новый файл).
func (c *Controller[T]) SetAttachment(a *model.Attachment) error {
	if !c.desc.HasFile() {
		return ErrUnknownField
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Draft.Attachment = a
	return nil
}

// Submit сохраняет черновик: Update при заданном EditingID, иначе Create.
// Невалидный черновик не отправляется. При ошибке форма остаётся открытой,
// черновик не меняется. При успехе форма закрывается и список перезагружается;
// если перезагрузка не удалась, возвращается *ReconcileError.
func (c *Controller[T]) Submit(ctx context.Context) error {
	c.mu.Lock()
	draft := c.state.Draft.Clone()
	editingID := c.state.EditingID
	known := idSet(c.state.Items)
	c.mu.Unlock()

	op := OpUpdate
	if editingID == "" {
		op = OpCreate
	}

	payload, err := c.desc.Prepare(draft, op == OpCreate)
	if err != nil {
		c.setErr(err)
		c.notify(ctx, Mutation{Operation: op, ItemID: editingID, Outcome: OutcomeInvalid, ErrorKind: apiclient.KindOf(err), Err: err})
		return err
	}

	if op == OpCreate {
		err = c.remote.Create(ctx, payload)
	} else {
		err = c.remote.Update(ctx, editingID, payload)
	}
	if err != nil {
		c.setErr(err)
		c.logger.Warn("Ошибка сохранения элемента",
			slog.String("operation", op),
			slog.String("id", editingID),
			slog.String("kind", string(apiclient.KindOf(err))),
			slog.String("error", err.Error()),
		)
		c.notify(ctx, Mutation{Operation: op, ItemID: editingID, Outcome: OutcomeFailed, ErrorKind: apiclient.KindOf(err), Err: err})
		return err
	}

	c.mu.Lock()
	c.state.Draft = c.desc.DefaultDraft()
	c.state.EditingID = ""
	c.state.ModalOpen = false
	c.state.Err = nil
	c.mu.Unlock()

	itemID := editingID
	rerr := c.reconcile(ctx)
	if op == OpCreate && rerr == nil {
		itemID = c.newID(known)
	}
	return c.finish(ctx, op, itemID, rerr)
}

// Delete удаляет элемент id после подтверждения и перезагружает список.
// confirm == nil — подтверждение не требуется.
func (c *Controller[T]) Delete(ctx context.Context, id string, confirm ConfirmFunc[T]) error {
	c.mu.Lock()
	item, ok := c.findLocked(id)
	c.mu.Unlock()
	if !ok {
		return ErrUnknownItem
	}

	if confirm != nil && !confirm(item) {
		c.notify(ctx, Mutation{Operation: OpDelete, ItemID: id, Outcome: OutcomeCancelled, Err: ErrCancelled})
		return ErrCancelled
	}

	if err := c.remote.Delete(ctx, id); err != nil {
		c.setErr(err)
		c.logger.Warn("Ошибка удаления элемента",
			slog.String("id", id),
			slog.String("kind", string(apiclient.KindOf(err))),
			slog.String("error", err.Error()),
		)
		c.notify(ctx, Mutation{Operation: OpDelete, ItemID: id, Outcome: OutcomeFailed, ErrorKind: apiclient.KindOf(err), Err: err})
		return err
	}

	c.mu.Lock()
	c.state.Err = nil
	c.mu.Unlock()

	return c.finish(ctx, OpDelete, id, c.reconcile(ctx))
}

// Filter возвращает элементы текущего списка, содержащие query
// (без учёта регистра) в полях поиска.
func (c *Controller[T]) Filter(query string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]T, 0, len(c.state.Items))
	for _, item := range c.state.Items {
		if c.desc.Matches(item.EditableFields(), query) {
			out = append(out, item)
		}
	}
	return out
}

// reconcile перезагружает список после успешной мутации.
func (c *Controller[T]) reconcile(ctx context.Context) error {
	err := c.Refresh(ctx)
	result := OutcomeOK
	if err != nil {
		result = OutcomeFailed
	}
	reconciliationsTotal.WithLabelValues(c.desc.Name, result).Inc()
	return err
}

// finish сообщает наблюдателям об успешной мутации и оборачивает ошибку перезагрузки.
func (c *Controller[T]) finish(ctx context.Context, op, id string, rerr error) error {
	if rerr == nil {
		c.notify(ctx, Mutation{Operation: op, ItemID: id, Outcome: OutcomeOK})
		return nil
	}

	c.notify(ctx, Mutation{Operation: op, ItemID: id, Outcome: OutcomeStale, ErrorKind: apiclient.KindOf(rerr), Err: rerr})
	return &ReconcileError{Operation: op, ItemID: id, Err: rerr}
}

func (c *Controller[T]) notify(ctx context.Context, m Mutation) {
	m.Resource = c.desc.Name
	for _, h := range c.hooks {
		h(ctx, m)
	}
}

func (c *Controller[T]) setErr(err error) {
	c.mu.Lock()
	c.state.Err = err
	c.mu.Unlock()
}

func (c *Controller[T]) findLocked(id string) (T, bool) {
	for _, item := range c.state.Items {
		if item.ItemID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// newID возвращает идентификатор, которого не было в списке до создания.
// Пусто, если такой не найден или их несколько.
func (c *Controller[T]) newID(known map[string]struct{}) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	found := ""
	for _, item := range c.state.Items {
		if _, ok := known[item.ItemID()]; ok {
			continue
		}
		if found != "" {
			return ""
		}
		found = item.ItemID()
	}
	return found
}

func idSet[T model.Item](items []T) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item.ItemID()] = struct{}{}
	}
	return set
}

// IsValidation сообщает, что ошибка — результат проверки черновика.
func IsValidation(err error) bool {
	var apiErr *apiclient.Error
	return errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindValidation
}
