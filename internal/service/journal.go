package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/hydrosite/internal/apiclient"
	"github.com/bigkaa/hydrosite/internal/repository"
	"github.com/bigkaa/hydrosite/internal/resource"
)

// DefaultMemoryJournalSize — ёмкость журнала в памяти, если PostgreSQL не настроен.
const DefaultMemoryJournalSize = 500

// journalWriteTimeout — таймаут записи в журнал из наблюдателя мутаций.
const journalWriteTimeout = 3 * time.Second

var (
	mutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hs_mutations_total",
		Help: "Общее количество мутаций коллекций по операции и исходу.",
	}, []string{"resource", "operation", "outcome"})
	journalWriteErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hs_journal_write_errors_total",
		Help: "Количество ошибок записи в журнал изменений.",
	})
)

// JournalService — журнал изменений коллекций.
// Хранилище — PostgreSQL (repository.JournalRepository) или MemoryJournal.
type JournalService struct {
	store  repository.JournalRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewJournalService создаёт сервис журнала поверх хранилища store.
func NewJournalService(store repository.JournalRepository, logger *slog.Logger) *JournalService {
	return &JournalService{
		store:  store,
		logger: logger.With(slog.String("component", "journal")),
		now:    time.Now,
	}
}

// Record записывает мутацию в журнал.
func (s *JournalService) Record(ctx context.Context, m resource.Mutation) error {
	entry := &repository.JournalEntry{
		ID:        uuid.NewString(),
		Resource:  m.Resource,
		Operation: m.Operation,
		ItemID:    m.ItemID,
		Outcome:   m.Outcome,
		ErrorKind: string(m.ErrorKind),
		Message:   mutationMessage(m.Err),
		CreatedAt: s.now().UTC(),
	}
	return s.store.Insert(ctx, entry)
}

// MutationHook возвращает наблюдателя мутаций, пишущего в журнал.
// Запись не зависит от отмены контекста запроса; ошибка записи только логируется.
func (s *JournalService) MutationHook() resource.MutationHook {
	return func(ctx context.Context, m resource.Mutation) {
		mutationsTotal.WithLabelValues(m.Resource, m.Operation, m.Outcome).Inc()

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalWriteTimeout)
		defer cancel()

		if err := s.Record(writeCtx, m); err != nil {
			journalWriteErrorsTotal.Inc()
			s.logger.Error("Ошибка записи в журнал изменений",
				slog.String("resource", m.Resource),
				slog.String("operation", m.Operation),
				slog.String("error", err.Error()),
			)
		}
	}
}

// Recent возвращает последние записи журнала (resource == "" — все коллекции).
func (s *JournalService) Recent(ctx context.Context, resourceName string, limit int) ([]repository.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.store.ListRecent(ctx, resourceName, limit)
}

// Summary возвращает количество мутаций по исходам за последние сутки.
func (s *JournalService) Summary(ctx context.Context) (map[string]int, error) {
	return s.store.CountByOutcome(ctx, s.now().Add(-24*time.Hour))
}

// mutationMessage — текст ошибки мутации для журнала.
func mutationMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// MemoryJournal — журнал изменений в памяти с ограниченной ёмкостью.
// Используется, когда PostgreSQL не настроен; при переполнении
// вытесняются самые старые записи.
type MemoryJournal struct {
	mu      sync.RWMutex
	entries []repository.JournalEntry
	limit   int
}

// NewMemoryJournal создаёт журнал в памяти на limit записей.
func NewMemoryJournal(limit int) *MemoryJournal {
	if limit <= 0 {
		limit = DefaultMemoryJournalSize
	}
	return &MemoryJournal{limit: limit}
}

// Insert добавляет запись.
func (j *MemoryJournal) Insert(_ context.Context, e *repository.JournalEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries, *e)
	if over := len(j.entries) - j.limit; over > 0 {
		j.entries = append([]repository.JournalEntry(nil), j.entries[over:]...)
	}
	return nil
}

// ListRecent возвращает последние записи, новые первыми.
func (j *MemoryJournal) ListRecent(_ context.Context, resourceName string, limit int) ([]repository.JournalEntry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []repository.JournalEntry
	for i := len(j.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if resourceName == "" || j.entries[i].Resource == resourceName {
			out = append(out, j.entries[i])
		}
	}
	return out, nil
}

// CountByOutcome возвращает количество записей по исходам начиная с since.
func (j *MemoryJournal) CountByOutcome(_ context.Context, since time.Time) (map[string]int, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	counts := make(map[string]int)
	for _, e := range j.entries {
		if !e.CreatedAt.Before(since) {
			counts[e.Outcome]++
		}
	}
	return counts, nil
}
