package repository

import (
	"context"
	"fmt"
	"time"
)

// JournalEntry — запись журнала изменений коллекций.
type JournalEntry struct {
	ID string
	// Resource — имя коллекции backend
	Resource string
	// Operation — create, update, delete
	Operation string
	// ItemID — идентификатор элемента (пусто, если create не удалось сопоставить)
	ItemID string
	// Outcome — ok, failed, invalid, cancelled, stale
	Outcome string
	// ErrorKind — network, server, validation (пусто при успехе)
	ErrorKind string
	// Message — текст ошибки
	Message   string
	CreatedAt time.Time
}

// JournalRepository — интерфейс для таблицы mutation_journal.
type JournalRepository interface {
	// Insert добавляет запись. Пустой CreatedAt заполняется временем БД.
	Insert(ctx context.Context, e *JournalEntry) error
	// ListRecent возвращает последние записи (новые первыми).
	// resource == "" — по всем коллекциям.
	ListRecent(ctx context.Context, resource string, limit int) ([]JournalEntry, error)
	// CountByOutcome возвращает количество записей по исходам начиная с since.
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error)
}

// journalRepo — реализация JournalRepository.
type journalRepo struct {
	db DBTX
}

// NewJournalRepository создаёт репозиторий журнала изменений.
func NewJournalRepository(db DBTX) JournalRepository {
	return &journalRepo{db: db}
}

// Insert добавляет запись журнала.
func (r *journalRepo) Insert(ctx context.Context, e *JournalEntry) error {
	query := `
		INSERT INTO mutation_journal (id, resource, operation, item_id, outcome, error_kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, NOW()))
		RETURNING created_at`

	var createdAt *time.Time
	if !e.CreatedAt.IsZero() {
		createdAt = &e.CreatedAt
	}

	err := r.db.QueryRow(ctx, query,
		e.ID, e.Resource, e.Operation, e.ItemID, e.Outcome, e.ErrorKind, e.Message, createdAt,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка записи в журнал (%s %s): %w", e.Resource, e.Operation, err)
	}
	return nil
}

// ListRecent возвращает последние записи журнала.
func (r *journalRepo) ListRecent(ctx context.Context, resource string, limit int) ([]JournalEntry, error) {
	query := `
		SELECT id, resource, operation, item_id, outcome, error_kind, message, created_at
		FROM mutation_journal
		WHERE ($1 = '' OR resource = $1)
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, resource, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения журнала: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(
			&e.ID, &e.Resource, &e.Operation, &e.ItemID,
			&e.Outcome, &e.ErrorKind, &e.Message, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountByOutcome возвращает количество записей по исходам.
func (r *journalRepo) CountByOutcome(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT outcome, COUNT(*)
		FROM mutation_journal
		WHERE created_at >= $1
		GROUP BY outcome`

	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("ошибка подсчёта журнала: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("ошибка сканирования журнала: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}
