package schedule

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с недельным расписанием провайдеров
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

const scheduleColumns = "id, provider_id, weekday, start_time, end_time, break_start, break_end, is_available, created_at, updated_at"

// GetByProviderAndWeekday получает расписание провайдера на день недели
func (r *Repository) GetByProviderAndWeekday(ctx context.Context, providerID int64, weekday time.Weekday) (*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "provider_id", "weekday", "start_time", "end_time",
		"break_start", "break_end", "is_available", "created_at", "updated_at",
	).
		From("schedules").
		Where(squirrel.Eq{"provider_id": providerID, "weekday": int(weekday)}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderAndWeekday - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	sched, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByProviderAndWeekday - scan schedule: %v", ErrScanRow, err)
	}

	return sched, nil
}

// GetAllByProvider получает расписание провайдера на всю неделю
func (r *Repository) GetAllByProvider(ctx context.Context, providerID int64) ([]*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "provider_id", "weekday", "start_time", "end_time",
		"break_start", "break_end", "is_available", "created_at", "updated_at",
	).
		From("schedules").
		Where(squirrel.Eq{"provider_id": providerID}).
		OrderBy("weekday ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAllByProvider - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAllByProvider - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	schedules := make([]*domain.Schedule, 0, 7)
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetAllByProvider - scan row: %v", ErrScanRow, err)
		}
		schedules = append(schedules, sched)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAllByProvider - rows error: %v", ErrScanRow, err)
	}

	return schedules, nil
}

// Upsert создает или заменяет расписание на день недели
// Инвариант "не более одной строки на (provider_id, weekday)" обеспечивается
// уникальным индексом + ON CONFLICT DO UPDATE; строки никогда не удаляются посреди дня,
// только заменяются
func (r *Repository) Upsert(ctx context.Context, sched *domain.Schedule) (*domain.Schedule, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("schedules").
		Columns("provider_id", "weekday", "start_time", "end_time", "break_start", "break_end", "is_available").
		Values(
			sched.ProviderID,
			int(sched.Weekday),
			sched.StartTime,
			sched.EndTime,
			sched.BreakStart,
			sched.BreakEnd,
			sched.IsAvailable,
		).
		Suffix(`ON CONFLICT (provider_id, weekday) DO UPDATE SET
			start_time = EXCLUDED.start_time,
			end_time = EXCLUDED.end_time,
			break_start = EXCLUDED.break_start,
			break_end = EXCLUDED.break_end,
			is_available = EXCLUDED.is_available,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&sched.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Upsert - execute insert: %v", ErrExecQuery, err)
	}

	sched.CreatedAt = createdAt.Time
	sched.UpdatedAt = updatedAt.Time

	return sched, nil
}

// scanner общий интерфейс для *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSchedule(row scanner) (*domain.Schedule, error) {
	var sched domain.Schedule
	var weekday int
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&sched.ID,
		&sched.ProviderID,
		&weekday,
		&sched.StartTime,
		&sched.EndTime,
		&sched.BreakStart,
		&sched.BreakEnd,
		&sched.IsAvailable,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sched.Weekday = time.Weekday(weekday)
	sched.CreatedAt = createdAt.Time
	sched.UpdatedAt = updatedAt.Time

	return &sched, nil
}
