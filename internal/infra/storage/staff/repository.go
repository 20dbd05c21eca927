package staff

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с персоналом провайдеров
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория персонала
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает сотрудника по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.StaffMember, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "provider_id", "name", "is_active", "created_at", "updated_at",
	).
		From("staff_members").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	member, err := scanStaffMember(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrStaffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan staff member: %v", ErrScanRow, err)
	}

	return member, nil
}

// GetActiveByProvider получает активных сотрудников провайдера
func (r *Repository) GetActiveByProvider(ctx context.Context, providerID int64) ([]*domain.StaffMember, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "provider_id", "name", "is_active", "created_at", "updated_at",
	).
		From("staff_members").
		Where(squirrel.Eq{"provider_id": providerID, "is_active": true}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByProvider - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActiveByProvider - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	members := make([]*domain.StaffMember, 0)
	for rows.Next() {
		member, err := scanStaffMember(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: GetActiveByProvider - scan row: %v", ErrScanRow, err)
		}
		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetActiveByProvider - rows error: %v", ErrScanRow, err)
	}

	return members, nil
}

// CountActiveByProvider возвращает количество активных сотрудников провайдера
// Определяет ёмкость общего пула для непривязанных бронирований
func (r *Repository) CountActiveByProvider(ctx context.Context, providerID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("staff_members").
		Where(squirrel.Eq{"provider_id": providerID, "is_active": true}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountActiveByProvider - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountActiveByProvider - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}

// LockForUpdate берет эксклюзивную блокировку строки сотрудника (SELECT ... FOR UPDATE)
// Должен вызываться ТОЛЬКО внутри транзакции
func (r *Repository) LockForUpdate(ctx context.Context, id int64) error {
	if !dbmetrics.IsInTransaction(ctx) {
		return fmt.Errorf("%w: LockForUpdate - must be called inside a transaction", ErrExecQuery)
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id").
		From("staff_members").
		Where(squirrel.Eq{"id": id}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: LockForUpdate - build select query: %v", ErrBuildQuery, err)
	}

	var lockedID int64
	err = executor.QueryRowContext(ctx, query, args...).Scan(&lockedID)
	if err == sql.ErrNoRows {
		return ErrStaffNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: LockForUpdate - execute query: %v", ErrExecQuery, err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanStaffMember(row scanner) (*domain.StaffMember, error) {
	var member domain.StaffMember
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&member.ID,
		&member.ProviderID,
		&member.Name,
		&member.IsActive,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	member.CreatedAt = createdAt.Time
	member.UpdatedAt = updatedAt.Time

	return &member, nil
}
