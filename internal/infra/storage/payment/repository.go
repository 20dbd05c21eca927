package payment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ScheduleService/pkg/psqlbuilder"
)

// Repository репозиторий для работы с платежами и возвратами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// CreatePayment создает платеж по бронированию
func (r *Repository) CreatePayment(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns("reservation_id", "order_ref", "payment_ref", "amount", "currency", "status").
		Values(p.ReservationID, p.OrderRef, p.PaymentRef, p.Amount, p.Currency, p.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreatePayment - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: CreatePayment - execute insert: %v", ErrExecQuery, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return p, nil
}

// GetPaymentByReservationID получает платеж по ID бронирования
func (r *Repository) GetPaymentByReservationID(ctx context.Context, reservationID int64) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "reservation_id", "order_ref", "payment_ref", "amount", "currency", "status", "created_at", "updated_at",
	).
		From("payments").
		Where(squirrel.Eq{"reservation_id": reservationID}).
		OrderBy("id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPaymentByReservationID - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Payment
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.ReservationID,
		&p.OrderRef,
		&p.PaymentRef,
		&p.Amount,
		&p.Currency,
		&p.Status,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetPaymentByReservationID - scan payment: %v", ErrScanRow, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}

// UpdatePaymentStatus обновляет статус платежа
func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("payments").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdatePaymentStatus - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrPaymentNotFound
	}

	return nil
}

// CreateRefund создает строку возврата
// Строка создается в статусе processing ДО вызова платежного шлюза:
// попытка возврата долговечна даже при падении процесса посреди вызова
func (r *Repository) CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("refunds").
		Columns("payment_id", "amount", "hours_notice", "cause", "status").
		Values(refund.PaymentID, refund.Amount, refund.HoursNotice, refund.Cause, refund.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRefund - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&refund.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRefund - execute insert: %v", ErrExecQuery, err)
	}

	refund.CreatedAt = createdAt.Time
	refund.UpdatedAt = updatedAt.Time

	return refund, nil
}

// CompleteRefund переводит возврат в терминальный статус completed
func (r *Repository) CompleteRefund(ctx context.Context, id int64, gatewayRefundID string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("refunds").
		Set("status", domain.RefundCompleted).
		Set("gateway_refund_id", gatewayRefundID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: CompleteRefund - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRefund(ctx, executor, query, args, "CompleteRefund")
}

// FailRefund переводит возврат в терминальный статус failed с причиной
// Причина сохраняется дословно для разбора поддержкой
func (r *Repository) FailRefund(ctx context.Context, id int64, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("refunds").
		Set("status", domain.RefundFailed).
		Set("failure_reason", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: FailRefund - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRefund(ctx, executor, query, args, "FailRefund")
}

// GetRefundByID получает возврат по ID
func (r *Repository) GetRefundByID(ctx context.Context, id int64) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id", "payment_id", "amount", "hours_notice", "cause", "status",
		"gateway_refund_id", "failure_reason", "created_at", "updated_at",
	).
		From("refunds").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetRefundByID - build select query: %v", ErrBuildQuery, err)
	}

	var refund domain.Refund
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&refund.ID,
		&refund.PaymentID,
		&refund.Amount,
		&refund.HoursNotice,
		&refund.Cause,
		&refund.Status,
		&refund.GatewayRefundID,
		&refund.FailureReason,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRefundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetRefundByID - scan refund: %v", ErrScanRow, err)
	}

	refund.CreatedAt = createdAt.Time
	refund.UpdatedAt = updatedAt.Time

	return &refund, nil
}

// HasCompletedRefund проверяет инвариант "не более одного completed возврата на платеж"
func (r *Repository) HasCompletedRefund(ctx context.Context, paymentID int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("refunds").
		Where(squirrel.Eq{"payment_id": paymentID, "status": domain.RefundCompleted}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasCompletedRefund - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: HasCompletedRefund - scan count: %v", ErrScanRow, err)
	}

	return count > 0, nil
}

func (r *Repository) execExpectingRefund(ctx context.Context, executor DBExecutor, query string, args []interface{}, op string) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrRefundNotFound
	}

	return nil
}
