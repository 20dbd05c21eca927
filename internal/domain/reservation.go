package domain

import (
	"time"
)

// ReservationStatus статус бронирования
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

// PaymentStatus статус оплаты бронирования
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// CancellationCause причина отмены бронирования
// От причины зависит право на возврат средств
type CancellationCause string

const (
	CauseProviderCancelled CancellationCause = "provider_cancelled"
	CauseExcessiveWait     CancellationCause = "excessive_wait"
	CauseCustomerAdvance   CancellationCause = "customer_cancelled_advance"
)

// Reservation бронирование - строка в реестре (ledger)
// Единственный источник истины для проверки конфликтов
type Reservation struct {
	ID          int64
	TokenNumber string // человекочитаемый уникальный номер, например "R-7F3A21C4"
	ProviderID  int64
	// nil = бронирование не привязано к конкретному сотруднику
	// и занимает место в общем пуле провайдера
	StaffMemberID *int64
	ClientID      int64
	ClientPhone   string

	// Денормализованные данные услуги (каталог услуг - внешний;
	// длительность обязательна при создании и никогда не выводится заново)
	ServiceName     string
	ServicePrice    float64
	DurationMinutes int

	StartsAt time.Time
	EndsAt   time.Time // всегда персистится, никогда не вычисляется ad hoc

	Status        ReservationStatus
	PaymentStatus PaymentStatus

	// Аудит переносов из-за переработки
	WasRescheduled    bool
	OriginalStartsAt  *time.Time
	RescheduledReason *string
	RescheduledFromID *int64

	// Отмена
	CancellationCause  *CancellationCause
	CancellationReason *string
	CancelledAt        *time.Time

	// Фактическое окончание обслуживания (устанавливается при завершении)
	ActualEndsAt *time.Time

	Notes *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive возвращает true, если бронирование занимает время в реестре
func (r *Reservation) IsActive() bool {
	return r.Status != StatusCancelled
}

// IsAssigned проверяет, привязано ли бронирование к конкретному сотруднику
func (r *Reservation) IsAssigned() bool {
	return r.StaffMemberID != nil
}

// CanBeCancelled возвращает true, если бронирование можно отменить
func (r *Reservation) CanBeCancelled() bool {
	return r.Status == StatusPending || r.Status == StatusConfirmed
}

// CanBeCompleted возвращает true, если можно зафиксировать фактическое завершение
func (r *Reservation) CanBeCompleted() bool {
	return r.Status == StatusConfirmed || r.Status == StatusPending
}

// IsPaid возвращает true, если бронирование оплачено
func (r *Reservation) IsPaid() bool {
	return r.PaymentStatus == PaymentPaid
}

// Interval возвращает занимаемый интервал [StartsAt, EndsAt)
func (r *Reservation) Interval() Interval {
	return Interval{Start: r.StartsAt, End: r.EndsAt}
}

// BlockedInterval возвращает интервал с учетом буфера с обеих сторон
func (r *Reservation) BlockedInterval(buffer time.Duration) Interval {
	return r.Interval().Pad(buffer)
}

// ConflictsWith проверяет конфликт ресурсов двух бронирований:
// общее время (с буфером) и общий сотрудник либо оба в пуле провайдера
func (r *Reservation) ConflictsWith(other *Reservation, buffer time.Duration) bool {
	if !r.BlockedInterval(buffer).Overlaps(other.Interval()) {
		return false
	}
	// Непривязанное бронирование конкурирует с любым местом в пуле,
	// привязанные - только между собой за одного сотрудника
	if !r.IsAssigned() || !other.IsAssigned() {
		return true
	}
	return *r.StaffMemberID == *other.StaffMemberID
}

// ReservationsFilter фильтр реестра бронирований
type ReservationsFilter struct {
	ProviderID      int64
	StaffMemberID   *int64             // nil - все сотрудники
	From            *time.Time         // начало периода по starts_at
	To              *time.Time         // конец периода по starts_at (исключительно)
	Status          *ReservationStatus // фильтр по статусу
	IncludeInactive bool               // включать отмененные
}
