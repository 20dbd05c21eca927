package domain

import "time"

// Payment платеж по бронированию (1:1 с оплаченным бронированием)
type Payment struct {
	ID            int64
	ReservationID int64
	OrderRef      string // идентификатор заказа в платежном шлюзе
	PaymentRef    string // идентификатор платежа в платежном шлюзе
	Amount        float64
	Currency      string
	Status        PaymentStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RefundStatus статус возврата средств
type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
)

// Refund возврат средств по платежу
// Строка создается в статусе processing ДО вызова шлюза, чтобы попытка
// была долговечной даже при падении процесса посреди вызова.
// Инвариант: не более одного completed возврата на платеж.
type Refund struct {
	ID        int64
	PaymentID int64
	Amount    float64
	// Часы между отменой и исходным временем бронирования
	// (знаковое число, отрицательное при отмене после начала)
	HoursNotice     float64
	Cause           CancellationCause
	Status          RefundStatus
	GatewayRefundID *string
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsTerminal возвращает true для терминальных статусов возврата
func (r *Refund) IsTerminal() bool {
	return r.Status == RefundCompleted || r.Status == RefundFailed
}

// RefundEligible решает, положен ли возврат
// provider_cancelled и excessive_wait - возврат всегда, независимо от notice;
// customer_cancelled_advance - только при notice не менее MinRefundNoticeHours
func RefundEligible(cause CancellationCause, hoursNotice float64) bool {
	switch cause {
	case CauseProviderCancelled, CauseExcessiveWait:
		return true
	case CauseCustomerAdvance:
		return hoursNotice >= MinRefundNoticeHours
	default:
		return false
	}
}

// HoursNotice вычисляет notice period в часах
func HoursNotice(appointmentStart, cancelledAt time.Time) float64 {
	return appointmentStart.Sub(cancelledAt).Hours()
}
