package cancel_reservation

import (
	"time"
)

// Request модель запроса на отмену бронирования
type Request struct {
	ReservationID int64   // ID бронирования
	UserID        int64   // ID инициатора отмены
	Cause         string  // Причина отмены (см. domain.CancellationCause)
	Reason        *string // Свободный комментарий (опционально)
}

// RefundInfo результат обработки возврата средств
type RefundInfo struct {
	RefundID    int64   // ID строки возврата; 0 при отказе (строка не создается)
	Status      string  // processing / completed / failed / rejected
	Amount      float64 // Сумма возврата
	HoursNotice float64 // Notice period в часах (знаковое)
	// Причина отказа; заполняется при status=failed или rejected
	FailureReason *string
}

// Response модель ответа с результатом отмены
type Response struct {
	ReservationID int64     // ID отмененного бронирования
	TokenNumber   string    // Номер бронирования
	Cause         string    // Причина отмены
	CancelledAt   time.Time // Время отмены
	HoursNotice   float64   // Notice period в часах на момент отмены

	// Возврат средств; nil - бронирование не было оплачено
	Refund *RefundInfo
}
