package record_completion

import (
	"time"
)

// Request модель запроса на фиксацию фактического завершения
type Request struct {
	ReservationID int64      // ID бронирования
	UserID        int64      // ID менеджера провайдера
	ActualEndsAt  *time.Time // Фактическое окончание (nil - текущее время)
}

// RescheduledItem перенесенное бронирование
type RescheduledItem struct {
	ReservationID int64     // ID бронирования
	TokenNumber   string    // Номер бронирования
	OldStartsAt   time.Time // Исходное время начала
	NewStartsAt   time.Time // Новое время начала
	Notified      bool      // Было ли доставлено уведомление
}

// Response модель ответа с результатом завершения
type Response struct {
	ReservationID   int64     // ID завершенного бронирования
	TokenNumber     string    // Номер бронирования
	ActualEndsAt    time.Time // Зафиксированное фактическое окончание
	OvertimeMinutes float64   // Переработка в минутах (может быть отрицательной)

	// Результат каскада переносов; каскад запускается только
	// при переработке сверх допуска
	CascadeTriggered bool
	RescheduledCount int
	UnresolvedCount  int
	Rescheduled      []RescheduledItem
}
