package domain

import "errors"

// Политики планирования по умолчанию (переопределяются в config.toml)
const (
	DefaultBufferMinutes            = 5  // пауза до/после бронирования
	DefaultMinLeadTimeMinutes       = 60 // бронирование не раньше, чем через час
	DefaultOvertimeToleranceMinutes = 5  // допуск переработки до запуска переносов
	DefaultRescheduleHorizonDays    = 14 // горизонт поиска окна при переносе
	DefaultSlotStepMinutes          = 15 // шаг дискретизации окон (только для выдачи)
	DefaultDurationMinutes          = 30 // fallback длительности для legacy-строк без duration
)

// MinRefundNoticeHours минимальный notice period для возврата при отмене клиентом
const MinRefundNoticeHours = 1.0

// Валидационные константы
const (
	MinDurationMinutes          = 5
	MaxDurationMinutes          = 480 // 8 часов
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
)

// Форматы даты и времени
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// RescheduledOvertimeReason причина переноса, записываемая в аудит
const RescheduledOvertimeReason = "Previous appointment ran overtime"

// ActiveStatuses статусы, занимающие время в реестре
// Используются при подсчете конфликтов
var ActiveStatuses = []ReservationStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}

// InactiveStatuses статусы, не занимающие время в реестре
var InactiveStatuses = []ReservationStatus{
	StatusCancelled,
}

// KnownCancellationCauses допустимые причины отмены
var KnownCancellationCauses = []CancellationCause{
	CauseProviderCancelled,
	CauseExcessiveWait,
	CauseCustomerAdvance,
}

// IsKnownCause проверяет, что причина отмены допустима
func IsKnownCause(cause CancellationCause) bool {
	for _, c := range KnownCancellationCauses {
		if c == cause {
			return true
		}
	}
	return false
}

// ErrInvalidSchedule возвращается при нарушении инвариантов расписания
var ErrInvalidSchedule = errors.New("domain: invalid schedule")
