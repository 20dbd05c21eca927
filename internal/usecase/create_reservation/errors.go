package create_reservation

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("create_reservation: provider not found")

	// ErrStaffNotFound возвращается, когда сотрудник не найден у провайдера
	ErrStaffNotFound = errors.New("create_reservation: staff member not found")

	// ErrStaffInactive возвращается, когда сотрудник неактивен
	ErrStaffInactive = errors.New("create_reservation: staff member is inactive")

	// ErrProviderNotAvailable возвращается, когда провайдер закрыт в этот день
	ErrProviderNotAvailable = errors.New("create_reservation: provider is not available on this date")

	// ErrOutsideWorkingHours возвращается, когда интервал выходит за рабочие часы
	ErrOutsideWorkingHours = errors.New("create_reservation: requested time is outside working hours")

	// ErrBreakConflict возвращается, когда интервал пересекается с перерывом
	ErrBreakConflict = errors.New("create_reservation: requested time overlaps the break")

	// ErrSlotConflict возвращается при конфликте с существующим бронированием
	ErrSlotConflict = errors.New("create_reservation: slot conflicts with an existing reservation")

	// ErrNoCapacity возвращается, когда все места общего пула заняты
	ErrNoCapacity = errors.New("create_reservation: no capacity left in the provider pool")

	// ErrTooLateToBook возвращается при нарушении минимального времени до начала
	ErrTooLateToBook = errors.New("create_reservation: too late to book this slot")

	// ErrRetriesExhausted возвращается, когда конкуренция не разрешилась за отведенные попытки
	ErrRetriesExhausted = errors.New("create_reservation: concurrent booking retries exhausted")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)

// SlotConflictError конфликт с конкретным бронированием
// Несет номер бронирования, с которым столкнулся запрос
type SlotConflictError struct {
	TokenNumber string
}

func (e *SlotConflictError) Error() string {
	return fmt.Sprintf("%v: token=%s", ErrSlotConflict, e.TokenNumber)
}

// Unwrap позволяет errors.Is(err, ErrSlotConflict)
func (e *SlotConflictError) Unwrap() error {
	return ErrSlotConflict
}
