package scheduling

import "errors"

var (
	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("provider not found")

	// ErrScheduleNotFound возвращается, когда на день недели нет расписания
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrStaffNotFound возвращается, когда сотрудник не найден
	ErrStaffNotFound = errors.New("staff member not found")

	// ErrInvalidTimezone возвращается при некорректной таймзоне провайдера
	ErrInvalidTimezone = errors.New("invalid provider timezone")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("scheduling service: internal error")
)
