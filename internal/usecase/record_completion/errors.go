package record_completion

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("record_completion: reservation not found")

	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("record_completion: provider not found")

	// ErrAccessDenied возвращается, когда пользователь не менеджер провайдера
	ErrAccessDenied = errors.New("record_completion: access denied")

	// ErrNotCompletable возвращается, когда бронирование нельзя завершить
	ErrNotCompletable = errors.New("record_completion: reservation cannot be completed")

	// ErrInvalidActualEnd возвращается, когда фактическое окончание раньше начала
	ErrInvalidActualEnd = errors.New("record_completion: actual end is before reservation start")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("record_completion: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("record_completion: internal error")
)
