package reservations

import "errors"

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrProviderNotFound возвращается, когда провайдер не найден
	ErrProviderNotFound = errors.New("provider not found")

	// ErrPaymentNotFound возвращается, когда платеж по бронированию не найден
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrAccessDenied возвращается, когда у пользователя нет прав доступа
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidSignature возвращается, когда шлюз не подтвердил подпись платежа
	ErrInvalidSignature = errors.New("invalid payment signature")

	// ErrAlreadyConfirmed возвращается при повторном подтверждении оплаты
	ErrAlreadyConfirmed = errors.New("reservation already confirmed")

	// ErrNotConfirmable возвращается, когда бронирование нельзя подтвердить
	ErrNotConfirmable = errors.New("reservation cannot be confirmed")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
