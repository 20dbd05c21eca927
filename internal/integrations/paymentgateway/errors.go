package paymentgateway

import "errors"

var (
	// ErrRefundRejected возвращается, когда шлюз отклонил возврат
	ErrRefundRejected = errors.New("paymentgateway client: refund rejected")

	// ErrPaymentNotFound возвращается, когда шлюз не знает такой платеж
	ErrPaymentNotFound = errors.New("paymentgateway client: payment not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paymentgateway client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от шлюза
	ErrInvalidResponse = errors.New("paymentgateway client: invalid response")
)
