package paymentgateway

// Order заказ, созданный в платежном шлюзе
type Order struct {
	OrderRef string  `json:"orderRef"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// RefundResult результат возврата средств
type RefundResult struct {
	RefundRef string `json:"refundRef"`
}

// PayoutResult результат выплаты провайдеру
type PayoutResult struct {
	PayoutRef string `json:"payoutRef"`
}

// createOrderRequest тело запроса на создание заказа
type createOrderRequest struct {
	Amount   float64           `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// verifyRequest тело запроса на проверку подписи платежа
type verifyRequest struct {
	OrderRef   string `json:"orderRef"`
	PaymentRef string `json:"paymentRef"`
	Signature  string `json:"signature"`
}

// verifyResponse ответ проверки подписи
type verifyResponse struct {
	Valid bool `json:"valid"`
}

// refundRequest тело запроса на возврат
type refundRequest struct {
	PaymentRef     string  `json:"paymentRef"`
	Amount         float64 `json:"amount"`
	IdempotencyKey string  `json:"idempotencyKey"`
}

// payoutRequest тело запроса на выплату
type payoutRequest struct {
	Beneficiary string  `json:"beneficiary"`
	Amount      float64 `json:"amount"`
}

// ErrorResponse модель ошибки от шлюза
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
