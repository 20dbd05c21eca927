package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент платежного шлюза
// Шлюз - внешняя непрозрачная способность: создать заказ, проверить подпись,
// вернуть средства, выплатить провайдеру
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента платежного шлюза
func NewClient(baseURL, apiKey string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// CreateOrder создает заказ на оплату в шлюзе
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency string, metadata map[string]string) (*Order, error) {
	var order Order
	err := c.post(ctx, "/v1/orders", createOrderRequest{
		Amount:   amount,
		Currency: currency,
		Metadata: metadata,
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// VerifySignature проверяет подпись платежа
func (c *Client) VerifySignature(ctx context.Context, orderRef, paymentRef, signature string) (bool, error) {
	var resp verifyResponse
	err := c.post(ctx, "/v1/payments/verify", verifyRequest{
		OrderRef:   orderRef,
		PaymentRef: paymentRef,
		Signature:  signature,
	}, &resp)
	if err != nil {
		return false, err
	}
	return resp.Valid, nil
}

// Refund инициирует возврат средств по платежу
// Ключ идемпотентности защищает от двойного возврата при повторе запроса
func (c *Client) Refund(ctx context.Context, paymentRef string, amount float64) (*RefundResult, error) {
	var result RefundResult
	err := c.post(ctx, "/v1/refunds", refundRequest{
		PaymentRef:     paymentRef,
		Amount:         amount,
		IdempotencyKey: uuid.NewString(),
	}, &result)
	if err != nil {
		return nil, err
	}

	c.log.Info("Refund initiated: payment_ref=%s, amount=%.2f, refund_ref=%s",
		paymentRef, amount, result.RefundRef)
	return &result, nil
}

// Payout инициирует выплату провайдеру
func (c *Client) Payout(ctx context.Context, beneficiary string, amount float64) (*PayoutResult, error) {
	var result PayoutResult
	err := c.post(ctx, "/v1/payouts", payoutRequest{
		Beneficiary: beneficiary,
		Amount:      amount,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Продолжаем обработку
	case http.StatusNotFound:
		return ErrPaymentNotFound
	case http.StatusUnprocessableEntity:
		var gwErr ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&gwErr); err == nil && gwErr.Message != "" {
			return fmt.Errorf("%w: %s", ErrRefundRejected, gwErr.Message)
		}
		return ErrRefundRejected
	default:
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return nil
}
