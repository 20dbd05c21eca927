package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
}

// Client клиент сервиса уведомлений
// Уведомления best-effort: неудача логируется и никогда не блокирует
// основную операцию (перенос, отмену, возврат)
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента уведомлений
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Notify отправляет уведомление клиенту по телефону
// Возвращает признак доставки; ошибки транспорта не фатальны
func (c *Client) Notify(ctx context.Context, phone string, kind NotificationKind, payload map[string]string) (bool, error) {
	body, err := json.Marshal(notifyRequest{
		Phone:   phone,
		Kind:    kind,
		Payload: payload,
	})
	if err != nil {
		return false, fmt.Errorf("%w: failed to marshal request: %v", ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/notifications", bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return false, fmt.Errorf("%w: unexpected status code %d", ErrInvalidResponse, resp.StatusCode)
	}

	var out notifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	return out.Delivered, nil
}

// NotifySafe отправляет уведомление, превращая любую ошибку в warning
// Используется из каскадов переносов и отмен, где сбой нотификации
// не должен влиять на исход операции
func (c *Client) NotifySafe(ctx context.Context, phone string, kind NotificationKind, payload map[string]string) bool {
	delivered, err := c.Notify(ctx, phone, kind, payload)
	if err != nil {
		c.log.Warn("notifier: failed to send %s to %s: %v", kind, phone, err)
		return false
	}
	if !delivered {
		c.log.Warn("notifier: notification %s to %s was not delivered", kind, phone)
	}
	return delivered
}
