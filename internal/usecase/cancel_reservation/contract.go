package cancel_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ScheduleService/internal/integrations/paymentgateway"
)

// ReservationRepository интерфейс реестра бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Cancel(ctx context.Context, id int64, cause domain.CancellationCause, reason string, cancelledAt time.Time) error
}

// ProviderRepository интерфейс репозитория провайдеров
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// PaymentRepository интерфейс репозитория платежей и возвратов
type PaymentRepository interface {
	GetPaymentByReservationID(ctx context.Context, reservationID int64) (*domain.Payment, error)
	CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	CompleteRefund(ctx context.Context, id int64, gatewayRefundID string) error
	FailRefund(ctx context.Context, id int64, reason string) error
	HasCompletedRefund(ctx context.Context, paymentID int64) (bool, error)
}

// PaymentGateway интерфейс клиента платежного шлюза
type PaymentGateway interface {
	Refund(ctx context.Context, paymentRef string, amount float64) (*paymentgateway.RefundResult, error)
}

// NotifierClient интерфейс клиента уведомлений
type NotifierClient interface {
	NotifySafe(ctx context.Context, phone string, kind notifier.NotificationKind, payload map[string]string) bool
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
