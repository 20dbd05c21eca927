package record_completion

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/internal/integrations/notifier"
)

// ReservationRepository интерфейс реестра бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Complete(ctx context.Context, id int64, actualEndsAt time.Time) error
	GetStartingBetween(ctx context.Context, providerID int64, after, until time.Time) ([]*domain.Reservation, error)
	Reschedule(ctx context.Context, id int64, newStart, newEnd time.Time, reason string, rescheduledFromID int64) error
}

// ProviderRepository интерфейс репозитория провайдеров
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
	LockForUpdate(ctx context.Context, id int64) error
}

// SchedulingService сервис поиска окон при переносе
type SchedulingService interface {
	FindEarliestSlot(ctx context.Context, provider *domain.Provider, staffMemberID *int64, durationMinutes int, notBefore time.Time, horizonDays int, excludeReservationID *int64) (time.Time, bool, error)
}

// NotifierClient интерфейс клиента уведомлений
// Уведомления best-effort и отправляются после фиксации транзакции
type NotifierClient interface {
	NotifySafe(ctx context.Context, phone string, kind notifier.NotificationKind, payload map[string]string) bool
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
