package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// ReservationRepository интерфейс реестра бронирований
// GetOverlapping внутри транзакции блокирует строки (FOR UPDATE)
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	GetOverlapping(ctx context.Context, providerID int64, from, to time.Time) ([]*domain.Reservation, error)
}

// ProviderRepository интерфейс репозитория провайдеров
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
	LockForUpdate(ctx context.Context, id int64) error
}

// StaffRepository интерфейс репозитория сотрудников
type StaffRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.StaffMember, error)
	CountActiveByProvider(ctx context.Context, providerID int64) (int, error)
	LockForUpdate(ctx context.Context, id int64) error
}

// ScheduleRepository интерфейс репозитория расписаний
// Путь записи читает расписание напрямую из БД, минуя кэш
type ScheduleRepository interface {
	GetByProviderAndWeekday(ctx context.Context, providerID int64, weekday time.Weekday) (*domain.Schedule, error)
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
