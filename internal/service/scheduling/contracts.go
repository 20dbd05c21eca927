package scheduling

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetByProviderAndWeekday(ctx context.Context, providerID int64, weekday time.Weekday) (*domain.Schedule, error)
	GetAllByProvider(ctx context.Context, providerID int64) ([]*domain.Schedule, error)
}

// StaffRepository интерфейс репозитория сотрудников
type StaffRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.StaffMember, error)
	GetActiveByProvider(ctx context.Context, providerID int64) ([]*domain.StaffMember, error)
}

// ReservationRepository интерфейс реестра бронирований
// GetOverlapping внутри транзакции блокирует строки (FOR UPDATE)
type ReservationRepository interface {
	GetOverlapping(ctx context.Context, providerID int64, from, to time.Time) ([]*domain.Reservation, error)
}

// ScheduleCache read-through кэш расписаний и персонала
// Используется только на пути чтения; может отсутствовать (nil)
type ScheduleCache interface {
	GetSchedules(ctx context.Context, providerID int64) ([]*domain.Schedule, bool)
	SetSchedules(ctx context.Context, providerID int64, schedules []*domain.Schedule)
	GetStaff(ctx context.Context, providerID int64) ([]*domain.StaffMember, bool)
	SetStaff(ctx context.Context, providerID int64, members []*domain.StaffMember)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Policy политики планирования, влияющие на вычисление окон
type Policy struct {
	Buffer          time.Duration // пауза до/после бронирования
	SlotStep        time.Duration // шаг дискретизации окон для выдачи
	DefaultDuration time.Duration // fallback длительности услуги
}
