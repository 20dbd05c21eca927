package schedules

import (
	"context"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// ScheduleRepository интерфейс репозитория расписаний
type ScheduleRepository interface {
	GetAllByProvider(ctx context.Context, providerID int64) ([]*domain.Schedule, error)
	Upsert(ctx context.Context, sched *domain.Schedule) (*domain.Schedule, error)
}

// ProviderRepository интерфейс репозитория провайдеров
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// StaffRepository интерфейс репозитория сотрудников
type StaffRepository interface {
	GetActiveByProvider(ctx context.Context, providerID int64) ([]*domain.StaffMember, error)
}

// ScheduleCache кэш расписаний для инвалидации при изменениях
type ScheduleCache interface {
	InvalidateProvider(ctx context.Context, providerID int64)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
