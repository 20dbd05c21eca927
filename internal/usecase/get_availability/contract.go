package get_availability

import (
	"context"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	schedModels "github.com/m04kA/SMC-ScheduleService/internal/service/scheduling/models"
)

// ProviderRepository интерфейс репозитория провайдеров
type ProviderRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Provider, error)
}

// SchedulingService сервис вычисления доступности
type SchedulingService interface {
	DayAvailability(ctx context.Context, provider *domain.Provider, date time.Time, durationMinutes int, excludeReservationID *int64) (*schedModels.DayAvailability, error)
	DiscretizeWindows(windows []domain.Interval, durationMinutes int) []time.Time
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
