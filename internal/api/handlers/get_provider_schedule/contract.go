package get_provider_schedule

import (
	"context"

	"github.com/m04kA/SMC-ScheduleService/internal/service/schedules/models"
)

type ScheduleService interface {
	GetProviderSchedule(ctx context.Context, providerID int64) (*models.WeeklyScheduleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
