package record_completion

import (
	"context"

	recordCompletion "github.com/m04kA/SMC-ScheduleService/internal/usecase/record_completion"
)

type RecordCompletionUseCase interface {
	Execute(ctx context.Context, req *recordCompletion.Request) (*recordCompletion.Response, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
