package record_completion

import (
	"fmt"
	"time"

	recordCompletion "github.com/m04kA/SMC-ScheduleService/internal/usecase/record_completion"
	"github.com/m04kA/SMC-ScheduleService/pkg/ptr"
)

// RecordCompletionRequest модель тела запроса на фиксацию завершения
type RecordCompletionRequest struct {
	// Фактическое окончание в RFC3339; пустое - текущее время сервера
	ActualEndsAt *string `json:"actualEndsAt,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP-запрос в модель usecase
func (r *RecordCompletionRequest) ToUseCaseRequest(reservationID, userID int64) (*recordCompletion.Request, error) {
	req := &recordCompletion.Request{
		ReservationID: reservationID,
		UserID:        userID,
	}

	if r.ActualEndsAt != nil && *r.ActualEndsAt != "" {
		actualEnd, err := time.Parse(time.RFC3339, *r.ActualEndsAt)
		if err != nil {
			return nil, fmt.Errorf("invalid actualEndsAt format: %w", err)
		}
		req.ActualEndsAt = &actualEnd
	}

	return req, nil
}

// RescheduledItemResponse перенесенное бронирование в ответе API
type RescheduledItemResponse struct {
	ReservationID int64   `json:"reservationId"`
	TokenNumber   string  `json:"tokenNumber"`
	OldStartsAt   string  `json:"oldStartsAt"`
	NewStartsAt   *string `json:"newStartsAt"`
	Notified      bool    `json:"notified"`
}

// CompletionResponse модель ответа API на фиксацию завершения
type CompletionResponse struct {
	ReservationID    int64                     `json:"reservationId"`
	TokenNumber      string                    `json:"tokenNumber"`
	ActualEndsAt     string                    `json:"actualEndsAt"`
	OvertimeMinutes  float64                   `json:"overtimeMinutes"`
	CascadeTriggered bool                      `json:"cascadeTriggered"`
	RescheduledCount int                       `json:"rescheduledCount"`
	UnresolvedCount  int                       `json:"unresolvedCount"`
	Rescheduled      []RescheduledItemResponse `json:"rescheduled"`
}

// FromUseCaseResponse конвертирует ответ usecase в модель ответа API
func FromUseCaseResponse(resp *recordCompletion.Response) *CompletionResponse {
	out := &CompletionResponse{
		ReservationID:    resp.ReservationID,
		TokenNumber:      resp.TokenNumber,
		ActualEndsAt:     resp.ActualEndsAt.Format(time.RFC3339),
		OvertimeMinutes:  resp.OvertimeMinutes,
		CascadeTriggered: resp.CascadeTriggered,
		RescheduledCount: resp.RescheduledCount,
		UnresolvedCount:  resp.UnresolvedCount,
		Rescheduled:      make([]RescheduledItemResponse, 0, len(resp.Rescheduled)),
	}

	for _, item := range resp.Rescheduled {
		entry := RescheduledItemResponse{
			ReservationID: item.ReservationID,
			TokenNumber:   item.TokenNumber,
			OldStartsAt:   item.OldStartsAt.Format(time.RFC3339),
			Notified:      item.Notified,
		}
		// Нулевое время - перенос не удался, слот не найден
		if !item.NewStartsAt.IsZero() {
			entry.NewStartsAt = ptr.Ptr(item.NewStartsAt.Format(time.RFC3339))
		}
		out.Rescheduled = append(out.Rescheduled, entry)
	}

	return out
}
