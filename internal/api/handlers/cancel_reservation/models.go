package cancel_reservation

import (
	"time"

	cancelReservation "github.com/m04kA/SMC-ScheduleService/internal/usecase/cancel_reservation"
)

// CancelReservationRequest модель тела запроса на отмену
type CancelReservationRequest struct {
	Cause  string  `json:"cause"`
	Reason *string `json:"reason,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP-запрос в модель usecase
func (r *CancelReservationRequest) ToUseCaseRequest(reservationID, userID int64) *cancelReservation.Request {
	return &cancelReservation.Request{
		ReservationID: reservationID,
		UserID:        userID,
		Cause:         r.Cause,
		Reason:        r.Reason,
	}
}

// RefundInfoResponse результат обработки возврата в ответе API
// RefundID отсутствует при отказе в возврате
type RefundInfoResponse struct {
	RefundID      int64   `json:"refundId,omitempty"`
	Status        string  `json:"status"`
	Amount        float64 `json:"amount"`
	HoursNotice   float64 `json:"hoursNotice"`
	FailureReason *string `json:"failureReason,omitempty"`
}

// CancellationResponse модель ответа API на отмену
type CancellationResponse struct {
	ReservationID int64               `json:"reservationId"`
	TokenNumber   string              `json:"tokenNumber"`
	Cause         string              `json:"cause"`
	CancelledAt   string              `json:"cancelledAt"`
	HoursNotice   float64             `json:"hoursNotice"`
	Refund        *RefundInfoResponse `json:"refund,omitempty"`
}

// FromUseCaseResponse конвертирует ответ usecase в модель ответа API
func FromUseCaseResponse(resp *cancelReservation.Response) *CancellationResponse {
	out := &CancellationResponse{
		ReservationID: resp.ReservationID,
		TokenNumber:   resp.TokenNumber,
		Cause:         resp.Cause,
		CancelledAt:   resp.CancelledAt.Format(time.RFC3339),
		HoursNotice:   resp.HoursNotice,
	}

	if resp.Refund != nil {
		out.Refund = &RefundInfoResponse{
			RefundID:      resp.Refund.RefundID,
			Status:        resp.Refund.Status,
			Amount:        resp.Refund.Amount,
			HoursNotice:   resp.Refund.HoursNotice,
			FailureReason: resp.Refund.FailureReason,
		}
	}

	return out
}
