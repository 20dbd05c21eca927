package confirm_reservation

import (
	"github.com/m04kA/SMC-ScheduleService/internal/service/reservations/models"
)

// ConfirmReservationRequest модель тела запроса на подтверждение оплаты
type ConfirmReservationRequest struct {
	OrderRef   string `json:"orderRef"`
	PaymentRef string `json:"paymentRef"`
	Signature  string `json:"signature"`
}

// ToServiceRequest конвертирует HTTP-запрос в модель сервисного слоя
func (r *ConfirmReservationRequest) ToServiceRequest(userID int64) *models.ConfirmReservationRequest {
	return &models.ConfirmReservationRequest{
		UserID:     userID,
		OrderRef:   r.OrderRef,
		PaymentRef: r.PaymentRef,
		Signature:  r.Signature,
	}
}
