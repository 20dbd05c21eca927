package create_reservation

import (
	"time"

	createReservation "github.com/m04kA/SMC-ScheduleService/internal/usecase/create_reservation"
)

// CreateReservationRequest HTTP request model
type CreateReservationRequest struct {
	ProviderID      int64   `json:"providerId"`
	StaffMemberID   *int64  `json:"staffMemberId,omitempty"` // nil - общий пул
	ClientPhone     string  `json:"clientPhone"`
	ServiceName     string  `json:"serviceName"`
	ServicePrice    float64 `json:"servicePrice"`
	DurationMinutes int     `json:"durationMinutes"`
	StartsAt        string  `json:"startsAt"` // RFC3339, например "2025-10-15T10:00:00+03:00"
	Notes           *string `json:"notes,omitempty"`
}

// ReservationResponse HTTP response model
type ReservationResponse struct {
	ID              int64   `json:"id"`
	TokenNumber     string  `json:"tokenNumber"`
	ProviderID      int64   `json:"providerId"`
	StaffMemberID   *int64  `json:"staffMemberId,omitempty"`
	ClientID        int64   `json:"clientId"`
	StartsAt        string  `json:"startsAt"`
	EndsAt          string  `json:"endsAt"`
	Status          string  `json:"status"`
	PaymentStatus   string  `json:"paymentStatus"`
	ServiceName     string  `json:"serviceName"`
	ServicePrice    float64 `json:"servicePrice"`
	DurationMinutes int     `json:"durationMinutes"`
	Notes           *string `json:"notes,omitempty"`
	CreatedAt       string  `json:"createdAt"`
}

// ConflictResponse тело ответа при конфликте слота
type ConflictResponse struct {
	Error         string `json:"error"`
	ConflictToken string `json:"conflictToken,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateReservationRequest) ToUseCaseRequest(clientID int64) (*createReservation.Request, error) {
	startsAt, err := time.Parse(time.RFC3339, r.StartsAt)
	if err != nil {
		return nil, err
	}

	return &createReservation.Request{
		ClientID:        clientID,
		ClientPhone:     r.ClientPhone,
		ProviderID:      r.ProviderID,
		StaffMemberID:   r.StaffMemberID,
		ServiceName:     r.ServiceName,
		ServicePrice:    r.ServicePrice,
		DurationMinutes: r.DurationMinutes,
		StartsAt:        startsAt,
		Notes:           r.Notes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createReservation.Response) *ReservationResponse {
	return &ReservationResponse{
		ID:              resp.ID,
		TokenNumber:     resp.TokenNumber,
		ProviderID:      resp.ProviderID,
		StaffMemberID:   resp.StaffMemberID,
		ClientID:        resp.ClientID,
		StartsAt:        resp.StartsAt.Format(time.RFC3339),
		EndsAt:          resp.EndsAt.Format(time.RFC3339),
		Status:          resp.Status,
		PaymentStatus:   resp.PaymentStatus,
		ServiceName:     resp.ServiceName,
		ServicePrice:    resp.ServicePrice,
		DurationMinutes: resp.DurationMinutes,
		Notes:           resp.Notes,
		CreatedAt:       resp.CreatedAt.Format(time.RFC3339),
	}
}
