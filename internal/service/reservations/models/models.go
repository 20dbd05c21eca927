package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/pkg/ptr"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid reservation status")
)

// Request модели

// GetClientReservationsRequest запрос на получение бронирований клиента
type GetClientReservationsRequest struct {
	ClientID int64   `json:"clientId"`
	Status   *string `json:"status,omitempty"`
}

// GetProviderReservationsRequest запрос на получение бронирований провайдера
type GetProviderReservationsRequest struct {
	UserID          int64      `json:"userId"`
	ProviderID      int64      `json:"providerId"`
	StaffMemberID   *int64     `json:"staffMemberId,omitempty"`   // Фильтр по сотруднику (опционально)
	From            *time.Time `json:"from,omitempty"`            // Начало периода (опционально)
	To              *time.Time `json:"to,omitempty"`              // Конец периода, исключительно (опционально)
	Status          *string    `json:"status,omitempty"`          // Фильтр по статусу (опционально)
	IncludeInactive bool       `json:"includeInactive,omitempty"` // Включить отменённые бронирования
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *GetProviderReservationsRequest) ToDomainFilter() (domain.ReservationsFilter, error) {
	filter := domain.ReservationsFilter{
		ProviderID:      r.ProviderID,
		StaffMemberID:   r.StaffMemberID,
		From:            r.From,
		To:              r.To,
		IncludeInactive: r.IncludeInactive,
	}

	if r.Status != nil {
		status, err := ToDomainReservationStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// ConfirmReservationRequest запрос на подтверждение оплаты бронирования
type ConfirmReservationRequest struct {
	UserID     int64  `json:"userId"`
	OrderRef   string `json:"orderRef"`
	PaymentRef string `json:"paymentRef"`
	Signature  string `json:"signature"`
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID            int64  `json:"id"`
	TokenNumber   string `json:"tokenNumber"`
	ProviderID    int64  `json:"providerId"`
	StaffMemberID *int64 `json:"staffMemberId,omitempty"`
	ClientID      int64  `json:"clientId"`

	ServiceName     string  `json:"serviceName"`
	ServicePrice    float64 `json:"servicePrice"`
	DurationMinutes int     `json:"durationMinutes"`

	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`

	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`

	WasRescheduled    bool       `json:"wasRescheduled"`
	OriginalStartsAt  *time.Time `json:"originalStartsAt,omitempty"`
	RescheduledReason *string    `json:"rescheduledReason,omitempty"`

	CancellationCause  *string `json:"cancellationCause,omitempty"`
	CancellationReason *string `json:"cancellationReason,omitempty"`
	CancelledAt        *string `json:"cancelledAt,omitempty"` // ISO 8601 format

	ActualEndsAt *time.Time `json:"actualEndsAt,omitempty"`
	Notes        *string    `json:"notes,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ReservationListResponse ответ со списком бронирований
type ReservationListResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
}

// Методы конвертации

// FromDomainReservation конвертирует domain модель в DTO
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	if r == nil {
		return nil
	}

	resp := &ReservationResponse{
		ID:                r.ID,
		TokenNumber:       r.TokenNumber,
		ProviderID:        r.ProviderID,
		StaffMemberID:     r.StaffMemberID,
		ClientID:          r.ClientID,
		ServiceName:       r.ServiceName,
		ServicePrice:      r.ServicePrice,
		DurationMinutes:   r.DurationMinutes,
		StartsAt:          r.StartsAt,
		EndsAt:            r.EndsAt,
		Status:            string(r.Status),
		PaymentStatus:     string(r.PaymentStatus),
		WasRescheduled:     r.WasRescheduled,
		OriginalStartsAt:   r.OriginalStartsAt,
		RescheduledReason:  r.RescheduledReason,
		CancellationReason: r.CancellationReason,
		ActualEndsAt:       r.ActualEndsAt,
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if r.CancellationCause != nil {
		resp.CancellationCause = ptr.Ptr(string(*r.CancellationCause))
	}

	if r.CancelledAt != nil {
		resp.CancelledAt = ptr.Ptr(r.CancelledAt.Format(time.RFC3339))
	}

	return resp
}

// FromDomainReservationList конвертирует список domain моделей в DTO
func FromDomainReservationList(reservations []*domain.Reservation) *ReservationListResponse {
	if reservations == nil {
		return &ReservationListResponse{
			Reservations: []ReservationResponse{},
		}
	}

	resp := &ReservationListResponse{
		Reservations: make([]ReservationResponse, len(reservations)),
	}

	for i, res := range reservations {
		if resResp := FromDomainReservation(res); resResp != nil {
			resp.Reservations[i] = *resResp
		}
	}

	return resp
}

// ToDomainReservationStatus конвертирует строку в domain.ReservationStatus с валидацией
func ToDomainReservationStatus(status string) (domain.ReservationStatus, error) {
	s := domain.ReservationStatus(status)

	validStatuses := []domain.ReservationStatus{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusCompleted,
		domain.StatusCancelled,
	}

	for _, valid := range validStatuses {
		if s == valid {
			return s, nil
		}
	}

	return "", ErrInvalidStatus
}
