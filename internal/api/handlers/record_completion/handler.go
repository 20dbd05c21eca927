package record_completion

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ScheduleService/internal/api/handlers"
	"github.com/m04kA/SMC-ScheduleService/internal/api/middleware"
	recordCompletion "github.com/m04kA/SMC-ScheduleService/internal/usecase/record_completion"
)

const (
	msgInvalidReservationID = "некорректный ID бронирования"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidActualEnd     = "фактическое окончание раньше начала бронирования"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgNotFound             = "бронирование не найдено"
	msgForbidden            = "доступ запрещен"
	msgNotCompletable       = "бронирование нельзя завершить в текущем статусе"
)

type Handler struct {
	useCase RecordCompletionUseCase
	logger  Logger
}

func NewHandler(useCase RecordCompletionUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/reservations/{reservationId}/complete
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	reservationID, err := strconv.ParseInt(vars["reservationId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/complete - Invalid reservation ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return
	}

	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("PATCH /reservations/{id}/complete - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	// Тело опционально: пустое тело означает завершение текущим временем
	var body RecordCompletionRequest
	if r.ContentLength != 0 {
		if err := handlers.DecodeJSON(r, &body); err != nil {
			h.logger.Warn("PATCH /reservations/{id}/complete - Invalid request body: %v", err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)
			return
		}
	}

	req, err := body.ToUseCaseRequest(reservationID, userID)
	if err != nil {
		h.logger.Warn("PATCH /reservations/{id}/complete - Invalid actualEndsAt: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	resp, err := h.useCase.Execute(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, recordCompletion.ErrReservationNotFound),
			errors.Is(err, recordCompletion.ErrProviderNotFound):
			h.logger.Warn("PATCH /reservations/{id}/complete - Not found: reservation_id=%d", reservationID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, recordCompletion.ErrAccessDenied):
			h.logger.Warn("PATCH /reservations/{id}/complete - Access denied: reservation_id=%d, user_id=%d",
				reservationID, userID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, recordCompletion.ErrNotCompletable):
			h.logger.Warn("PATCH /reservations/{id}/complete - Not completable: reservation_id=%d", reservationID)
			handlers.RespondError(w, http.StatusConflict, msgNotCompletable)

		case errors.Is(err, recordCompletion.ErrInvalidActualEnd):
			h.logger.Warn("PATCH /reservations/{id}/complete - Invalid actual end: reservation_id=%d", reservationID)
			handlers.RespondBadRequest(w, msgInvalidActualEnd)

		case errors.Is(err, recordCompletion.ErrInvalidInput):
			h.logger.Warn("PATCH /reservations/{id}/complete - Invalid input: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondBadRequest(w, msgInvalidRequestBody)

		default:
			h.logger.Error("PATCH /reservations/{id}/complete - Failed to complete: reservation_id=%d, error=%v",
				reservationID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /reservations/{id}/complete - Completed: reservation_id=%d, overtime_minutes=%.1f, rescheduled=%d, unresolved=%d",
		reservationID, resp.OvertimeMinutes, resp.RescheduledCount, resp.UnresolvedCount)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp))
}
