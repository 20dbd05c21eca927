package create_reservation

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-ScheduleService/internal/api/handlers"
	"github.com/m04kA/SMC-ScheduleService/internal/api/middleware"
	createReservation "github.com/m04kA/SMC-ScheduleService/internal/usecase/create_reservation"
)

const (
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidStartsAt      = "некорректный формат времени начала, ожидается RFC3339"
	msgMissingUserID        = "отсутствует ID пользователя"
	msgProviderNotFound     = "провайдер не найден"
	msgStaffNotFound        = "сотрудник не найден"
	msgStaffInactive        = "сотрудник неактивен"
	msgProviderNotAvailable = "провайдер не работает в выбранный день"
	msgOutsideWorkingHours  = "запрошенное время вне рабочих часов"
	msgBreakConflict        = "запрошенное время попадает на перерыв"
	msgSlotConflict         = "выбранное время конфликтует с существующим бронированием"
	msgNoCapacity           = "у провайдера нет свободных мест"
	msgTooLateToBook        = "слишком поздно для бронирования этого времени"
	msgRetriesExhausted     = "высокая конкуренция за слот, повторите попытку"
)

type Handler struct {
	useCase CreateReservationUseCase
	logger  Logger
}

func NewHandler(useCase CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/reservations
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /reservations - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req CreateReservationRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /reservations - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(clientID)
	if err != nil {
		h.logger.Warn("POST /reservations - Failed to parse starts_at: %v", err)
		handlers.RespondBadRequest(w, msgInvalidStartsAt)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var conflict *createReservation.SlotConflictError

		switch {
		case errors.As(err, &conflict):
			h.logger.Warn("POST /reservations - Slot conflict: client_id=%d, provider_id=%d, token=%s",
				clientID, req.ProviderID, conflict.TokenNumber)
			handlers.RespondJSON(w, http.StatusConflict, ConflictResponse{
				Error:         msgSlotConflict,
				ConflictToken: conflict.TokenNumber,
			})

		case errors.Is(err, createReservation.ErrProviderNotFound):
			h.logger.Warn("POST /reservations - Provider not found: provider_id=%d", req.ProviderID)
			handlers.RespondNotFound(w, msgProviderNotFound)

		case errors.Is(err, createReservation.ErrStaffNotFound):
			h.logger.Warn("POST /reservations - Staff not found: provider_id=%d, staff=%v", req.ProviderID, req.StaffMemberID)
			handlers.RespondNotFound(w, msgStaffNotFound)

		case errors.Is(err, createReservation.ErrStaffInactive):
			h.logger.Warn("POST /reservations - Staff inactive: provider_id=%d, staff=%v", req.ProviderID, req.StaffMemberID)
			handlers.RespondBadRequest(w, msgStaffInactive)

		case errors.Is(err, createReservation.ErrProviderNotAvailable):
			h.logger.Warn("POST /reservations - Provider not available: provider_id=%d", req.ProviderID)
			handlers.RespondBadRequest(w, msgProviderNotAvailable)

		case errors.Is(err, createReservation.ErrOutsideWorkingHours):
			h.logger.Warn("POST /reservations - Outside working hours: provider_id=%d", req.ProviderID)
			handlers.RespondBadRequest(w, msgOutsideWorkingHours)

		case errors.Is(err, createReservation.ErrBreakConflict):
			h.logger.Warn("POST /reservations - Break conflict: provider_id=%d", req.ProviderID)
			handlers.RespondBadRequest(w, msgBreakConflict)

		case errors.Is(err, createReservation.ErrNoCapacity):
			h.logger.Warn("POST /reservations - No capacity: provider_id=%d", req.ProviderID)
			handlers.RespondError(w, http.StatusConflict, msgNoCapacity)

		case errors.Is(err, createReservation.ErrTooLateToBook):
			h.logger.Warn("POST /reservations - Too late to book: client_id=%d, provider_id=%d", clientID, req.ProviderID)
			handlers.RespondBadRequest(w, msgTooLateToBook)

		case errors.Is(err, createReservation.ErrRetriesExhausted):
			h.logger.Warn("POST /reservations - Retries exhausted: provider_id=%d", req.ProviderID)
			handlers.RespondError(w, http.StatusConflict, msgRetriesExhausted)

		case errors.Is(err, createReservation.ErrInvalidInput):
			h.logger.Warn("POST /reservations - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		default:
			h.logger.Error("POST /reservations - Failed to create reservation: client_id=%d, provider_id=%d, error=%v",
				clientID, req.ProviderID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /reservations - Reservation created successfully: id=%d, token=%s, client_id=%d",
		result.ID, result.TokenNumber, clientID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
