package record_completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	reservationRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ScheduleService/internal/integrations/notifier"
)

// UseCase use case фиксации фактического завершения обслуживания
// При переработке сверх допуска запускает каскад переносов:
// затронутые бронирования передвигаются в самые ранние доступные окна,
// в порядке исходного времени начала (раньше запланирован - раньше перенесен)
type UseCase struct {
	reservationRepo ReservationRepository
	providerRepo    ProviderRepository
	scheduling      SchedulingService
	notifierClient  NotifierClient
	txManager       TransactionManager
	buffer          time.Duration
	tolerance       time.Duration
	horizonDays     int
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	providerRepo ProviderRepository,
	scheduling SchedulingService,
	notifierClient NotifierClient,
	txManager TransactionManager,
	buffer time.Duration,
	tolerance time.Duration,
	horizonDays int,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		providerRepo:    providerRepo,
		scheduling:      scheduling,
		notifierClient:  notifierClient,
		txManager:       txManager,
		buffer:          buffer,
		tolerance:       tolerance,
		horizonDays:     horizonDays,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case фиксации завершения
// Завершение и каскад переносов применяются в одной сериализуемой транзакции,
// уведомления отправляются после ее фиксации
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RecordCompletion: reservation=%d, user=%d", req.ReservationID, req.UserID)

	// 1. Валидация входных данных
	if req.ReservationID <= 0 {
		return nil, fmt.Errorf("%w: reservationId must be positive", ErrInvalidInput)
	}
	if req.UserID <= 0 {
		return nil, fmt.Errorf("%w: userId must be positive", ErrInvalidInput)
	}

	// 2. Получаем бронирование
	res, err := uc.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("RecordCompletion: reservation id=%d not found", req.ReservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("RecordCompletion: repository error for reservation id=%d: %v", req.ReservationID, err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}

	if !res.CanBeCompleted() {
		uc.logger.Warn("RecordCompletion: reservation id=%d cannot be completed, status=%s", res.ID, res.Status)
		return nil, ErrNotCompletable
	}

	// 3. Проверяем права менеджера
	provider, err := uc.providerRepo.GetByID(ctx, res.ProviderID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			uc.logger.Warn("RecordCompletion: provider id=%d not found", res.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("RecordCompletion: failed to get provider id=%d: %v", res.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}
	if !provider.IsManager(req.UserID) {
		uc.logger.Warn("RecordCompletion: user=%d is not a manager of provider=%d", req.UserID, res.ProviderID)
		return nil, ErrAccessDenied
	}

	// 4. Фактическое окончание: явное или текущее время
	actualEnd := uc.timeProvider.Now()
	if req.ActualEndsAt != nil {
		actualEnd = *req.ActualEndsAt
	}
	if !actualEnd.After(res.StartsAt) {
		uc.logger.Warn("RecordCompletion: actual end %s is not after start %s for reservation id=%d",
			actualEnd.Format(time.RFC3339), res.StartsAt.Format(time.RFC3339), res.ID)
		return nil, ErrInvalidActualEnd
	}

	overtime := actualEnd.Sub(res.EndsAt)
	resp := &Response{
		ReservationID:   res.ID,
		TokenNumber:     res.TokenNumber,
		ActualEndsAt:    actualEnd,
		OvertimeMinutes: overtime.Minutes(),
	}

	// Переработка в пределах допуска каскад не запускает
	resp.CascadeTriggered = overtime > uc.tolerance

	var rescheduled []RescheduledItem
	var notifyPhones map[int64]string

	// 5. Завершение и каскад в одной сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		rescheduled = nil
		notifyPhones = make(map[int64]string)

		// 5.1. Блокируем провайдера - каскад не должен гоняться
		// с конкурентным созданием бронирований
		if err := uc.providerRepo.LockForUpdate(txCtx, res.ProviderID); err != nil {
			return fmt.Errorf("%w: failed to lock provider: %v", ErrInternal, err)
		}

		// 5.2. Фиксируем завершение
		if err := uc.reservationRepo.Complete(txCtx, res.ID, actualEnd); err != nil {
			if errors.Is(err, reservationRepo.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("%w: failed to complete reservation: %v", ErrInternal, err)
		}

		if !resp.CascadeTriggered {
			return nil
		}

		uc.logger.Info("RecordCompletion: overtime %.1f min exceeds tolerance %v, starting cascade for reservation id=%d",
			overtime.Minutes(), uc.tolerance, res.ID)

		items, err := uc.runCascade(txCtx, provider, res, actualEnd, notifyPhones)
		if err != nil {
			return err
		}
		rescheduled = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 6. Подсчет результата и уведомления после фиксации транзакции
	resp.Rescheduled = rescheduled
	for i := range resp.Rescheduled {
		item := &resp.Rescheduled[i]
		if item.NewStartsAt.IsZero() {
			resp.UnresolvedCount++
			continue
		}
		resp.RescheduledCount++
		item.Notified = uc.notifierClient.NotifySafe(ctx, notifyPhones[item.ReservationID], notifier.KindRescheduled,
			map[string]string{
				"tokenNumber": item.TokenNumber,
				"oldStartsAt": item.OldStartsAt.Format(time.RFC3339),
				"newStartsAt": item.NewStartsAt.Format(time.RFC3339),
			})
	}

	uc.logger.Info("RecordCompletion: reservation id=%d completed, overtime=%.1f min, rescheduled=%d, unresolved=%d",
		res.ID, resp.OvertimeMinutes, resp.RescheduledCount, resp.UnresolvedCount)

	return resp, nil
}

// runCascade переносит бронирования, затронутые переработкой
// Затронутым считается бронирование, конфликтующее с занятием ресурса
// на интервале [плановое окончание, фактическое окончание]
// Порядок переноса - по исходному времени начала (ASC), чтобы раньше
// запланированные получали более ранние окна
func (uc *UseCase) runCascade(
	ctx context.Context,
	provider *domain.Provider,
	completed *domain.Reservation,
	actualEnd time.Time,
	notifyPhones map[int64]string,
) ([]RescheduledItem, error) {
	// Ресурс занят до фактического окончания плюс буфер
	overrun := &domain.Reservation{
		StaffMemberID: completed.StaffMemberID,
		StartsAt:      completed.EndsAt,
		EndsAt:        actualEnd,
	}

	candidates, err := uc.reservationRepo.GetStartingBetween(
		ctx, completed.ProviderID, completed.StartsAt, actualEnd.Add(uc.buffer),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get affected reservations: %v", ErrInternal, err)
	}

	notBefore := actualEnd.Add(uc.buffer)
	var items []RescheduledItem

	for _, affected := range candidates {
		if affected.ID == completed.ID {
			continue
		}
		if !overrun.ConflictsWith(affected, uc.buffer) {
			continue
		}

		item := RescheduledItem{
			ReservationID: affected.ID,
			TokenNumber:   affected.TokenNumber,
			OldStartsAt:   affected.StartsAt,
		}
		notifyPhones[affected.ID] = affected.ClientPhone

		// Каждый поиск видит уже выполненные переносы - реестр меняется
		// внутри транзакции по ходу каскада
		newStart, found, err := uc.scheduling.FindEarliestSlot(
			ctx, provider, affected.StaffMemberID, affected.DurationMinutes,
			notBefore, uc.horizonDays, &affected.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to find slot for reservation id=%d: %v", ErrInternal, affected.ID, err)
		}
		if !found {
			// Окно в горизонте не нашлось - оставляем бронирование на месте,
			// конфликт разбирает провайдер вручную
			uc.logger.Warn("RecordCompletion: no slot within %d days for reservation id=%d token=%s",
				uc.horizonDays, affected.ID, affected.TokenNumber)
			items = append(items, item)
			continue
		}

		newEnd := newStart.Add(time.Duration(affected.DurationMinutes) * time.Minute)
		if err := uc.reservationRepo.Reschedule(
			ctx, affected.ID, newStart, newEnd, domain.RescheduledOvertimeReason, completed.ID,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to reschedule reservation id=%d: %v", ErrInternal, affected.ID, err)
		}

		uc.logger.Info("RecordCompletion: rescheduled reservation id=%d token=%s from %s to %s",
			affected.ID, affected.TokenNumber,
			item.OldStartsAt.Format(time.RFC3339), newStart.Format(time.RFC3339))

		item.NewStartsAt = newStart
		items = append(items, item)
	}

	return items, nil
}
