package cancel_reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/payment"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	reservationRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ScheduleService/internal/integrations/notifier"
	"github.com/m04kA/SMC-ScheduleService/pkg/ptr"
)

// insufficientNoticeReason причина отказа в возврате при поздней отмене клиентом
const insufficientNoticeReason = "insufficient notice for refund"

// alreadyRefundedReason причина отказа, когда по платежу уже есть завершенный возврат
const alreadyRefundedReason = "payment already refunded"

// refundRejectedStatus статус отказа в ответе
// Отказ по notice period не оставляет следа в реестре возвратов,
// решение фиксируется только в логе и в ответе
const refundRejectedStatus = "rejected"

// UseCase use case отмены бронирования с оркестрацией возврата средств
//
// Отмена выполняется всегда, независимо от notice period - от него зависит
// только право на возврат. Строка возврата создается в статусе processing
// и фиксируется в БД ДО вызова шлюза: попытка возврата долговечна даже
// при падении процесса посреди вызова
type UseCase struct {
	reservationRepo ReservationRepository
	providerRepo    ProviderRepository
	paymentRepo     PaymentRepository
	gateway         PaymentGateway
	notifierClient  NotifierClient
	txManager       TransactionManager
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	providerRepo ProviderRepository,
	paymentRepo PaymentRepository,
	gateway PaymentGateway,
	notifierClient NotifierClient,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		providerRepo:    providerRepo,
		paymentRepo:     paymentRepo,
		gateway:         gateway,
		notifierClient:  notifierClient,
		txManager:       txManager,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case отмены бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelReservation: reservation=%d, user=%d, cause=%s",
		req.ReservationID, req.UserID, req.Cause)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelReservation: validation failed: %v", err)
		return nil, err
	}
	cause := domain.CancellationCause(req.Cause)

	// 2. Получаем бронирование
	res, err := uc.reservationRepo.GetByID(ctx, req.ReservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			uc.logger.Warn("CancelReservation: reservation id=%d not found", req.ReservationID)
			return nil, ErrReservationNotFound
		}
		uc.logger.Error("CancelReservation: repository error for reservation id=%d: %v", req.ReservationID, err)
		return nil, fmt.Errorf("%w: repository error: %v", ErrInternal, err)
	}

	if !res.CanBeCancelled() {
		uc.logger.Warn("CancelReservation: reservation id=%d cannot be cancelled, status=%s", res.ID, res.Status)
		return nil, ErrCannotCancel
	}

	// 3. Проверяем права: отмена провайдером - только менеджер,
	// клиентские причины - только владелец бронирования
	if err := uc.checkAccess(ctx, res, req.UserID, cause); err != nil {
		return nil, err
	}

	// 4. Notice period фиксируется на момент отмены
	now := uc.timeProvider.Now()
	hoursNotice := domain.HoursNotice(res.StartsAt, now)

	reason := ptr.Deref(req.Reason)

	resp := &Response{
		ReservationID: res.ID,
		TokenNumber:   res.TokenNumber,
		Cause:         string(cause),
		CancelledAt:   now,
		HoursNotice:   hoursNotice,
	}

	// 5. Платеж: возврат возможен только по оплаченному бронированию
	var payment *domain.Payment
	if res.IsPaid() {
		payment, err = uc.paymentRepo.GetPaymentByReservationID(ctx, res.ID)
		if err != nil && !errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			uc.logger.Error("CancelReservation: failed to get payment for reservation id=%d: %v", res.ID, err)
			return nil, fmt.Errorf("%w: failed to get payment: %v", ErrInternal, err)
		}
		if payment == nil {
			uc.logger.Warn("CancelReservation: reservation id=%d is paid but has no payment row", res.ID)
		}
	}

	eligible := domain.RefundEligible(cause, hoursNotice)
	var refund *domain.Refund
	var alreadyRefunded bool

	// 6. Отмена и строка возврата фиксируются в одной транзакции
	// Отказ в возврате строку не создает - решение остается только
	// в логе и в ответе
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := uc.reservationRepo.Cancel(txCtx, res.ID, cause, reason, now); err != nil {
			if errors.Is(err, reservationRepo.ErrReservationNotFound) {
				return ErrReservationNotFound
			}
			return fmt.Errorf("%w: failed to cancel reservation: %v", ErrInternal, err)
		}

		if payment == nil || !eligible {
			return nil
		}

		refunded, err := uc.paymentRepo.HasCompletedRefund(txCtx, payment.ID)
		if err != nil {
			return fmt.Errorf("%w: failed to check existing refunds: %v", ErrInternal, err)
		}
		if refunded {
			// Повторный возврат не выполняем, но отмена остается в силе
			uc.logger.Warn("CancelReservation: payment id=%d already refunded", payment.ID)
			alreadyRefunded = true
			return nil
		}

		refund, err = uc.paymentRepo.CreateRefund(txCtx, &domain.Refund{
			PaymentID:   payment.ID,
			Amount:      payment.Amount,
			HoursNotice: hoursNotice,
			Cause:       cause,
			Status:      domain.RefundProcessing,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to create refund: %v", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CancelReservation: cancelled reservation id=%d token=%s, cause=%s, hours_notice=%.2f",
		res.ID, res.TokenNumber, cause, hoursNotice)

	// 7. Вызов шлюза после фиксации строки processing
	switch {
	case refund != nil:
		resp.Refund = uc.processRefund(ctx, res, payment, refund)
	case alreadyRefunded:
		failureReason := alreadyRefundedReason
		resp.Refund = &RefundInfo{
			Status:        refundRejectedStatus,
			Amount:        payment.Amount,
			HoursNotice:   hoursNotice,
			FailureReason: &failureReason,
		}
	case payment != nil:
		uc.logger.Info("CancelReservation: refund rejected for reservation id=%d, hours_notice=%.2f", res.ID, hoursNotice)
		failureReason := insufficientNoticeReason
		resp.Refund = &RefundInfo{
			Status:        refundRejectedStatus,
			Amount:        payment.Amount,
			HoursNotice:   hoursNotice,
			FailureReason: &failureReason,
		}
	}

	// 8. Уведомление об отмене best-effort
	uc.notifierClient.NotifySafe(ctx, res.ClientPhone, notifier.KindCancelled, map[string]string{
		"tokenNumber": res.TokenNumber,
		"cause":       string(cause),
		"startsAt":    res.StartsAt.Format(time.RFC3339),
	})

	return resp, nil
}

// processRefund доводит возврат до терминального статуса
// Ошибка шлюза записывается в строку возврата дословно
func (uc *UseCase) processRefund(ctx context.Context, res *domain.Reservation, payment *domain.Payment, refund *domain.Refund) *RefundInfo {
	info := &RefundInfo{
		RefundID:      refund.ID,
		Status:        string(refund.Status),
		Amount:        refund.Amount,
		HoursNotice:   refund.HoursNotice,
		FailureReason: refund.FailureReason,
	}

	if refund.Status != domain.RefundProcessing {
		return info
	}

	result, err := uc.gateway.Refund(ctx, payment.PaymentRef, refund.Amount)
	if err != nil {
		uc.logger.Error("CancelReservation: gateway refund failed for refund id=%d: %v", refund.ID, err)
		failureReason := err.Error()
		if ferr := uc.paymentRepo.FailRefund(ctx, refund.ID, failureReason); ferr != nil {
			// Строка останется в processing - подхватит ручной разбор
			uc.logger.Error("CancelReservation: failed to mark refund id=%d as failed: %v", refund.ID, ferr)
			return info
		}
		info.Status = string(domain.RefundFailed)
		info.FailureReason = &failureReason
		uc.notifierClient.NotifySafe(ctx, res.ClientPhone, notifier.KindRefundFailed, map[string]string{
			"tokenNumber": res.TokenNumber,
		})
		return info
	}

	if err := uc.paymentRepo.CompleteRefund(ctx, refund.ID, result.RefundRef); err != nil {
		uc.logger.Error("CancelReservation: failed to mark refund id=%d as completed: %v", refund.ID, err)
		return info
	}

	uc.logger.Info("CancelReservation: refund id=%d completed, gateway_ref=%s", refund.ID, result.RefundRef)
	info.Status = string(domain.RefundCompleted)
	uc.notifierClient.NotifySafe(ctx, res.ClientPhone, notifier.KindRefundCompleted, map[string]string{
		"tokenNumber": res.TokenNumber,
	})
	return info
}

// checkAccess проверяет права инициатора отмены
func (uc *UseCase) checkAccess(ctx context.Context, res *domain.Reservation, userID int64, cause domain.CancellationCause) error {
	if cause == domain.CauseProviderCancelled {
		provider, err := uc.providerRepo.GetByID(ctx, res.ProviderID)
		if err != nil {
			if errors.Is(err, providerRepo.ErrProviderNotFound) {
				uc.logger.Warn("CancelReservation: provider id=%d not found", res.ProviderID)
				return ErrProviderNotFound
			}
			uc.logger.Error("CancelReservation: failed to get provider id=%d: %v", res.ProviderID, err)
			return fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
		}
		if !provider.IsManager(userID) {
			uc.logger.Warn("CancelReservation: user=%d is not a manager of provider=%d", userID, res.ProviderID)
			return ErrAccessDenied
		}
		return nil
	}

	if res.ClientID != userID {
		uc.logger.Warn("CancelReservation: user=%d is not the owner of reservation id=%d", userID, res.ID)
		return ErrAccessDenied
	}
	return nil
}
