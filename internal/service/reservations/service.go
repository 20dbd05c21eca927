package reservations

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/payment"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	reservationRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ScheduleService/internal/service/reservations/models"
)

// Service сервис для работы с реестром бронирований
type Service struct {
	reservationRepo ReservationRepository
	providerRepo    ProviderRepository
	paymentRepo     PaymentRepository
	gateway         PaymentGateway
	txManager       TransactionManager
	logger          Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	reservationRepo ReservationRepository,
	providerRepo ProviderRepository,
	paymentRepo PaymentRepository,
	gateway PaymentGateway,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		reservationRepo: reservationRepo,
		providerRepo:    providerRepo,
		paymentRepo:     paymentRepo,
		gateway:         gateway,
		txManager:       txManager,
		logger:          logger,
	}
}

// GetByID получает бронирование по ID
// Проверяет права доступа - клиент видит только своё бронирование,
// менеджер провайдера - любое бронирование провайдера
func (s *Service) GetByID(ctx context.Context, id int64, userID int64) (*models.ReservationResponse, error) {
	s.logger.Info("GetByID: fetching reservation id=%d for user=%d", id, userID)

	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("GetByID: reservation id=%d not found", id)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("GetByID: repository error for reservation id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if err := s.checkUserAccess(ctx, res, userID); err != nil {
		s.logger.Warn("GetByID: access denied for user=%d to reservation id=%d", userID, id)
		return nil, err
	}

	return models.FromDomainReservation(res), nil
}

// GetClientReservations получает историю бронирований клиента
// Опционально фильтрует по статусу
func (s *Service) GetClientReservations(ctx context.Context, req *models.GetClientReservationsRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("GetClientReservations: fetching reservations for client=%d, status=%v", req.ClientID, req.Status)

	var domainStatus *domain.ReservationStatus
	if req.Status != nil {
		status, err := models.ToDomainReservationStatus(*req.Status)
		if err != nil {
			s.logger.Warn("GetClientReservations: invalid status=%s for client=%d", *req.Status, req.ClientID)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &status
	}

	reservations, err := s.reservationRepo.GetByClientID(ctx, req.ClientID, domainStatus)
	if err != nil {
		s.logger.Error("GetClientReservations: repository error for client=%d: %v", req.ClientID, err)
		return nil, fmt.Errorf("%w: GetClientReservations - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetClientReservations: fetched %d reservations for client=%d", len(reservations), req.ClientID)
	return models.FromDomainReservationList(reservations), nil
}

// GetProviderReservations получает бронирования провайдера с гибкой фильтрацией
// Поддерживает фильтрацию по сотруднику, периоду, статусу и включению отменённых
// Доступно только менеджерам провайдера
func (s *Service) GetProviderReservations(ctx context.Context, req *models.GetProviderReservationsRequest) (*models.ReservationListResponse, error) {
	s.logger.Info("GetProviderReservations: fetching reservations for provider=%d, user=%d", req.ProviderID, req.UserID)

	if err := s.checkManagerAccess(ctx, req.ProviderID, req.UserID); err != nil {
		return nil, err
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("GetProviderReservations: invalid filter for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	reservations, err := s.reservationRepo.GetWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("GetProviderReservations: repository error for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: GetProviderReservations - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("GetProviderReservations: fetched %d reservations for provider=%d", len(reservations), req.ProviderID)
	return models.FromDomainReservationList(reservations), nil
}

// Confirm подтверждает оплату бронирования
// Подпись платежа проверяется в шлюзе; при успехе бронирование переходит
// в confirmed, а платеж фиксируется в статусе paid
func (s *Service) Confirm(ctx context.Context, reservationID int64, req *models.ConfirmReservationRequest) (*models.ReservationResponse, error) {
	s.logger.Info("Confirm: confirming reservation id=%d by user=%d", reservationID, req.UserID)

	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			s.logger.Warn("Confirm: reservation id=%d not found", reservationID)
			return nil, ErrReservationNotFound
		}
		s.logger.Error("Confirm: repository error for reservation id=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: Confirm - repository error: %v", ErrInternal, err)
	}

	if res.ClientID != req.UserID {
		s.logger.Warn("Confirm: access denied for user=%d to reservation id=%d", req.UserID, reservationID)
		return nil, ErrAccessDenied
	}

	if res.Status == domain.StatusConfirmed {
		s.logger.Warn("Confirm: reservation id=%d already confirmed", reservationID)
		return nil, ErrAlreadyConfirmed
	}
	if res.Status != domain.StatusPending {
		s.logger.Warn("Confirm: reservation id=%d cannot be confirmed, status=%s", reservationID, res.Status)
		return nil, ErrNotConfirmable
	}

	// Проверяем подпись в шлюзе ДО записи в БД
	valid, err := s.gateway.VerifySignature(ctx, req.OrderRef, req.PaymentRef, req.Signature)
	if err != nil {
		s.logger.Error("Confirm: gateway error for reservation id=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: Confirm - gateway error: %v", ErrInternal, err)
	}
	if !valid {
		s.logger.Warn("Confirm: invalid signature for reservation id=%d, order_ref=%s", reservationID, req.OrderRef)
		return nil, ErrInvalidSignature
	}

	// Платеж и статусы фиксируются атомарно
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := s.paymentRepo.CreatePayment(ctx, &domain.Payment{
			ReservationID: reservationID,
			OrderRef:      req.OrderRef,
			PaymentRef:    req.PaymentRef,
			Amount:        res.ServicePrice,
			Currency:      "RUB",
			Status:        domain.PaymentPaid,
		}); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}
		if err := s.reservationRepo.SetPaymentStatus(ctx, reservationID, domain.PaymentPaid); err != nil {
			return fmt.Errorf("set payment status: %w", err)
		}
		if err := s.reservationRepo.UpdateStatus(ctx, reservationID, domain.StatusConfirmed); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Confirm: transaction failed for reservation id=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: Confirm - transaction failed: %v", ErrInternal, err)
	}

	confirmed, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		s.logger.Error("Confirm: failed to reload reservation id=%d: %v", reservationID, err)
		return nil, fmt.Errorf("%w: Confirm - failed to reload reservation: %v", ErrInternal, err)
	}

	s.logger.Info("Confirm: successfully confirmed reservation id=%d, token=%s", reservationID, confirmed.TokenNumber)
	return models.FromDomainReservation(confirmed), nil
}

// GetPayment возвращает платеж по бронированию
// Доступно владельцу бронирования и менеджерам провайдера
func (s *Service) GetPayment(ctx context.Context, reservationID int64, userID int64) (*domain.Payment, error) {
	res, err := s.reservationRepo.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, reservationRepo.ErrReservationNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("%w: GetPayment - repository error: %v", ErrInternal, err)
	}

	if err := s.checkUserAccess(ctx, res, userID); err != nil {
		return nil, err
	}

	p, err := s.paymentRepo.GetPaymentByReservationID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("%w: GetPayment - repository error: %v", ErrInternal, err)
	}

	return p, nil
}

// Вспомогательные методы

// checkUserAccess проверяет, что пользователь имеет доступ к бронированию
// Клиент видит своё бронирование, менеджер - бронирования своего провайдера
func (s *Service) checkUserAccess(ctx context.Context, res *domain.Reservation, userID int64) error {
	if res.ClientID == userID {
		return nil
	}

	if err := s.checkManagerAccess(ctx, res.ProviderID, userID); err != nil {
		return ErrAccessDenied
	}

	return nil
}

// checkManagerAccess проверяет, что пользователь является менеджером провайдера
func (s *Service) checkManagerAccess(ctx context.Context, providerID int64, userID int64) error {
	provider, err := s.providerRepo.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			s.logger.Warn("checkManagerAccess: provider id=%d not found", providerID)
			return ErrProviderNotFound
		}
		s.logger.Error("checkManagerAccess: failed to get provider id=%d: %v", providerID, err)
		return fmt.Errorf("%w: checkManagerAccess - failed to get provider: %v", ErrInternal, err)
	}

	if !provider.IsManager(userID) {
		s.logger.Warn("checkManagerAccess: user=%d is not a manager of provider=%d", userID, providerID)
		return ErrAccessDenied
	}

	return nil
}
