package schedules

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	"github.com/m04kA/SMC-ScheduleService/internal/service/schedules/models"
)

// Service сервис для работы с расписаниями и персоналом провайдеров
type Service struct {
	scheduleRepo ScheduleRepository
	providerRepo ProviderRepository
	staffRepo    StaffRepository
	cache        ScheduleCache
	txManager    TransactionManager
	logger       Logger
}

// NewService создает новый экземпляр сервиса расписаний
// cache может быть nil - тогда инвалидация не выполняется
func NewService(
	scheduleRepo ScheduleRepository,
	providerRepo ProviderRepository,
	staffRepo StaffRepository,
	cache ScheduleCache,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		scheduleRepo: scheduleRepo,
		providerRepo: providerRepo,
		staffRepo:    staffRepo,
		cache:        cache,
		txManager:    txManager,
		logger:       logger,
	}
}

// GetProviderSchedule возвращает недельное расписание провайдера
func (s *Service) GetProviderSchedule(ctx context.Context, providerID int64) (*models.WeeklyScheduleResponse, error) {
	s.logger.Info("GetProviderSchedule: fetching schedule for provider=%d", providerID)

	if _, err := s.getProvider(ctx, providerID); err != nil {
		return nil, err
	}

	schedules, err := s.scheduleRepo.GetAllByProvider(ctx, providerID)
	if err != nil {
		s.logger.Error("GetProviderSchedule: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: GetProviderSchedule - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainScheduleList(providerID, schedules), nil
}

// UpdateProviderSchedule обновляет недельное расписание провайдера
// Доступно только менеджерам. Все строки применяются в одной транзакции,
// кэш провайдера инвалидируется после фиксации
func (s *Service) UpdateProviderSchedule(ctx context.Context, providerID int64, req *models.UpdateScheduleRequest) (*models.WeeklyScheduleResponse, error) {
	s.logger.Info("UpdateProviderSchedule: updating schedule for provider=%d by user=%d, days=%d",
		providerID, req.UserID, len(req.Days))

	provider, err := s.getProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if !provider.IsManager(req.UserID) {
		s.logger.Warn("UpdateProviderSchedule: user=%d is not a manager of provider=%d", req.UserID, providerID)
		return nil, ErrAccessDenied
	}

	if len(req.Days) == 0 {
		return nil, fmt.Errorf("%w: days must not be empty", ErrInvalidInput)
	}

	// Валидируем все строки до записи: обновление применяется целиком или никак
	seen := make(map[int]bool, len(req.Days))
	for _, day := range req.Days {
		if seen[day.Weekday] {
			s.logger.Warn("UpdateProviderSchedule: duplicate weekday=%d for provider=%d", day.Weekday, providerID)
			return nil, fmt.Errorf("%w: duplicate weekday %d", ErrInvalidInput, day.Weekday)
		}
		seen[day.Weekday] = true

		sched, err := day.ToDomain(providerID)
		if err != nil {
			s.logger.Warn("UpdateProviderSchedule: invalid day weekday=%d for provider=%d: %v", day.Weekday, providerID, err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		if err := sched.Validate(); err != nil {
			s.logger.Warn("UpdateProviderSchedule: invalid schedule weekday=%d for provider=%d: %v", day.Weekday, providerID, err)
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		for _, day := range req.Days {
			sched, err := day.ToDomain(providerID)
			if err != nil {
				return err
			}
			if _, err := s.scheduleRepo.Upsert(ctx, sched); err != nil {
				return fmt.Errorf("upsert weekday %d: %w", day.Weekday, err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("UpdateProviderSchedule: transaction failed for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: UpdateProviderSchedule - transaction failed: %v", ErrInternal, err)
	}

	if s.cache != nil {
		s.cache.InvalidateProvider(ctx, providerID)
	}

	s.logger.Info("UpdateProviderSchedule: successfully updated schedule for provider=%d", providerID)
	return s.GetProviderSchedule(ctx, providerID)
}

// ListStaff возвращает активных сотрудников провайдера
func (s *Service) ListStaff(ctx context.Context, providerID int64) (*models.StaffListResponse, error) {
	s.logger.Info("ListStaff: fetching staff for provider=%d", providerID)

	if _, err := s.getProvider(ctx, providerID); err != nil {
		return nil, err
	}

	staff, err := s.staffRepo.GetActiveByProvider(ctx, providerID)
	if err != nil {
		s.logger.Error("ListStaff: repository error for provider=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: ListStaff - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainStaffList(providerID, staff), nil
}

func (s *Service) getProvider(ctx context.Context, providerID int64) (*domain.Provider, error) {
	p, err := s.providerRepo.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			s.logger.Warn("getProvider: provider id=%d not found", providerID)
			return nil, ErrProviderNotFound
		}
		s.logger.Error("getProvider: failed to get provider id=%d: %v", providerID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}
	return p, nil
}
