package get_availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
)

// UseCase use case получения доступности провайдера на дату
type UseCase struct {
	providerRepo ProviderRepository
	scheduling   SchedulingService
	minLeadTime  time.Duration
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	providerRepo ProviderRepository,
	scheduling SchedulingService,
	minLeadTime time.Duration,
	logger Logger,
) *UseCase {
	return &UseCase{
		providerRepo: providerRepo,
		scheduling:   scheduling,
		minLeadTime:  minLeadTime,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case получения доступности
// Возвращает свободные окна каждого сотрудника и общего пула,
// обрезанные минимальным временем до начала (lead time)
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailability: provider=%d, date=%s, staff=%v, duration=%d",
		req.ProviderID, req.Date.Format(domain.DateFormat), req.StaffMemberID, req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GetAvailability: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем провайдера
	provider, err := uc.providerRepo.GetByID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			uc.logger.Warn("GetAvailability: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("GetAvailability: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	// 3. Вычисляем доступность на дату
	day, err := uc.scheduling.DayAvailability(ctx, provider, req.Date, req.DurationMinutes, nil)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to compute availability for provider=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to compute availability: %v", ErrInternal, err)
	}

	// 4. Окна раньше now + lead time не бронируемы - обрезаем их в выдаче
	// Обрезанное окно может стать короче услуги, такие отбрасываем
	notBefore := uc.timeProvider.Now().Add(uc.minLeadTime)

	resp := &Response{
		ProviderID: req.ProviderID,
		Date:       req.Date,
		Capacity:   day.Capacity,
		Staff:      make([]StaffWindows, 0, len(day.Staff)),
	}

	staffFound := false
	for _, sa := range day.Staff {
		if req.StaffMemberID != nil && sa.StaffMember.ID != *req.StaffMemberID {
			continue
		}
		staffFound = true

		windows := domain.ClipStart(sa.Windows, notBefore)
		windows = domain.FilterFitting(windows, day.Duration)
		resp.Staff = append(resp.Staff, StaffWindows{
			StaffMemberID: sa.StaffMember.ID,
			Name:          sa.StaffMember.Name,
			Windows:       toWindows(windows),
			SlotStarts:    uc.scheduling.DiscretizeWindows(windows, req.DurationMinutes),
		})
	}

	// Запрошен конкретный сотрудник, но среди активных его нет
	if req.StaffMemberID != nil && !staffFound && day.Capacity > 0 {
		uc.logger.Warn("GetAvailability: staff id=%d not found for provider=%d", *req.StaffMemberID, req.ProviderID)
		return nil, ErrStaffNotFound
	}

	if req.StaffMemberID == nil {
		pool := domain.ClipStart(day.Pool, notBefore)
		pool = domain.FilterFitting(pool, day.Duration)
		resp.Pool = toWindows(pool)
		resp.PoolSlots = uc.scheduling.DiscretizeWindows(pool, req.DurationMinutes)
	}

	uc.logger.Info("GetAvailability: provider=%d, date=%s: %d staff entries, %d pool windows",
		req.ProviderID, req.Date.Format(domain.DateFormat), len(resp.Staff), len(resp.Pool))

	return resp, nil
}

func toWindows(intervals []domain.Interval) []Window {
	windows := make([]Window, 0, len(intervals))
	for _, iv := range intervals {
		windows = append(windows, Window{Start: iv.Start, End: iv.End})
	}
	return windows
}
