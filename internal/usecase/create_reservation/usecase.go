package create_reservation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	reservationRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/reservation"
	scheduleRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/schedule"
	staffRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/staff"
	"github.com/m04kA/SMC-ScheduleService/pkg/txmanager"
)

// maxTokenAttempts число попыток сгенерировать уникальный номер бронирования
const maxTokenAttempts = 3

// UseCase use case для создания бронирования
// Вся проверка конфликтов выполняется в сериализуемой транзакции
// с блокировкой строки провайдера и повторной проверкой пересечений
type UseCase struct {
	reservationRepo ReservationRepository
	providerRepo    ProviderRepository
	staffRepo       StaffRepository
	scheduleRepo    ScheduleRepository
	txManager       TransactionManager
	buffer          time.Duration
	minLeadTime     time.Duration
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	reservationRepo ReservationRepository,
	providerRepo ProviderRepository,
	staffRepo StaffRepository,
	scheduleRepo ScheduleRepository,
	txManager TransactionManager,
	buffer time.Duration,
	minLeadTime time.Duration,
	logger Logger,
) *UseCase {
	return &UseCase{
		reservationRepo: reservationRepo,
		providerRepo:    providerRepo,
		staffRepo:       staffRepo,
		scheduleRepo:    scheduleRepo,
		txManager:       txManager,
		buffer:          buffer,
		minLeadTime:     minLeadTime,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Execute выполняет use case создания бронирования
// Использует сериализуемую транзакцию для предотвращения двойного бронирования
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateReservation: client=%d, provider=%d, staff=%v, starts_at=%s, duration=%d",
		req.ClientID, req.ProviderID, req.StaffMemberID, req.StartsAt.Format(time.RFC3339), req.DurationMinutes)

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateReservation: validation failed: %v", err)
		return nil, err
	}

	// 2. Проверяем минимальное время до начала
	now := uc.timeProvider.Now()
	if req.StartsAt.Before(now.Add(uc.minLeadTime)) {
		uc.logger.Warn("CreateReservation: starts_at=%s violates min lead time %v",
			req.StartsAt.Format(time.RFC3339), uc.minLeadTime)
		return nil, ErrTooLateToBook
	}

	// 3. Получаем провайдера
	provider, err := uc.providerRepo.GetByID(ctx, req.ProviderID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			uc.logger.Warn("CreateReservation: provider id=%d not found", req.ProviderID)
			return nil, ErrProviderNotFound
		}
		uc.logger.Error("CreateReservation: failed to get provider id=%d: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: failed to get provider: %v", ErrInternal, err)
	}

	loc, err := provider.Location()
	if err != nil {
		uc.logger.Error("CreateReservation: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 4. Проверяем сотрудника, если бронирование привязанное
	if req.StaffMemberID != nil {
		member, err := uc.staffRepo.GetByID(ctx, *req.StaffMemberID)
		if err != nil {
			if errors.Is(err, staffRepo.ErrStaffNotFound) {
				uc.logger.Warn("CreateReservation: staff id=%d not found", *req.StaffMemberID)
				return nil, ErrStaffNotFound
			}
			uc.logger.Error("CreateReservation: failed to get staff id=%d: %v", *req.StaffMemberID, err)
			return nil, fmt.Errorf("%w: failed to get staff: %v", ErrInternal, err)
		}
		if member.ProviderID != req.ProviderID {
			uc.logger.Warn("CreateReservation: staff id=%d belongs to provider=%d, not %d",
				member.ID, member.ProviderID, req.ProviderID)
			return nil, ErrStaffNotFound
		}
		if !member.IsActive {
			uc.logger.Warn("CreateReservation: staff id=%d is inactive", member.ID)
			return nil, ErrStaffInactive
		}
	}

	requested := domain.Interval{
		Start: req.StartsAt,
		End:   req.StartsAt.Add(time.Duration(req.DurationMinutes) * time.Minute),
	}

	var result *domain.Reservation

	// 5. Выполняем проверку конфликтов и запись в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 5.1. Блокируем строку провайдера - конкурентные создания на одного
		// провайдера сериализуются на этой блокировке
		if err := uc.providerRepo.LockForUpdate(txCtx, req.ProviderID); err != nil {
			uc.logger.Error("CreateReservation: failed to lock provider id=%d: %v", req.ProviderID, err)
			return fmt.Errorf("%w: failed to lock provider: %v", ErrInternal, err)
		}

		// 5.2. Для привязанного бронирования блокируем и строку сотрудника
		if req.StaffMemberID != nil {
			if err := uc.staffRepo.LockForUpdate(txCtx, *req.StaffMemberID); err != nil {
				uc.logger.Error("CreateReservation: failed to lock staff id=%d: %v", *req.StaffMemberID, err)
				return fmt.Errorf("%w: failed to lock staff: %v", ErrInternal, err)
			}
		}

		// 5.3. Расписание читаем внутри транзакции, минуя кэш
		sched, err := uc.scheduleRepo.GetByProviderAndWeekday(txCtx, req.ProviderID, req.StartsAt.In(loc).Weekday())
		if err != nil {
			if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
				uc.logger.Warn("CreateReservation: no schedule for provider=%d on weekday=%d",
					req.ProviderID, req.StartsAt.In(loc).Weekday())
				return ErrProviderNotAvailable
			}
			uc.logger.Error("CreateReservation: failed to get schedule: %v", err)
			return fmt.Errorf("%w: failed to get schedule: %v", ErrInternal, err)
		}
		if !sched.IsAvailable {
			uc.logger.Warn("CreateReservation: provider=%d is closed on weekday=%d",
				req.ProviderID, sched.Weekday)
			return ErrProviderNotAvailable
		}

		// 5.4. Интервал должен целиком лежать в рабочих часах
		work, err := sched.WorkingInterval(req.StartsAt.In(loc), loc)
		if err != nil {
			return fmt.Errorf("%w: invalid working hours: %v", ErrInternal, err)
		}
		if !work.Contains(requested) {
			uc.logger.Warn("CreateReservation: requested %s-%s outside working hours %s-%s",
				requested.Start.Format(time.RFC3339), requested.End.Format(time.RFC3339),
				work.Start.Format(time.RFC3339), work.End.Format(time.RFC3339))
			return ErrOutsideWorkingHours
		}

		// 5.5. Интервал не должен пересекаться с перерывом
		// Перерыв, как и бронирования, блокирует время с буфером по обе стороны
		if br, ok, err := sched.BreakInterval(req.StartsAt.In(loc), loc); err != nil {
			return fmt.Errorf("%w: invalid break: %v", ErrInternal, err)
		} else if ok && requested.Overlaps(br.Pad(uc.buffer)) {
			uc.logger.Warn("CreateReservation: requested %s-%s overlaps break",
				requested.Start.Format(time.RFC3339), requested.End.Format(time.RFC3339))
			return ErrBreakConflict
		}

		// 5.6. Повторная проверка пересечений под блокировкой (FOR UPDATE)
		// Окно расширено буфером: между соседними бронированиями должна
		// оставаться пауза не меньше буфера
		overlapping, err := uc.reservationRepo.GetOverlapping(
			txCtx, req.ProviderID, requested.Start.Add(-uc.buffer), requested.End.Add(uc.buffer),
		)
		if err != nil {
			uc.logger.Error("CreateReservation: failed to get overlapping reservations: %v", err)
			return fmt.Errorf("%w: failed to get overlapping reservations: %v", ErrInternal, err)
		}

		if err := uc.checkConflicts(txCtx, req, requested, overlapping); err != nil {
			return err
		}

		// 5.7. Создаем бронирование; при коллизии номера генерируем заново
		reservation := &domain.Reservation{
			ProviderID:      req.ProviderID,
			StaffMemberID:   req.StaffMemberID,
			ClientID:        req.ClientID,
			ClientPhone:     req.ClientPhone,
			ServiceName:     req.ServiceName,
			ServicePrice:    req.ServicePrice,
			DurationMinutes: req.DurationMinutes,
			StartsAt:        requested.Start,
			EndsAt:          requested.End,
			Status:          domain.StatusPending,
			PaymentStatus:   domain.PaymentPending,
			Notes:           req.Notes,
		}

		for attempt := 1; ; attempt++ {
			reservation.TokenNumber = newTokenNumber()
			created, err := uc.reservationRepo.Create(txCtx, reservation)
			if err == nil {
				result = created
				return nil
			}
			if !errors.Is(err, reservationRepo.ErrDuplicateToken) || attempt >= maxTokenAttempts {
				uc.logger.Error("CreateReservation: failed to create reservation: %v", err)
				return fmt.Errorf("%w: failed to create reservation: %v", ErrInternal, err)
			}
			uc.logger.Warn("CreateReservation: token collision %s, retrying", reservation.TokenNumber)
		}
	})

	if err != nil {
		if errors.Is(err, txmanager.ErrRetriesExhausted) {
			uc.logger.Warn("CreateReservation: serialization retries exhausted for provider=%d", req.ProviderID)
			return nil, ErrRetriesExhausted
		}
		return nil, err
	}

	uc.logger.Info("CreateReservation: successfully created reservation id=%d, token=%s",
		result.ID, result.TokenNumber)

	return &Response{
		ID:              result.ID,
		TokenNumber:     result.TokenNumber,
		ProviderID:      result.ProviderID,
		StaffMemberID:   result.StaffMemberID,
		ClientID:        result.ClientID,
		StartsAt:        result.StartsAt,
		EndsAt:          result.EndsAt,
		Status:          string(result.Status),
		PaymentStatus:   string(result.PaymentStatus),
		ServiceName:     result.ServiceName,
		ServicePrice:    result.ServicePrice,
		DurationMinutes: result.DurationMinutes,
		Notes:           result.Notes,
		CreatedAt:       result.CreatedAt,
	}, nil
}

// checkConflicts проверяет запрошенный интервал против живого реестра
// Привязанное бронирование конфликтует с бронированиями того же сотрудника,
// непривязанное - занимает место в общем пуле (емкость = активные сотрудники)
func (uc *UseCase) checkConflicts(ctx context.Context, req *Request, requested domain.Interval, overlapping []*domain.Reservation) error {
	if req.StaffMemberID != nil {
		for _, res := range overlapping {
			if res.IsAssigned() && *res.StaffMemberID == *req.StaffMemberID {
				uc.logger.Warn("CreateReservation: conflict with reservation token=%s for staff=%d",
					res.TokenNumber, *req.StaffMemberID)
				return &SlotConflictError{TokenNumber: res.TokenNumber}
			}
		}
		return nil
	}

	capacity, err := uc.staffRepo.CountActiveByProvider(ctx, req.ProviderID)
	if err != nil {
		uc.logger.Error("CreateReservation: failed to count active staff for provider=%d: %v", req.ProviderID, err)
		return fmt.Errorf("%w: failed to count active staff: %v", ErrInternal, err)
	}
	if capacity == 0 {
		uc.logger.Warn("CreateReservation: provider=%d has no active staff", req.ProviderID)
		return ErrNoCapacity
	}

	if token, full := poolConflictToken(requested, overlapping, uc.buffer, capacity); full {
		uc.logger.Warn("CreateReservation: pool is full for provider=%d, capacity=%d, conflict token=%s",
			req.ProviderID, capacity, token)
		return &SlotConflictError{TokenNumber: token}
	}

	uc.logger.Info("CreateReservation: pool has room for provider=%d, capacity=%d", req.ProviderID, capacity)
	return nil
}

// poolConflictToken ищет момент внутри requested, где число одновременных
// блокировок достигает capacity. Счет по мгновенной одновременности, а не
// по числу строк: два непересекающихся бронирования занимают одно место
// пула, не два. Та же развертка по событиям, что и в расчете окон пула
func poolConflictToken(requested domain.Interval, overlapping []*domain.Reservation, buffer time.Duration, capacity int) (string, bool) {
	type event struct {
		at    time.Time
		delta int
	}

	events := make([]event, 0, len(overlapping)*2)
	for _, res := range overlapping {
		b := res.BlockedInterval(buffer)
		if !b.Overlaps(requested) {
			continue
		}
		if b.Start.Before(requested.Start) {
			b.Start = requested.Start
		}
		if b.End.After(requested.End) {
			b.End = requested.End
		}
		events = append(events, event{at: b.Start, delta: 1}, event{at: b.End, delta: -1})
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			// Конец раньше начала: полуоткрытые интервалы в одной точке не пересекаются
			return events[i].delta < events[j].delta
		}
		return events[i].at.Before(events[j].at)
	})

	count := 0
	for _, e := range events {
		count += e.delta
		if count < capacity {
			continue
		}
		// Все места заняты в момент e.at - возвращаем номер первого из занявших
		for _, res := range overlapping {
			b := res.BlockedInterval(buffer)
			if !e.at.Before(b.Start) && e.at.Before(b.End) {
				return res.TokenNumber, true
			}
		}
		return overlapping[0].TokenNumber, true
	}
	return "", false
}

// newTokenNumber генерирует человекочитаемый номер бронирования вида "R-7F3A21C4"
func newTokenNumber() string {
	u := uuid.New()
	return fmt.Sprintf("R-%X", u[0:4])
}
