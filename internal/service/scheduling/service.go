package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-ScheduleService/internal/service/scheduling/models"
	"github.com/m04kA/SMC-ScheduleService/pkg/dbmetrics"
)

// Service вычисляет доступность: свободные окна сотрудников и общего пула
// Единственное место интервальной арифметики - расчет доступности для выдачи
// и поиск окна при переносе используют один и тот же код
type Service struct {
	scheduleRepo    ScheduleRepository
	staffRepo       StaffRepository
	reservationRepo ReservationRepository
	cache           ScheduleCache
	logger          Logger
	policy          Policy
}

// NewService создает новый экземпляр сервиса планирования
// cache может быть nil - тогда чтение всегда идет в БД
func NewService(
	scheduleRepo ScheduleRepository,
	staffRepo StaffRepository,
	reservationRepo ReservationRepository,
	cache ScheduleCache,
	logger Logger,
	policy Policy,
) *Service {
	return &Service{
		scheduleRepo:    scheduleRepo,
		staffRepo:       staffRepo,
		reservationRepo: reservationRepo,
		cache:           cache,
		logger:          logger,
		policy:          policy,
	}
}

// DayAvailability вычисляет доступность провайдера на одну дату:
// свободные окна каждого активного сотрудника и окна общего пула
//
// excludeReservationID исключает бронирование из реестра при расчете -
// используется при переносе, чтобы переносимая строка не блокировала сама себя
func (s *Service) DayAvailability(
	ctx context.Context,
	provider *domain.Provider,
	date time.Time,
	durationMinutes int,
	excludeReservationID *int64,
) (*models.DayAvailability, error) {
	loc, err := provider.Location()
	if err != nil {
		s.logger.Error("DayAvailability: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}

	day := &models.DayAvailability{
		ProviderID: provider.ID,
		Date:       date,
	}

	sched, err := s.scheduleForWeekday(ctx, provider.ID, date.In(loc).Weekday())
	if err != nil {
		if errors.Is(err, scheduleRepo.ErrScheduleNotFound) {
			// Нет расписания на день недели - провайдер закрыт, окон нет
			return day, nil
		}
		s.logger.Error("DayAvailability: failed to get schedule for provider=%d: %v", provider.ID, err)
		return nil, fmt.Errorf("%w: DayAvailability - failed to get schedule: %v", ErrInternal, err)
	}
	if !sched.IsAvailable {
		return day, nil
	}

	work, err := sched.WorkingInterval(date, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: DayAvailability - invalid working hours: %v", ErrInternal, err)
	}
	day.Working = work

	staff, err := s.activeStaff(ctx, provider.ID)
	if err != nil {
		s.logger.Error("DayAvailability: failed to get staff for provider=%d: %v", provider.ID, err)
		return nil, fmt.Errorf("%w: DayAvailability - failed to get staff: %v", ErrInternal, err)
	}
	day.Capacity = len(staff)
	if day.Capacity == 0 {
		s.logger.Warn("DayAvailability: provider=%d has no active staff, nothing bookable", provider.ID)
		return day, nil
	}

	duration := s.resolveDuration(durationMinutes, provider.ID)
	day.Duration = duration

	// Бронирования, чьи буферные интервалы задевают рабочий день
	reservations, err := s.reservationRepo.GetOverlapping(
		ctx, provider.ID, work.Start.Add(-s.policy.Buffer), work.End.Add(s.policy.Buffer),
	)
	if err != nil {
		s.logger.Error("DayAvailability: failed to get reservations for provider=%d: %v", provider.ID, err)
		return nil, fmt.Errorf("%w: DayAvailability - failed to get reservations: %v", ErrInternal, err)
	}
	if excludeReservationID != nil {
		reservations = excludeReservation(reservations, *excludeReservationID)
	}

	// Перерыв блокирует время с буфером по обе стороны, как и бронирования
	var breaks []domain.Interval
	if br, ok, err := sched.BreakInterval(date, loc); err != nil {
		return nil, fmt.Errorf("%w: DayAvailability - invalid break: %v", ErrInternal, err)
	} else if ok {
		breaks = append(breaks, br.Pad(s.policy.Buffer))
	}

	// Окна каждого сотрудника: рабочие часы минус перерыв
	// минус его привязанные бронирования с буфером
	day.Staff = make([]models.StaffAvailability, 0, len(staff))
	for _, member := range staff {
		blocked := make([]domain.Interval, 0, len(reservations)+1)
		blocked = append(blocked, breaks...)
		for _, res := range reservations {
			if res.IsAssigned() && *res.StaffMemberID == member.ID {
				blocked = append(blocked, res.BlockedInterval(s.policy.Buffer))
			}
		}
		free := domain.SubtractIntervals(work, domain.MergeIntervals(blocked))
		day.Staff = append(day.Staff, models.StaffAvailability{
			StaffMember: member,
			Windows:     domain.FilterFitting(free, duration),
		})
	}

	// Окна общего пула: отрезки, где активных бронирований (любых)
	// меньше, чем активных сотрудников
	blockedAll := make([]domain.Interval, 0, len(reservations))
	for _, res := range reservations {
		blockedAll = append(blockedAll, res.BlockedInterval(s.policy.Buffer))
	}
	var pool []domain.Interval
	for _, base := range domain.SubtractIntervals(work, domain.MergeIntervals(breaks)) {
		pool = append(pool, capacityWindows(base, blockedAll, day.Capacity)...)
	}
	day.Pool = domain.FilterFitting(pool, duration)

	return day, nil
}

// FindEarliestSlot ищет самое раннее окно для услуги в пределах горизонта
// Для привязанного бронирования ищет окно конкретного сотрудника,
// для непривязанного - окно общего пула
// Возвращает found=false, если в горизонте окна нет
func (s *Service) FindEarliestSlot(
	ctx context.Context,
	provider *domain.Provider,
	staffMemberID *int64,
	durationMinutes int,
	notBefore time.Time,
	horizonDays int,
	excludeReservationID *int64,
) (time.Time, bool, error) {
	loc, err := provider.Location()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %v", ErrInvalidTimezone, err)
	}

	duration := s.resolveDuration(durationMinutes, provider.ID)
	localStart := notBefore.In(loc)

	for offset := 0; offset <= horizonDays; offset++ {
		date := localStart.AddDate(0, 0, offset)

		day, err := s.DayAvailability(ctx, provider, date, durationMinutes, excludeReservationID)
		if err != nil {
			return time.Time{}, false, err
		}

		windows := domain.ClipStart(day.WindowsFor(staffMemberID), notBefore)
		windows = domain.FilterFitting(windows, duration)
		if len(windows) > 0 {
			return windows[0].Start, true, nil
		}
	}

	return time.Time{}, false, nil
}

// DiscretizeWindows разбивает свободные окна на кандидатные времена начала
// с шагом SlotStep. Дискретизация применяется только к выдаче -
// проверка конфликтов работает с непрерывными интервалами
func (s *Service) DiscretizeWindows(windows []domain.Interval, durationMinutes int) []time.Time {
	duration := time.Duration(durationMinutes) * time.Minute
	var starts []time.Time
	for _, w := range windows {
		for t := w.Start; !t.Add(duration).After(w.End); t = t.Add(s.policy.SlotStep) {
			starts = append(starts, t)
		}
	}
	return starts
}

// useCache возвращает true, когда чтение может идти через кэш
// Внутри транзакции (создание, каскад переносов) кэш всегда обходится:
// решения пути записи принимаются только по живой БД
func (s *Service) useCache(ctx context.Context) bool {
	return s.cache != nil && !dbmetrics.IsInTransaction(ctx)
}

// GetSchedules возвращает недельное расписание провайдера (через кэш)
func (s *Service) GetSchedules(ctx context.Context, providerID int64) ([]*domain.Schedule, error) {
	if s.useCache(ctx) {
		if schedules, ok := s.cache.GetSchedules(ctx, providerID); ok {
			return schedules, nil
		}
	}

	schedules, err := s.scheduleRepo.GetAllByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("%w: GetSchedules - repository error: %v", ErrInternal, err)
	}

	if s.useCache(ctx) {
		s.cache.SetSchedules(ctx, providerID, schedules)
	}
	return schedules, nil
}

// scheduleForWeekday возвращает строку расписания на день недели
// Кэш хранит всю неделю целиком - ищем нужный день в ней
func (s *Service) scheduleForWeekday(ctx context.Context, providerID int64, weekday time.Weekday) (*domain.Schedule, error) {
	if s.useCache(ctx) {
		if schedules, ok := s.cache.GetSchedules(ctx, providerID); ok {
			for _, sched := range schedules {
				if sched.Weekday == weekday {
					return sched, nil
				}
			}
			return nil, scheduleRepo.ErrScheduleNotFound
		}
	}

	return s.scheduleRepo.GetByProviderAndWeekday(ctx, providerID, weekday)
}

// activeStaff возвращает активных сотрудников провайдера (через кэш)
func (s *Service) activeStaff(ctx context.Context, providerID int64) ([]*domain.StaffMember, error) {
	if s.useCache(ctx) {
		if staff, ok := s.cache.GetStaff(ctx, providerID); ok {
			return staff, nil
		}
	}

	staff, err := s.staffRepo.GetActiveByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	if s.useCache(ctx) {
		s.cache.SetStaff(ctx, providerID, staff)
	}
	return staff, nil
}

// resolveDuration подставляет длительность по умолчанию для строк без нее
// Деградированный режим: услуга без длительности встречается только
// в legacy-данных и всегда логируется
func (s *Service) resolveDuration(durationMinutes int, providerID int64) time.Duration {
	if durationMinutes <= 0 {
		s.logger.Warn("resolveDuration: missing duration for provider=%d, falling back to %v",
			providerID, s.policy.DefaultDuration)
		return s.policy.DefaultDuration
	}
	return time.Duration(durationMinutes) * time.Minute
}

// capacityWindows возвращает отрезки base, где число пересекающихся
// блокировок меньше capacity. Линейная развертка по событиям начала/конца
func capacityWindows(base domain.Interval, blocked []domain.Interval, capacity int) []domain.Interval {
	if capacity <= 0 || !base.IsValid() {
		return nil
	}

	type event struct {
		at    time.Time
		delta int
	}

	events := make([]event, 0, len(blocked)*2)
	for _, b := range blocked {
		if !b.Overlaps(base) {
			continue
		}
		start, end := b.Start, b.End
		if start.Before(base.Start) {
			start = base.Start
		}
		if end.After(base.End) {
			end = base.End
		}
		events = append(events, event{at: start, delta: 1}, event{at: end, delta: -1})
	}
	if len(events) == 0 {
		return []domain.Interval{base}
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].at.Equal(events[j].at) {
			// Конец раньше начала: полуоткрытые интервалы в одной точке не пересекаются
			return events[i].delta < events[j].delta
		}
		return events[i].at.Before(events[j].at)
	})

	var free []domain.Interval
	count := 0
	segStart := base.Start
	for _, e := range events {
		if e.at.After(segStart) {
			if count < capacity {
				free = append(free, domain.Interval{Start: segStart, End: e.at})
			}
			segStart = e.at
		}
		count += e.delta
	}
	if segStart.Before(base.End) && count < capacity {
		free = append(free, domain.Interval{Start: segStart, End: base.End})
	}

	return domain.MergeIntervals(free)
}

func excludeReservation(reservations []*domain.Reservation, id int64) []*domain.Reservation {
	filtered := make([]*domain.Reservation, 0, len(reservations))
	for _, res := range reservations {
		if res.ID != id {
			filtered = append(filtered, res)
		}
	}
	return filtered
}
