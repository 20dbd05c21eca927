package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ScheduleService/pkg/types"
)

// Provider представляет поставщика услуг (организацию)
// Строка провайдера блокируется (FOR UPDATE) при создании бронирования
// для сериализации конкурентных записей
type Provider struct {
	ID         int64
	Name       string
	Timezone   string // IANA имя таймзоны, например "Asia/Kolkata"
	Phone      *string
	ManagerIDs []int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Location возвращает *time.Location провайдера
func (p *Provider) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("provider id=%d has invalid timezone %q: %v", p.ID, p.Timezone, err)
	}
	return loc, nil
}

// IsManager проверяет, что пользователь - менеджер провайдера
func (p *Provider) IsManager(userID int64) bool {
	for _, id := range p.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Schedule расписание провайдера на день недели
// Инвариант: не более одной активной строки на (provider_id, weekday)
type Schedule struct {
	ID          int64
	ProviderID  int64
	Weekday     time.Weekday // 0 = Sunday ... 6 = Saturday
	StartTime   types.TimeString
	EndTime     types.TimeString
	BreakStart  *types.TimeString
	BreakEnd    *types.TimeString
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasBreak проверяет, задан ли перерыв
func (s *Schedule) HasBreak() bool {
	return s.BreakStart != nil && s.BreakEnd != nil
}

// Validate проверяет инварианты расписания:
// start < end; перерыв, если задан, целиком внутри рабочих часов
func (s *Schedule) Validate() error {
	if s.Weekday < time.Sunday || s.Weekday > time.Saturday {
		return fmt.Errorf("%w: weekday must be in [0..6]", ErrInvalidSchedule)
	}

	if !s.StartTime.IsBefore(s.EndTime) {
		return fmt.Errorf("%w: start_time must be before end_time", ErrInvalidSchedule)
	}

	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		return fmt.Errorf("%w: break_start and break_end must be set together", ErrInvalidSchedule)
	}

	if s.HasBreak() {
		if !s.BreakStart.IsBefore(*s.BreakEnd) {
			return fmt.Errorf("%w: break_start must be before break_end", ErrInvalidSchedule)
		}
		if s.BreakStart.IsBefore(s.StartTime) || s.BreakEnd.IsAfter(s.EndTime) {
			return fmt.Errorf("%w: break must be within working hours", ErrInvalidSchedule)
		}
	}

	return nil
}

// WorkingInterval возвращает рабочие часы как интервал на конкретную дату
func (s *Schedule) WorkingInterval(date time.Time, loc *time.Location) (Interval, error) {
	start, err := s.StartTime.At(date, loc)
	if err != nil {
		return Interval{}, err
	}
	end, err := s.EndTime.At(date, loc)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: start, End: end}, nil
}

// BreakInterval возвращает перерыв как интервал на конкретную дату
// Если перерыв не задан, возвращает ok=false
func (s *Schedule) BreakInterval(date time.Time, loc *time.Location) (Interval, bool, error) {
	if !s.HasBreak() {
		return Interval{}, false, nil
	}
	start, err := s.BreakStart.At(date, loc)
	if err != nil {
		return Interval{}, false, err
	}
	end, err := s.BreakEnd.At(date, loc)
	if err != nil {
		return Interval{}, false, err
	}
	return Interval{Start: start, End: end}, true, nil
}

// StaffMember сотрудник провайдера - независимый бронируемый ресурс
// Домен конфликтов: (staff_member_id, временной интервал)
type StaffMember struct {
	ID         int64
	ProviderID int64
	Name       string
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
