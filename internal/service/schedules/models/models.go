package models

import (
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	"github.com/m04kA/SMC-ScheduleService/pkg/types"
)

// Request модели

// DayScheduleInput строка расписания на день недели
type DayScheduleInput struct {
	Weekday     int     `json:"weekday"` // 0 = воскресенье ... 6 = суббота
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	BreakStart  *string `json:"breakStart,omitempty"`
	BreakEnd    *string `json:"breakEnd,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

// ToDomain конвертирует строку расписания в domain модель
func (d *DayScheduleInput) ToDomain(providerID int64) (*domain.Schedule, error) {
	start, err := types.NewTimeStringFromString(d.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := types.NewTimeStringFromString(d.EndTime)
	if err != nil {
		return nil, err
	}

	sched := &domain.Schedule{
		ProviderID:  providerID,
		Weekday:     time.Weekday(d.Weekday),
		StartTime:   start,
		EndTime:     end,
		IsAvailable: d.IsAvailable,
	}

	if d.BreakStart != nil {
		bs, err := types.NewTimeStringFromString(*d.BreakStart)
		if err != nil {
			return nil, err
		}
		sched.BreakStart = &bs
	}
	if d.BreakEnd != nil {
		be, err := types.NewTimeStringFromString(*d.BreakEnd)
		if err != nil {
			return nil, err
		}
		sched.BreakEnd = &be
	}

	return sched, nil
}

// UpdateScheduleRequest запрос на обновление недельного расписания провайдера
type UpdateScheduleRequest struct {
	UserID int64              `json:"userId"`
	Days   []DayScheduleInput `json:"days"`
}

// Response модели

// DayScheduleResponse строка расписания на день недели
type DayScheduleResponse struct {
	Weekday     int     `json:"weekday"`
	StartTime   string  `json:"startTime"`
	EndTime     string  `json:"endTime"`
	BreakStart  *string `json:"breakStart,omitempty"`
	BreakEnd    *string `json:"breakEnd,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

// WeeklyScheduleResponse недельное расписание провайдера
type WeeklyScheduleResponse struct {
	ProviderID int64                 `json:"providerId"`
	Days       []DayScheduleResponse `json:"days"`
}

// StaffMemberResponse сотрудник провайдера
type StaffMemberResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// StaffListResponse список сотрудников провайдера
type StaffListResponse struct {
	ProviderID int64                 `json:"providerId"`
	Staff      []StaffMemberResponse `json:"staff"`
}

// Методы конвертации

// FromDomainSchedule конвертирует domain модель в DTO
func FromDomainSchedule(s *domain.Schedule) DayScheduleResponse {
	resp := DayScheduleResponse{
		Weekday:     int(s.Weekday),
		StartTime:   s.StartTime.String(),
		EndTime:     s.EndTime.String(),
		IsAvailable: s.IsAvailable,
	}
	if s.BreakStart != nil {
		bs := s.BreakStart.String()
		resp.BreakStart = &bs
	}
	if s.BreakEnd != nil {
		be := s.BreakEnd.String()
		resp.BreakEnd = &be
	}
	return resp
}

// FromDomainScheduleList конвертирует недельное расписание в DTO
func FromDomainScheduleList(providerID int64, schedules []*domain.Schedule) *WeeklyScheduleResponse {
	resp := &WeeklyScheduleResponse{
		ProviderID: providerID,
		Days:       make([]DayScheduleResponse, 0, len(schedules)),
	}
	for _, s := range schedules {
		resp.Days = append(resp.Days, FromDomainSchedule(s))
	}
	return resp
}

// FromDomainStaffList конвертирует список сотрудников в DTO
func FromDomainStaffList(providerID int64, staff []*domain.StaffMember) *StaffListResponse {
	resp := &StaffListResponse{
		ProviderID: providerID,
		Staff:      make([]StaffMemberResponse, 0, len(staff)),
	}
	for _, m := range staff {
		resp.Staff = append(resp.Staff, StaffMemberResponse{
			ID:       m.ID,
			Name:     m.Name,
			IsActive: m.IsActive,
		})
	}
	return resp
}
