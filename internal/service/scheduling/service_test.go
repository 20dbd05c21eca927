package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	scheduleRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/schedule"
	"github.com/m04kA/SMC-ScheduleService/pkg/types"
)

type fakeScheduleRepo struct {
	schedules map[time.Weekday]*domain.Schedule
}

func (f *fakeScheduleRepo) GetByProviderAndWeekday(_ context.Context, _ int64, weekday time.Weekday) (*domain.Schedule, error) {
	sched, ok := f.schedules[weekday]
	if !ok {
		return nil, scheduleRepo.ErrScheduleNotFound
	}
	return sched, nil
}

func (f *fakeScheduleRepo) GetAllByProvider(_ context.Context, _ int64) ([]*domain.Schedule, error) {
	all := make([]*domain.Schedule, 0, len(f.schedules))
	for _, sched := range f.schedules {
		all = append(all, sched)
	}
	return all, nil
}

type fakeStaffRepo struct {
	staff []*domain.StaffMember
}

func (f *fakeStaffRepo) GetByID(_ context.Context, id int64) (*domain.StaffMember, error) {
	for _, m := range f.staff {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeStaffRepo) GetActiveByProvider(_ context.Context, _ int64) ([]*domain.StaffMember, error) {
	active := make([]*domain.StaffMember, 0, len(f.staff))
	for _, m := range f.staff {
		if m.IsActive {
			active = append(active, m)
		}
	}
	return active, nil
}

type fakeReservationRepo struct {
	reservations []*domain.Reservation
}

func (f *fakeReservationRepo) GetOverlapping(_ context.Context, _ int64, from, to time.Time) ([]*domain.Reservation, error) {
	window := domain.Interval{Start: from, End: to}
	overlapping := make([]*domain.Reservation, 0, len(f.reservations))
	for _, res := range f.reservations {
		if res.IsActive() && window.Overlaps(res.Interval()) {
			overlapping = append(overlapping, res)
		}
	}
	return overlapping, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func ts(s string) types.TimeString {
	return types.TimeString(s)
}

func tsPtr(s string) *types.TimeString {
	v := types.TimeString(s)
	return &v
}

func workday(weekday time.Weekday) *domain.Schedule {
	return &domain.Schedule{
		ProviderID:  1,
		Weekday:     weekday,
		StartTime:   ts("09:00"),
		EndTime:     ts("18:00"),
		IsAvailable: true,
	}
}

func testProvider() *domain.Provider {
	return &domain.Provider{ID: 1, Name: "Garage", Timezone: "UTC"}
}

func at(hour, min int) time.Time {
	// 2 июня 2025 - понедельник
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func newTestService(schedules map[time.Weekday]*domain.Schedule, staff []*domain.StaffMember, reservations []*domain.Reservation) *Service {
	return NewService(
		&fakeScheduleRepo{schedules: schedules},
		&fakeStaffRepo{staff: staff},
		&fakeReservationRepo{reservations: reservations},
		nil,
		nopLogger{},
		Policy{
			Buffer:          5 * time.Minute,
			SlotStep:        15 * time.Minute,
			DefaultDuration: 30 * time.Minute,
		},
	)
}

func TestDayAvailability_NoScheduleMeansClosed(t *testing.T) {
	svc := newTestService(map[time.Weekday]*domain.Schedule{}, nil, nil)

	day, err := svc.DayAvailability(context.Background(), testProvider(), at(0, 0), 30, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, day.Capacity)
	assert.Empty(t, day.Staff)
	assert.Empty(t, day.Pool)
}

func TestDayAvailability_UnavailableDay(t *testing.T) {
	sched := workday(time.Monday)
	sched.IsAvailable = false
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{time.Monday: sched},
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}},
		nil,
	)

	day, err := svc.DayAvailability(context.Background(), testProvider(), at(0, 0), 30, nil)
	require.NoError(t, err)

	assert.Empty(t, day.Staff)
	assert.Empty(t, day.Pool)
}

func TestDayAvailability_NoActiveStaff(t *testing.T) {
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{time.Monday: workday(time.Monday)},
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: false}},
		nil,
	)

	day, err := svc.DayAvailability(context.Background(), testProvider(), at(0, 0), 30, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, day.Capacity)
	assert.Empty(t, day.Staff)
	assert.Empty(t, day.Pool)
}

func TestDayAvailability_StaffWindowsWithBufferedReservation(t *testing.T) {
	alice := int64(1)
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{time.Monday: workday(time.Monday)},
		[]*domain.StaffMember{
			{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true},
			{ID: 2, ProviderID: 1, Name: "Bob", IsActive: true},
		},
		[]*domain.Reservation{
			{ID: 100, ProviderID: 1, StaffMemberID: &alice, StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed},
		},
	)

	day, err := svc.DayAvailability(context.Background(), testProvider(), at(0, 0), 30, nil)
	require.NoError(t, err)
	require.Equal(t, 2, day.Capacity)
	require.Len(t, day.Staff, 2)

	// У Алисы бронирование 10:00-10:30 с буфером 5 минут блокирует 09:55-10:35
	aliceWindows := day.Staff[0].Windows
	require.Len(t, aliceWindows, 2)
	assert.Equal(t, at(9, 0), aliceWindows[0].Start)
	assert.Equal(t, at(9, 55), aliceWindows[0].End)
	assert.Equal(t, at(10, 35), aliceWindows[1].Start)
	assert.Equal(t, at(18, 0), aliceWindows[1].End)

	// Боб свободен весь день
	bobWindows := day.Staff[1].Windows
	require.Len(t, bobWindows, 1)
	assert.Equal(t, at(9, 0), bobWindows[0].Start)
	assert.Equal(t, at(18, 0), bobWindows[0].End)

	// Пул: одно бронирование при емкости 2 не блокирует ничего
	require.Len(t, day.Pool, 1)
	assert.Equal(t, at(9, 0), day.Pool[0].Start)
	assert.Equal(t, at(18, 0), day.Pool[0].End)
}

func TestDayAvailability_BreakBlocksEveryone(t *testing.T) {
	sched := workday(time.Monday)
	sched.BreakStart = tsPtr("12:00")
	sched.BreakEnd = tsPtr("13:00")

	svc := newTestService(
		map[time.Weekday]*domain.Schedule{time.Monday: sched},
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}},
		nil,
	)

	day, err := svc.DayAvailability(context.Background(), testProvider(), at(0, 0), 30, nil)
	require.NoError(t, err)

	// Перерыв 12:00-13:00 с буфером 5 минут блокирует 11:55-13:05
	require.Len(t, day.Staff, 1)
	windows := day.Staff[0].Windows
	require.Len(t, windows, 2)
	assert.Equal(t, at(9, 0), windows[0].Start)
	assert.Equal(t, at(11, 55), windows[0].End)
	assert.Equal(t, at(13, 5), windows[1].Start)
	assert.Equal(t, at(18, 0), windows[1].End)

	require.Len(t, day.Pool, 2)
	assert.Equal(t, at(11, 55), day.Pool[0].End)
	assert.Equal(t, at(13, 5), day.Pool[1].Start)
}

func TestDayAvailability_PoolBlockedAtFullCapacity(t *testing.T) {
	alice := int64(1)
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{time.Monday: workday(time.Monday)},
		[]*domain.StaffMember{
			{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true},
			{ID: 2, ProviderID: 1, Name: "Bob", IsActive: true},
		},
		[]*domain.Reservation{
			{ID: 100, ProviderID: 1, StaffMemberID: &alice, StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed},
			{ID: 101, ProviderID: 1, StaffMemberID: nil, StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusPending},
		},
	)

	day, err := svc.DayAvailability(context.Background(), testProvider(), at(0, 0), 30, nil)
	require.NoError(t, err)

	// Два активных бронирования при емкости 2: пул закрыт на 09:55-10:35
	require.Len(t, day.Pool, 2)
	assert.Equal(t, at(9, 0), day.Pool[0].Start)
	assert.Equal(t, at(9, 55), day.Pool[0].End)
	assert.Equal(t, at(10, 35), day.Pool[1].Start)
	assert.Equal(t, at(18, 0), day.Pool[1].End)
}

func TestDayAvailability_ExcludeReservation(t *testing.T) {
	alice := int64(1)
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{time.Monday: workday(time.Monday)},
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}},
		[]*domain.Reservation{
			{ID: 100, ProviderID: 1, StaffMemberID: &alice, StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed},
		},
	)

	excludeID := int64(100)
	day, err := svc.DayAvailability(context.Background(), testProvider(), at(0, 0), 30, &excludeID)
	require.NoError(t, err)

	// Исключенное бронирование не блокирует собственное окно
	require.Len(t, day.Staff, 1)
	require.Len(t, day.Staff[0].Windows, 1)
	assert.Equal(t, at(9, 0), day.Staff[0].Windows[0].Start)
	assert.Equal(t, at(18, 0), day.Staff[0].Windows[0].End)
}

func TestFindEarliestSlot_SkipsToNextDay(t *testing.T) {
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{
			time.Monday:  workday(time.Monday),
			time.Tuesday: workday(time.Tuesday),
		},
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}},
		nil,
	)

	// В понедельник после 17:50 получасовая услуга уже не помещается
	start, found, err := svc.FindEarliestSlot(context.Background(), testProvider(), nil, 30, at(17, 50), 14, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, at(9, 0).AddDate(0, 0, 1), start)
}

func TestFindEarliestSlot_NotFoundWithinHorizon(t *testing.T) {
	// Расписания нет ни на один день - провайдер закрыт
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{},
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}},
		nil,
	)

	_, found, err := svc.FindEarliestSlot(context.Background(), testProvider(), nil, 30, at(9, 0), 14, nil)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestFindEarliestSlot_PreferredStaff(t *testing.T) {
	alice, bob := int64(1), int64(2)
	svc := newTestService(
		map[time.Weekday]*domain.Schedule{time.Monday: workday(time.Monday)},
		[]*domain.StaffMember{
			{ID: alice, ProviderID: 1, Name: "Alice", IsActive: true},
			{ID: bob, ProviderID: 1, Name: "Bob", IsActive: true},
		},
		[]*domain.Reservation{
			{ID: 100, ProviderID: 1, StaffMemberID: &alice, StartsAt: at(9, 0), EndsAt: at(12, 0), Status: domain.StatusConfirmed},
		},
	)

	// Для Алисы первое окно - после брони с буфером
	start, found, err := svc.FindEarliestSlot(context.Background(), testProvider(), &alice, 30, at(9, 0), 14, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, at(12, 5), start)

	// Для Боба - сразу с открытия
	start, found, err = svc.FindEarliestSlot(context.Background(), testProvider(), &bob, 30, at(9, 0), 14, nil)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, at(9, 0), start)
}

func TestDiscretizeWindows(t *testing.T) {
	svc := newTestService(nil, nil, nil)

	starts := svc.DiscretizeWindows([]domain.Interval{
		{Start: at(9, 0), End: at(10, 0)},
	}, 30)

	require.Len(t, starts, 3)
	assert.Equal(t, at(9, 0), starts[0])
	assert.Equal(t, at(9, 15), starts[1])
	assert.Equal(t, at(9, 30), starts[2])
}

func TestCapacityWindows_BoundaryTouch(t *testing.T) {
	base := domain.Interval{Start: at(9, 0), End: at(12, 0)}
	blocked := []domain.Interval{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(10, 0), End: at(11, 0)},
	}

	// Емкость 1: граничащие блокировки не создают двойного счета в точке 10:00
	free := capacityWindows(base, blocked, 1)

	require.Len(t, free, 1)
	assert.Equal(t, at(11, 0), free[0].Start)
	assert.Equal(t, at(12, 0), free[0].End)
}

func TestCapacityWindows_PartialOverlap(t *testing.T) {
	base := domain.Interval{Start: at(9, 0), End: at(12, 0)}
	blocked := []domain.Interval{
		{Start: at(9, 30), End: at(10, 30)},
		{Start: at(10, 0), End: at(11, 0)},
	}

	// Емкость 2: занят только отрезок, где пересекаются обе блокировки
	free := capacityWindows(base, blocked, 2)

	require.Len(t, free, 2)
	assert.Equal(t, at(9, 0), free[0].Start)
	assert.Equal(t, at(10, 0), free[0].End)
	assert.Equal(t, at(10, 30), free[1].Start)
	assert.Equal(t, at(12, 0), free[1].End)
}
