package create_reservation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	scheduleRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/schedule"
	staffRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/staff"
	"github.com/m04kA/SMC-ScheduleService/pkg/txmanager"
	"github.com/m04kA/SMC-ScheduleService/pkg/types"
)

type fakeReservationRepo struct {
	reservations []*domain.Reservation
	nextID       int64
}

func (f *fakeReservationRepo) Create(_ context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	f.nextID++
	created := *res
	created.ID = f.nextID
	created.CreatedAt = time.Now()
	f.reservations = append(f.reservations, &created)
	return &created, nil
}

func (f *fakeReservationRepo) GetOverlapping(_ context.Context, providerID int64, from, to time.Time) ([]*domain.Reservation, error) {
	window := domain.Interval{Start: from, End: to}
	overlapping := make([]*domain.Reservation, 0, len(f.reservations))
	for _, res := range f.reservations {
		if res.ProviderID == providerID && res.IsActive() && window.Overlaps(res.Interval()) {
			overlapping = append(overlapping, res)
		}
	}
	return overlapping, nil
}

type fakeProviderRepo struct {
	provider *domain.Provider
}

func (f *fakeProviderRepo) GetByID(_ context.Context, id int64) (*domain.Provider, error) {
	if f.provider == nil || f.provider.ID != id {
		return nil, providerRepo.ErrProviderNotFound
	}
	return f.provider, nil
}

func (f *fakeProviderRepo) LockForUpdate(_ context.Context, _ int64) error {
	return nil
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
	return nil, staffRepo.ErrStaffNotFound
}

func (f *fakeStaffRepo) CountActiveByProvider(_ context.Context, providerID int64) (int, error) {
	count := 0
	for _, m := range f.staff {
		if m.ProviderID == providerID && m.IsActive {
			count++
		}
	}
	return count, nil
}

func (f *fakeStaffRepo) LockForUpdate(_ context.Context, _ int64) error {
	return nil
}

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

type passthroughTxManager struct{}

func (passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type exhaustedTxManager struct{}

func (exhaustedTxManager) DoSerializable(context.Context, func(ctx context.Context) error) error {
	return txmanager.ErrRetriesExhausted
}

type staticTimeProvider struct {
	now time.Time
}

func (p staticTimeProvider) Now() time.Time {
	return p.now
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func at(hour, min int) time.Time {
	// 2 июня 2025 - понедельник
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

func mondaySchedule() map[time.Weekday]*domain.Schedule {
	return map[time.Weekday]*domain.Schedule{
		time.Monday: {
			ProviderID:  1,
			Weekday:     time.Monday,
			StartTime:   types.TimeString("09:00"),
			EndTime:     types.TimeString("18:00"),
			IsAvailable: true,
		},
	}
}

type fixture struct {
	uc           *UseCase
	reservations *fakeReservationRepo
}

func newFixture(staff []*domain.StaffMember, existing []*domain.Reservation) *fixture {
	resRepo := &fakeReservationRepo{reservations: existing, nextID: 1000}
	uc := NewUseCase(
		resRepo,
		&fakeProviderRepo{provider: &domain.Provider{ID: 1, Name: "Garage", Timezone: "UTC"}},
		&fakeStaffRepo{staff: staff},
		&fakeScheduleRepo{schedules: mondaySchedule()},
		passthroughTxManager{},
		5*time.Minute,
		60*time.Minute,
		nopLogger{},
	)
	uc.timeProvider = staticTimeProvider{now: at(7, 0)}
	return &fixture{uc: uc, reservations: resRepo}
}

func validRequest(staffID *int64, startsAt time.Time) *Request {
	return &Request{
		ClientID:        42,
		ClientPhone:     "+79990001122",
		ProviderID:      1,
		StaffMemberID:   staffID,
		ServiceName:     "Oil change",
		ServicePrice:    1500,
		DurationMinutes: 30,
		StartsAt:        startsAt,
	}
}

func TestExecute_CreatesReservation(t *testing.T) {
	alice := int64(1)
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}, nil)

	resp, err := f.uc.Execute(context.Background(), validRequest(&alice, at(10, 0)))
	require.NoError(t, err)

	assert.Equal(t, at(10, 0), resp.StartsAt)
	assert.Equal(t, at(10, 30), resp.EndsAt)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "pending", resp.PaymentStatus)
	assert.NotEmpty(t, resp.TokenNumber)
	require.Len(t, f.reservations.reservations, 1)
}

func TestExecute_RejectsDoubleBooking(t *testing.T) {
	alice := int64(1)
	f := newFixture(
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}},
		[]*domain.Reservation{{
			ID: 1, TokenNumber: "R-AAAA0001", ProviderID: 1, StaffMemberID: &alice,
			StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed,
		}},
	)

	_, err := f.uc.Execute(context.Background(), validRequest(&alice, at(10, 15)))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSlotConflict)

	var conflict *SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "R-AAAA0001", conflict.TokenNumber)
}

func TestExecute_BufferTooSmall(t *testing.T) {
	alice := int64(1)
	f := newFixture(
		[]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}},
		[]*domain.Reservation{{
			ID: 1, TokenNumber: "R-AAAA0001", ProviderID: 1, StaffMemberID: &alice,
			StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed,
		}},
	)

	// Встык к существующему - зазор 0 минут при буфере 5
	_, err := f.uc.Execute(context.Background(), validRequest(&alice, at(10, 30)))
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Зазор ровно в буфер - допустимо
	resp, err := f.uc.Execute(context.Background(), validRequest(&alice, at(10, 35)))
	require.NoError(t, err)
	assert.Equal(t, at(10, 35), resp.StartsAt)
}

func TestExecute_DifferentStaffDoNotConflict(t *testing.T) {
	alice, bob := int64(1), int64(2)
	f := newFixture(
		[]*domain.StaffMember{
			{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true},
			{ID: 2, ProviderID: 1, Name: "Bob", IsActive: true},
		},
		[]*domain.Reservation{{
			ID: 1, TokenNumber: "R-AAAA0001", ProviderID: 1, StaffMemberID: &alice,
			StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed,
		}},
	)

	resp, err := f.uc.Execute(context.Background(), validRequest(&bob, at(10, 0)))
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), resp.StartsAt)
}

func TestExecute_PoolCapacity(t *testing.T) {
	alice := int64(1)
	f := newFixture(
		[]*domain.StaffMember{
			{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true},
			{ID: 2, ProviderID: 1, Name: "Bob", IsActive: true},
		},
		[]*domain.Reservation{{
			ID: 1, TokenNumber: "R-AAAA0001", ProviderID: 1, StaffMemberID: &alice,
			StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed,
		}},
	)

	// Одно место из двух занято - непривязанное бронирование проходит
	resp, err := f.uc.Execute(context.Background(), validRequest(nil, at(10, 0)))
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), resp.StartsAt)

	// Оба места заняты - следующее отклоняется с номером конфликтующего
	_, err = f.uc.Execute(context.Background(), validRequest(nil, at(10, 0)))
	require.Error(t, err)

	var conflict *SlotConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "R-AAAA0001", conflict.TokenNumber)
}

func TestExecute_PoolCountsConcurrencyNotRows(t *testing.T) {
	f := newFixture(
		[]*domain.StaffMember{
			{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true},
			{ID: 2, ProviderID: 1, Name: "Bob", IsActive: true},
		},
		[]*domain.Reservation{
			{
				ID: 1, TokenNumber: "R-AAAA0001", ProviderID: 1,
				StartsAt: at(10, 0), EndsAt: at(10, 30), Status: domain.StatusConfirmed,
			},
			{
				ID: 2, TokenNumber: "R-AAAA0002", ProviderID: 1,
				StartsAt: at(11, 0), EndsAt: at(11, 30), Status: domain.StatusConfirmed,
			},
		},
	)

	// Два непересекающихся бронирования занимают одно место пула, не два:
	// длинное бронирование поверх обоих проходит при двух сотрудниках
	req := validRequest(nil, at(10, 0))
	req.DurationMinutes = 90
	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, at(11, 30), resp.EndsAt)

	// Третье бронирование в тот же интервал упирается в емкость
	_, err = f.uc.Execute(context.Background(), validRequest(nil, at(10, 0)))
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestExecute_NoActiveStaff(t *testing.T) {
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: false}}, nil)

	_, err := f.uc.Execute(context.Background(), validRequest(nil, at(10, 0)))
	assert.ErrorIs(t, err, ErrNoCapacity)
}

func TestExecute_InactiveStaffRejected(t *testing.T) {
	alice := int64(1)
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: false}}, nil)

	_, err := f.uc.Execute(context.Background(), validRequest(&alice, at(10, 0)))
	assert.ErrorIs(t, err, ErrStaffInactive)
}

func TestExecute_StaffFromAnotherProvider(t *testing.T) {
	stranger := int64(9)
	f := newFixture([]*domain.StaffMember{{ID: 9, ProviderID: 2, Name: "Stranger", IsActive: true}}, nil)

	_, err := f.uc.Execute(context.Background(), validRequest(&stranger, at(10, 0)))
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestExecute_MinLeadTime(t *testing.T) {
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}, nil)

	// now = 07:00, lead time 60 минут: старт в 07:30 слишком поздно бронировать
	_, err := f.uc.Execute(context.Background(), validRequest(nil, at(7, 30)))
	assert.ErrorIs(t, err, ErrTooLateToBook)

	// Ровно час - проходит (внутри рабочих часов с 09:00 не ранее)
	resp, err := f.uc.Execute(context.Background(), validRequest(nil, at(9, 0)))
	require.NoError(t, err)
	assert.Equal(t, at(9, 0), resp.StartsAt)
}

func TestExecute_OutsideWorkingHours(t *testing.T) {
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}, nil)

	// 17:45 + 30 минут вылезает за 18:00
	_, err := f.uc.Execute(context.Background(), validRequest(nil, at(17, 45)))
	assert.ErrorIs(t, err, ErrOutsideWorkingHours)
}

func TestExecute_BreakConflict(t *testing.T) {
	breakStart := types.TimeString("12:00")
	breakEnd := types.TimeString("13:00")
	schedules := mondaySchedule()
	schedules[time.Monday].BreakStart = &breakStart
	schedules[time.Monday].BreakEnd = &breakEnd

	resRepo := &fakeReservationRepo{}
	uc := NewUseCase(
		resRepo,
		&fakeProviderRepo{provider: &domain.Provider{ID: 1, Name: "Garage", Timezone: "UTC"}},
		&fakeStaffRepo{staff: []*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}},
		&fakeScheduleRepo{schedules: schedules},
		passthroughTxManager{},
		5*time.Minute,
		60*time.Minute,
		nopLogger{},
	)
	uc.timeProvider = staticTimeProvider{now: at(7, 0)}

	// Прямое пересечение с перерывом 12:00-13:00
	_, err := uc.Execute(context.Background(), validRequest(nil, at(11, 45)))
	assert.ErrorIs(t, err, ErrBreakConflict)

	// Заканчивается в 11:58 - до перерыва остается меньше буфера
	_, err = uc.Execute(context.Background(), validRequest(nil, at(11, 28)))
	assert.ErrorIs(t, err, ErrBreakConflict)

	// Встык к концу перерыва - зазора под буфер нет
	_, err = uc.Execute(context.Background(), validRequest(nil, at(13, 0)))
	assert.ErrorIs(t, err, ErrBreakConflict)

	// Зазор ровно в буфер после перерыва - допустимо
	resp, err := uc.Execute(context.Background(), validRequest(nil, at(13, 5)))
	require.NoError(t, err)
	assert.Equal(t, at(13, 5), resp.StartsAt)
}

func TestExecute_ClosedDay(t *testing.T) {
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}, nil)

	// 3 июня 2025 - вторник, расписания нет
	_, err := f.uc.Execute(context.Background(), validRequest(nil, at(10, 0).AddDate(0, 0, 1)))
	assert.ErrorIs(t, err, ErrProviderNotAvailable)
}

func TestExecute_ProviderNotFound(t *testing.T) {
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}, nil)

	req := validRequest(nil, at(10, 0))
	req.ProviderID = 777
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrProviderNotFound)
}

func TestExecute_RetriesExhausted(t *testing.T) {
	uc := NewUseCase(
		&fakeReservationRepo{},
		&fakeProviderRepo{provider: &domain.Provider{ID: 1, Name: "Garage", Timezone: "UTC"}},
		&fakeStaffRepo{staff: []*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}},
		&fakeScheduleRepo{schedules: mondaySchedule()},
		exhaustedTxManager{},
		5*time.Minute,
		60*time.Minute,
		nopLogger{},
	)
	uc.timeProvider = staticTimeProvider{now: at(7, 0)}

	_, err := uc.Execute(context.Background(), validRequest(nil, at(10, 0)))
	assert.ErrorIs(t, err, ErrRetriesExhausted)
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture([]*domain.StaffMember{{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true}}, nil)

	req := validRequest(nil, at(10, 0))
	req.DurationMinutes = 0
	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req = validRequest(nil, at(10, 0))
	req.ClientPhone = "   "
	_, err = f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
