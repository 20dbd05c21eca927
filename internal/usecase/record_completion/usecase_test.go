package record_completion

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	"github.com/m04kA/SMC-ScheduleService/internal/integrations/notifier"
)

type fakeReservationRepo struct {
	reservations map[int64]*domain.Reservation

	completedID  int64
	completedAt  time.Time
	rescheduled  []int64
	rescheduleTo map[int64]time.Time
}

func newFakeReservationRepo(reservations ...*domain.Reservation) *fakeReservationRepo {
	byID := make(map[int64]*domain.Reservation, len(reservations))
	for _, res := range reservations {
		byID[res.ID] = res
	}
	return &fakeReservationRepo{
		reservations: byID,
		rescheduleTo: make(map[int64]time.Time),
	}
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	return f.reservations[id], nil
}

func (f *fakeReservationRepo) Complete(_ context.Context, id int64, actualEndsAt time.Time) error {
	f.completedID = id
	f.completedAt = actualEndsAt
	res := f.reservations[id]
	res.Status = domain.StatusCompleted
	res.ActualEndsAt = &actualEndsAt
	return nil
}

func (f *fakeReservationRepo) GetStartingBetween(_ context.Context, providerID int64, after, until time.Time) ([]*domain.Reservation, error) {
	var matched []*domain.Reservation
	for _, res := range f.reservations {
		if res.ProviderID != providerID || !res.IsActive() {
			continue
		}
		if res.StartsAt.Before(after) || !res.StartsAt.Before(until) {
			continue
		}
		matched = append(matched, res)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].StartsAt.Before(matched[j].StartsAt)
	})
	return matched, nil
}

func (f *fakeReservationRepo) Reschedule(_ context.Context, id int64, newStart, newEnd time.Time, reason string, rescheduledFromID int64) error {
	res := f.reservations[id]
	original := res.StartsAt
	res.WasRescheduled = true
	res.OriginalStartsAt = &original
	res.RescheduledReason = &reason
	res.RescheduledFromID = &rescheduledFromID
	res.StartsAt = newStart
	res.EndsAt = newEnd
	f.rescheduled = append(f.rescheduled, id)
	f.rescheduleTo[id] = newStart
	return nil
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

// fakeScheduler выдает заранее заданные окна по очереди
type fakeScheduler struct {
	slots []time.Time
	calls int
}

func (f *fakeScheduler) FindEarliestSlot(_ context.Context, _ *domain.Provider, _ *int64, _ int, _ time.Time, _ int, _ *int64) (time.Time, bool, error) {
	f.calls++
	if len(f.slots) == 0 {
		return time.Time{}, false, nil
	}
	slot := f.slots[0]
	f.slots = f.slots[1:]
	return slot, true, nil
}

type fakeNotifier struct {
	phones []string
	kinds  []notifier.NotificationKind
}

func (f *fakeNotifier) NotifySafe(_ context.Context, phone string, kind notifier.NotificationKind, _ map[string]string) bool {
	f.phones = append(f.phones, phone)
	f.kinds = append(f.kinds, kind)
	return true
}

type passthroughTxManager struct{}

func (passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
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
	return time.Date(2025, 6, 2, hour, min, 0, 0, time.UTC)
}

const managerID = int64(5)

func testProvider() *domain.Provider {
	return &domain.Provider{ID: 1, Name: "Garage", Timezone: "UTC", ManagerIDs: []int64{managerID}}
}

func assigned(id int64, staffID int64, token string, start, end time.Time) *domain.Reservation {
	return &domain.Reservation{
		ID: id, TokenNumber: token, ProviderID: 1, StaffMemberID: &staffID,
		ClientID: 100 + id, ClientPhone: "+7999000" + token,
		DurationMinutes: int(end.Sub(start).Minutes()),
		StartsAt:        start, EndsAt: end, Status: domain.StatusConfirmed,
	}
}

func newUC(repo *fakeReservationRepo, scheduler *fakeScheduler, notify *fakeNotifier) *UseCase {
	uc := NewUseCase(
		repo,
		&fakeProviderRepo{provider: testProvider()},
		scheduler,
		notify,
		passthroughTxManager{},
		5*time.Minute,
		5*time.Minute,
		14,
		nopLogger{},
	)
	uc.timeProvider = staticTimeProvider{now: at(12, 0)}
	return uc
}

func TestExecute_WithinToleranceNoCascade(t *testing.T) {
	alice := int64(1)
	repo := newFakeReservationRepo(
		assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30)),
		assigned(2, alice, "R-AAAA0002", at(10, 35), at(11, 5)),
	)
	scheduler := &fakeScheduler{}
	notify := &fakeNotifier{}
	uc := newUC(repo, scheduler, notify)

	// Переработка 4 минуты при допуске 5 - каскада нет
	actualEnd := at(10, 34)
	resp, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: managerID, ActualEndsAt: &actualEnd})
	require.NoError(t, err)

	assert.False(t, resp.CascadeTriggered)
	assert.InDelta(t, 4.0, resp.OvertimeMinutes, 1e-9)
	assert.Equal(t, int64(1), repo.completedID)
	assert.Equal(t, actualEnd, repo.completedAt)
	assert.Empty(t, repo.rescheduled)
	assert.Zero(t, scheduler.calls)
	assert.Empty(t, notify.phones)
}

func TestExecute_CascadeReschedulesInStartOrder(t *testing.T) {
	alice := int64(1)
	repo := newFakeReservationRepo(
		assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30)),
		// Специально в обратном порядке создания: порядок каскада
		// определяется временем начала, не ID
		assigned(3, alice, "R-AAAA0003", at(11, 10), at(11, 40)),
		assigned(2, alice, "R-AAAA0002", at(10, 35), at(11, 5)),
	)
	scheduler := &fakeScheduler{slots: []time.Time{at(12, 5), at(12, 40)}}
	notify := &fakeNotifier{}
	uc := newUC(repo, scheduler, notify)

	// Фактическое окончание 11:30 - переработка 60 минут
	actualEnd := at(11, 30)
	resp, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: managerID, ActualEndsAt: &actualEnd})
	require.NoError(t, err)

	assert.True(t, resp.CascadeTriggered)
	assert.Equal(t, 2, resp.RescheduledCount)
	assert.Equal(t, 0, resp.UnresolvedCount)

	// Раньше запланированное бронирование получает более раннее окно
	require.Equal(t, []int64{2, 3}, repo.rescheduled)
	assert.Equal(t, at(12, 5), repo.rescheduleTo[2])
	assert.Equal(t, at(12, 40), repo.rescheduleTo[3])

	// Аудит переноса
	moved := repo.reservations[2]
	assert.True(t, moved.WasRescheduled)
	assert.Equal(t, at(10, 35), *moved.OriginalStartsAt)
	assert.Equal(t, domain.RescheduledOvertimeReason, *moved.RescheduledReason)
	assert.Equal(t, int64(1), *moved.RescheduledFromID)

	// Уведомления обоим клиентам после фиксации
	require.Len(t, notify.phones, 2)
	assert.Equal(t, []notifier.NotificationKind{notifier.KindRescheduled, notifier.KindRescheduled}, notify.kinds)
	for _, item := range resp.Rescheduled {
		assert.True(t, item.Notified)
	}
}

func TestExecute_OtherStaffUntouched(t *testing.T) {
	alice, bob := int64(1), int64(2)
	repo := newFakeReservationRepo(
		assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30)),
		assigned(2, bob, "R-AAAA0002", at(10, 35), at(11, 5)),
	)
	scheduler := &fakeScheduler{slots: []time.Time{at(12, 5)}}
	notify := &fakeNotifier{}
	uc := newUC(repo, scheduler, notify)

	actualEnd := at(11, 0)
	resp, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: managerID, ActualEndsAt: &actualEnd})
	require.NoError(t, err)

	// Переработка Алисы не трогает бронирования Боба
	assert.True(t, resp.CascadeTriggered)
	assert.Equal(t, 0, resp.RescheduledCount)
	assert.Empty(t, repo.rescheduled)
}

func TestExecute_UnresolvedWhenNoSlot(t *testing.T) {
	alice := int64(1)
	repo := newFakeReservationRepo(
		assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30)),
		assigned(2, alice, "R-AAAA0002", at(10, 35), at(11, 5)),
	)
	scheduler := &fakeScheduler{} // окон нет
	notify := &fakeNotifier{}
	uc := newUC(repo, scheduler, notify)

	actualEnd := at(11, 0)
	resp, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: managerID, ActualEndsAt: &actualEnd})
	require.NoError(t, err)

	assert.True(t, resp.CascadeTriggered)
	assert.Equal(t, 0, resp.RescheduledCount)
	assert.Equal(t, 1, resp.UnresolvedCount)
	assert.Empty(t, repo.rescheduled)
	// Неперенесенное бронирование остается на месте, уведомление не отправляется
	assert.Equal(t, at(10, 35), repo.reservations[2].StartsAt)
	assert.Empty(t, notify.phones)
}

func TestExecute_DefaultsToNow(t *testing.T) {
	alice := int64(1)
	repo := newFakeReservationRepo(assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30)))
	uc := newUC(repo, &fakeScheduler{}, &fakeNotifier{})

	// ActualEndsAt не задан - берется текущее время (12:00)
	resp, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: managerID})
	require.NoError(t, err)

	assert.Equal(t, at(12, 0), resp.ActualEndsAt)
	assert.InDelta(t, 90.0, resp.OvertimeMinutes, 1e-9)
}

func TestExecute_ActualEndBeforeStart(t *testing.T) {
	alice := int64(1)
	repo := newFakeReservationRepo(assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30)))
	uc := newUC(repo, &fakeScheduler{}, &fakeNotifier{})

	actualEnd := at(9, 59)
	_, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: managerID, ActualEndsAt: &actualEnd})
	assert.ErrorIs(t, err, ErrInvalidActualEnd)
}

func TestExecute_NotCompletable(t *testing.T) {
	alice := int64(1)
	res := assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30))
	res.Status = domain.StatusCancelled
	uc := newUC(newFakeReservationRepo(res), &fakeScheduler{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: managerID})
	assert.ErrorIs(t, err, ErrNotCompletable)
}

func TestExecute_AccessDenied(t *testing.T) {
	alice := int64(1)
	repo := newFakeReservationRepo(assigned(1, alice, "R-AAAA0001", at(10, 0), at(10, 30)))
	uc := newUC(repo, &fakeScheduler{}, &fakeNotifier{})

	_, err := uc.Execute(context.Background(), &Request{ReservationID: 1, UserID: 999})
	assert.ErrorIs(t, err, ErrAccessDenied)
}
