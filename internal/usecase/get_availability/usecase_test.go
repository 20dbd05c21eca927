package get_availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	providerRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/provider"
	schedModels "github.com/m04kA/SMC-ScheduleService/internal/service/scheduling/models"
)

type fakeProviderRepo struct {
	provider *domain.Provider
}

func (f *fakeProviderRepo) GetByID(_ context.Context, id int64) (*domain.Provider, error) {
	if f.provider == nil || f.provider.ID != id {
		return nil, providerRepo.ErrProviderNotFound
	}
	return f.provider, nil
}

type fakeSchedulingService struct {
	day *schedModels.DayAvailability
}

func (f *fakeSchedulingService) DayAvailability(_ context.Context, _ *domain.Provider, _ time.Time, _ int, _ *int64) (*schedModels.DayAvailability, error) {
	return f.day, nil
}

func (f *fakeSchedulingService) DiscretizeWindows(windows []domain.Interval, _ int) []time.Time {
	starts := make([]time.Time, 0, len(windows))
	for _, w := range windows {
		starts = append(starts, w.Start)
	}
	return starts
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

func testDay() *schedModels.DayAvailability {
	windows := []domain.Interval{
		{Start: at(10, 0), End: at(11, 0)},
		{Start: at(13, 0), End: at(14, 0)},
	}
	return &schedModels.DayAvailability{
		ProviderID: 1,
		Date:       at(0, 0),
		Working:    domain.Interval{Start: at(9, 0), End: at(18, 0)},
		Capacity:   1,
		Duration:   30 * time.Minute,
		Staff: []schedModels.StaffAvailability{{
			StaffMember: &domain.StaffMember{ID: 1, ProviderID: 1, Name: "Alice", IsActive: true},
			Windows:     windows,
		}},
		Pool: windows,
	}
}

func newTestUseCase(day *schedModels.DayAvailability, now time.Time) *UseCase {
	uc := NewUseCase(
		&fakeProviderRepo{provider: &domain.Provider{ID: 1, Name: "Garage", Timezone: "UTC"}},
		&fakeSchedulingService{day: day},
		60*time.Minute,
		nopLogger{},
	)
	uc.timeProvider = staticTimeProvider{now: now}
	return uc
}

func TestExecute_ReturnsWindows(t *testing.T) {
	// now 07:00, lead time час - окна не обрезаются
	uc := newTestUseCase(testDay(), at(7, 0))

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 1, Date: at(0, 0), DurationMinutes: 30})
	require.NoError(t, err)

	require.Len(t, resp.Staff, 1)
	require.Len(t, resp.Staff[0].Windows, 2)
	assert.Equal(t, at(10, 0), resp.Staff[0].Windows[0].Start)
	require.Len(t, resp.Pool, 2)
	assert.Equal(t, []time.Time{at(10, 0), at(13, 0)}, resp.PoolSlots)
}

func TestExecute_ClippedWindowTooShortDropped(t *testing.T) {
	// notBefore = 09:45 + час = 10:45: от окна 10:00-11:00 остается 15 минут,
	// услуга на 30 минут туда уже не помещается
	uc := newTestUseCase(testDay(), at(9, 45))

	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 1, Date: at(0, 0), DurationMinutes: 30})
	require.NoError(t, err)

	require.Len(t, resp.Staff, 1)
	require.Len(t, resp.Staff[0].Windows, 1)
	assert.Equal(t, at(13, 0), resp.Staff[0].Windows[0].Start)

	require.Len(t, resp.Pool, 1)
	assert.Equal(t, at(13, 0), resp.Pool[0].Start)
	assert.Equal(t, []time.Time{at(13, 0)}, resp.PoolSlots)
}

func TestExecute_StaffFilter(t *testing.T) {
	uc := newTestUseCase(testDay(), at(7, 0))

	staffID := int64(1)
	resp, err := uc.Execute(context.Background(), &Request{ProviderID: 1, Date: at(0, 0), StaffMemberID: &staffID, DurationMinutes: 30})
	require.NoError(t, err)
	require.Len(t, resp.Staff, 1)
	assert.Empty(t, resp.Pool)

	unknown := int64(9)
	_, err = uc.Execute(context.Background(), &Request{ProviderID: 1, Date: at(0, 0), StaffMemberID: &unknown, DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrStaffNotFound)
}

func TestExecute_ProviderNotFound(t *testing.T) {
	uc := newTestUseCase(testDay(), at(7, 0))

	_, err := uc.Execute(context.Background(), &Request{ProviderID: 777, Date: at(0, 0), DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrProviderNotFound)
}
