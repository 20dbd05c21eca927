package reservations

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	paymentRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/payment"
	reservationRepo "github.com/m04kA/SMC-ScheduleService/internal/infra/storage/reservation"
	"github.com/m04kA/SMC-ScheduleService/internal/service/reservations/models"
)

type fakeReservationRepo struct {
	reservations map[int64]*domain.Reservation
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, reservationRepo.ErrReservationNotFound
	}
	copied := *res
	return &copied, nil
}

func (f *fakeReservationRepo) GetByClientID(_ context.Context, clientID int64, status *domain.ReservationStatus) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, res := range f.reservations {
		if res.ClientID != clientID {
			continue
		}
		if status != nil && res.Status != *status {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeReservationRepo) GetWithFilter(_ context.Context, filter domain.ReservationsFilter) ([]*domain.Reservation, error) {
	var out []*domain.Reservation
	for _, res := range f.reservations {
		if res.ProviderID != filter.ProviderID {
			continue
		}
		if !filter.IncludeInactive && !res.IsActive() {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (f *fakeReservationRepo) UpdateStatus(_ context.Context, id int64, status domain.ReservationStatus) error {
	f.reservations[id].Status = status
	return nil
}

func (f *fakeReservationRepo) SetPaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) error {
	f.reservations[id].PaymentStatus = status
	return nil
}

type fakeProviderRepo struct {
	provider *domain.Provider
}

func (f *fakeProviderRepo) GetByID(_ context.Context, _ int64) (*domain.Provider, error) {
	return f.provider, nil
}

type fakePaymentRepo struct {
	payments []*domain.Payment
}

func (f *fakePaymentRepo) CreatePayment(_ context.Context, p *domain.Payment) (*domain.Payment, error) {
	created := *p
	created.ID = int64(len(f.payments) + 1)
	f.payments = append(f.payments, &created)
	return &created, nil
}

func (f *fakePaymentRepo) GetPaymentByReservationID(_ context.Context, reservationID int64) (*domain.Payment, error) {
	for _, p := range f.payments {
		if p.ReservationID == reservationID {
			return p, nil
		}
	}
	return nil, paymentRepo.ErrPaymentNotFound
}

func (f *fakePaymentRepo) UpdatePaymentStatus(_ context.Context, _ int64, _ domain.PaymentStatus) error {
	return nil
}

type fakeGateway struct {
	valid bool
	err   error
	calls int
}

func (f *fakeGateway) VerifySignature(_ context.Context, _, _, _ string) (bool, error) {
	f.calls++
	return f.valid, f.err
}

type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

const (
	ownerID   = int64(42)
	managerID = int64(5)
)

func pendingReservation() *domain.Reservation {
	starts := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	return &domain.Reservation{
		ID: 1, TokenNumber: "R-AAAA0001", ProviderID: 1,
		ClientID: ownerID, ClientPhone: "+79990001122",
		ServiceName: "Замена масла", ServicePrice: 1500, DurationMinutes: 30,
		StartsAt: starts, EndsAt: starts.Add(30 * time.Minute),
		Status: domain.StatusPending, PaymentStatus: domain.PaymentPending,
	}
}

type fixture struct {
	svc     *Service
	resRepo *fakeReservationRepo
	payRepo *fakePaymentRepo
	gateway *fakeGateway
}

func newFixture(res *domain.Reservation, gateway *fakeGateway) *fixture {
	resRepo := &fakeReservationRepo{reservations: map[int64]*domain.Reservation{res.ID: res}}
	payRepo := &fakePaymentRepo{}
	providerRepo := &fakeProviderRepo{provider: &domain.Provider{
		ID: 1, Name: "Garage", Timezone: "UTC", ManagerIDs: []int64{managerID},
	}}

	svc := NewService(resRepo, providerRepo, payRepo, gateway, passthroughTxManager{}, nopLogger{})
	return &fixture{svc: svc, resRepo: resRepo, payRepo: payRepo, gateway: gateway}
}

func confirmRequest(userID int64) *models.ConfirmReservationRequest {
	return &models.ConfirmReservationRequest{
		UserID:     userID,
		OrderRef:   "order_123",
		PaymentRef: "pay_456",
		Signature:  "sig_abc",
	}
}

func TestConfirm_Success(t *testing.T) {
	f := newFixture(pendingReservation(), &fakeGateway{valid: true})

	resp, err := f.svc.Confirm(context.Background(), 1, confirmRequest(ownerID))
	require.NoError(t, err)

	assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	assert.Equal(t, string(domain.PaymentPaid), resp.PaymentStatus)

	// Платеж создан с суммой услуги и ссылками из запроса
	require.Len(t, f.payRepo.payments, 1)
	payment := f.payRepo.payments[0]
	assert.Equal(t, int64(1), payment.ReservationID)
	assert.Equal(t, "order_123", payment.OrderRef)
	assert.Equal(t, "pay_456", payment.PaymentRef)
	assert.InDelta(t, 1500.0, payment.Amount, 1e-9)
	assert.Equal(t, domain.PaymentPaid, payment.Status)
}

func TestConfirm_InvalidSignature(t *testing.T) {
	f := newFixture(pendingReservation(), &fakeGateway{valid: false})

	_, err := f.svc.Confirm(context.Background(), 1, confirmRequest(ownerID))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Ничего не записано
	assert.Empty(t, f.payRepo.payments)
	assert.Equal(t, domain.StatusPending, f.resRepo.reservations[1].Status)
}

func TestConfirm_AlreadyConfirmed(t *testing.T) {
	res := pendingReservation()
	res.Status = domain.StatusConfirmed
	f := newFixture(res, &fakeGateway{valid: true})

	_, err := f.svc.Confirm(context.Background(), 1, confirmRequest(ownerID))
	assert.ErrorIs(t, err, ErrAlreadyConfirmed)
	assert.Zero(t, f.gateway.calls)
}

func TestConfirm_CancelledNotConfirmable(t *testing.T) {
	res := pendingReservation()
	res.Status = domain.StatusCancelled
	f := newFixture(res, &fakeGateway{valid: true})

	_, err := f.svc.Confirm(context.Background(), 1, confirmRequest(ownerID))
	assert.ErrorIs(t, err, ErrNotConfirmable)
}

func TestConfirm_OnlyOwner(t *testing.T) {
	f := newFixture(pendingReservation(), &fakeGateway{valid: true})

	_, err := f.svc.Confirm(context.Background(), 1, confirmRequest(managerID))
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestConfirm_NotFound(t *testing.T) {
	f := newFixture(pendingReservation(), &fakeGateway{valid: true})

	_, err := f.svc.Confirm(context.Background(), 99, confirmRequest(ownerID))
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestGetByID_Access(t *testing.T) {
	f := newFixture(pendingReservation(), &fakeGateway{})

	// Владелец видит бронирование
	resp, err := f.svc.GetByID(context.Background(), 1, ownerID)
	require.NoError(t, err)
	assert.Equal(t, "R-AAAA0001", resp.TokenNumber)

	// Менеджер провайдера тоже
	_, err = f.svc.GetByID(context.Background(), 1, managerID)
	require.NoError(t, err)

	// Посторонний - нет
	_, err = f.svc.GetByID(context.Background(), 1, int64(999))
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestGetClientReservations_StatusFilter(t *testing.T) {
	res := pendingReservation()
	f := newFixture(res, &fakeGateway{})

	cancelled := pendingReservation()
	cancelled.ID = 2
	cancelled.TokenNumber = "R-AAAA0002"
	cancelled.Status = domain.StatusCancelled
	f.resRepo.reservations[2] = cancelled

	status := string(domain.StatusPending)
	resp, err := f.svc.GetClientReservations(context.Background(), &models.GetClientReservationsRequest{
		ClientID: ownerID,
		Status:   &status,
	})
	require.NoError(t, err)
	require.Len(t, resp.Reservations, 1)
	assert.Equal(t, "R-AAAA0001", resp.Reservations[0].TokenNumber)

	bad := "unknown"
	_, err = f.svc.GetClientReservations(context.Background(), &models.GetClientReservationsRequest{
		ClientID: ownerID,
		Status:   &bad,
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetProviderReservations_ManagerOnly(t *testing.T) {
	f := newFixture(pendingReservation(), &fakeGateway{})

	resp, err := f.svc.GetProviderReservations(context.Background(), &models.GetProviderReservationsRequest{
		UserID:     managerID,
		ProviderID: 1,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Reservations, 1)

	_, err = f.svc.GetProviderReservations(context.Background(), &models.GetProviderReservationsRequest{
		UserID:     ownerID,
		ProviderID: 1,
	})
	assert.ErrorIs(t, err, ErrAccessDenied)
}
