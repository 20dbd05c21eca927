package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func reservationAt(staffID *int64, start, end time.Time) *Reservation {
	return &Reservation{
		StaffMemberID: staffID,
		StartsAt:      start,
		EndsAt:        end,
		Status:        StatusConfirmed,
	}
}

func TestReservation_ConflictsWith_SameStaff(t *testing.T) {
	staff := int64(7)
	buffer := 5 * time.Minute

	a := reservationAt(&staff, at(10, 0), at(10, 30))
	b := reservationAt(&staff, at(10, 30), at(11, 0))

	// Встык с тем же сотрудником - конфликт из-за буфера
	assert.True(t, a.ConflictsWith(b, buffer))

	// С зазором не меньше буфера конфликта нет
	c := reservationAt(&staff, at(10, 35), at(11, 0))
	assert.False(t, a.ConflictsWith(c, buffer))
}

func TestReservation_ConflictsWith_DifferentStaff(t *testing.T) {
	alice, bob := int64(1), int64(2)
	buffer := 5 * time.Minute

	a := reservationAt(&alice, at(10, 0), at(10, 30))
	b := reservationAt(&bob, at(10, 0), at(10, 30))

	// Разные сотрудники параллельно не конфликтуют
	assert.False(t, a.ConflictsWith(b, buffer))
}

func TestReservation_ConflictsWith_Unassigned(t *testing.T) {
	staff := int64(1)
	buffer := 5 * time.Minute

	pool := reservationAt(nil, at(10, 0), at(10, 30))
	assigned := reservationAt(&staff, at(10, 15), at(10, 45))

	// Непривязанное бронирование конкурирует с любым местом
	assert.True(t, pool.ConflictsWith(assigned, buffer))
	assert.True(t, assigned.ConflictsWith(pool, buffer))
}

func TestReservation_StatusPredicates(t *testing.T) {
	r := &Reservation{Status: StatusPending}
	assert.True(t, r.CanBeCancelled())
	assert.True(t, r.CanBeCompleted())
	assert.True(t, r.IsActive())

	r.Status = StatusConfirmed
	assert.True(t, r.CanBeCancelled())
	assert.True(t, r.CanBeCompleted())

	r.Status = StatusCompleted
	assert.False(t, r.CanBeCancelled())
	assert.False(t, r.CanBeCompleted())

	r.Status = StatusCancelled
	assert.False(t, r.CanBeCancelled())
	assert.False(t, r.IsActive())
}

func TestReservation_BlockedInterval(t *testing.T) {
	r := reservationAt(nil, at(10, 0), at(10, 30))
	blocked := r.BlockedInterval(5 * time.Minute)

	assert.Equal(t, at(9, 55), blocked.Start)
	assert.Equal(t, at(10, 35), blocked.End)
}
