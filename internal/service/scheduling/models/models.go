package models

import (
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
)

// StaffAvailability свободные окна конкретного сотрудника на дату
type StaffAvailability struct {
	StaffMember *domain.StaffMember
	Windows     []domain.Interval
}

// DayAvailability вычисленная доступность провайдера на одну дату
// Pool - окна общего пула: отрезки, где число активных бронирований
// меньше числа активных сотрудников
type DayAvailability struct {
	ProviderID int64
	Date       time.Time
	Working    domain.Interval
	Capacity   int
	// Duration - длительность, по которой отфильтрованы окна
	// (запрошенная либо подставленная по умолчанию)
	Duration time.Duration
	Staff    []StaffAvailability
	Pool     []domain.Interval
}

// WindowsFor возвращает окна для запрошенного ресурса:
// конкретного сотрудника либо общего пула
func (d *DayAvailability) WindowsFor(staffMemberID *int64) []domain.Interval {
	if staffMemberID == nil {
		return d.Pool
	}
	for _, sa := range d.Staff {
		if sa.StaffMember.ID == *staffMemberID {
			return sa.Windows
		}
	}
	return nil
}
