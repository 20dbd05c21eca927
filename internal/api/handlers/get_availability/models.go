package get_availability

import (
	"time"

	"github.com/m04kA/SMC-ScheduleService/internal/domain"
	getAvailability "github.com/m04kA/SMC-ScheduleService/internal/usecase/get_availability"
)

// WindowResponse свободное окно в ответе API
type WindowResponse struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// StaffWindowsResponse окна одного сотрудника
type StaffWindowsResponse struct {
	StaffMemberID int64            `json:"staffMemberId"`
	Name          string           `json:"name"`
	Windows       []WindowResponse `json:"windows"`
	SlotStarts    []string         `json:"slotStarts"`
}

// AvailabilityResponse модель ответа HTTP API
type AvailabilityResponse struct {
	ProviderID int64                  `json:"providerId"`
	Date       string                 `json:"date"`
	Capacity   int                    `json:"capacity"`
	Staff      []StaffWindowsResponse `json:"staff"`
	Pool       []WindowResponse       `json:"pool,omitempty"`
	PoolSlots  []string               `json:"poolSlots,omitempty"`
}

// FromUseCaseResponse конвертирует ответ usecase в модель ответа API
func FromUseCaseResponse(resp *getAvailability.Response) *AvailabilityResponse {
	out := &AvailabilityResponse{
		ProviderID: resp.ProviderID,
		Date:       resp.Date.Format(domain.DateFormat),
		Capacity:   resp.Capacity,
		Staff:      make([]StaffWindowsResponse, 0, len(resp.Staff)),
		Pool:       toWindowResponses(resp.Pool),
		PoolSlots:  toTimeStrings(resp.PoolSlots),
	}

	for _, sw := range resp.Staff {
		out.Staff = append(out.Staff, StaffWindowsResponse{
			StaffMemberID: sw.StaffMemberID,
			Name:          sw.Name,
			Windows:       toWindowResponses(sw.Windows),
			SlotStarts:    toTimeStrings(sw.SlotStarts),
		})
	}

	return out
}

func toWindowResponses(windows []getAvailability.Window) []WindowResponse {
	out := make([]WindowResponse, 0, len(windows))
	for _, w := range windows {
		out = append(out, WindowResponse{
			Start: w.Start.Format(time.RFC3339),
			End:   w.End.Format(time.RFC3339),
		})
	}
	return out
}

func toTimeStrings(times []time.Time) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.Format(time.RFC3339))
	}
	return out
}
