package update_provider_schedule

import (
	"github.com/m04kA/SMC-ScheduleService/internal/service/schedules/models"
)

// UpdateScheduleRequest модель тела запроса на обновление недельного расписания
type UpdateScheduleRequest struct {
	Days []models.DayScheduleInput `json:"days"`
}

// ToServiceRequest конвертирует HTTP-запрос в модель сервисного слоя
func (r *UpdateScheduleRequest) ToServiceRequest(userID int64) *models.UpdateScheduleRequest {
	return &models.UpdateScheduleRequest{
		UserID: userID,
		Days:   r.Days,
	}
}
