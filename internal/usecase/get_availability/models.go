package get_availability

import (
	"time"
)

// Request модель запроса доступности провайдера на дату
type Request struct {
	ProviderID      int64      // ID провайдера
	Date            time.Time  // Дата (без времени)
	StaffMemberID   *int64     // Конкретный сотрудник (опционально, nil - все и общий пул)
	DurationMinutes int        // Длительность услуги в минутах (0 - использовать default)
}

// Window свободное окно
type Window struct {
	Start time.Time // Начало окна
	End   time.Time // Конец окна
}

// StaffWindows свободные окна сотрудника
type StaffWindows struct {
	StaffMemberID int64       // ID сотрудника
	Name          string      // Имя сотрудника
	Windows       []Window    // Непрерывные свободные окна
	SlotStarts    []time.Time // Кандидатные времена начала с шагом дискретизации
}

// Response модель ответа с доступностью на дату
type Response struct {
	ProviderID int64          // ID провайдера
	Date       time.Time      // Дата
	Capacity   int            // Число активных сотрудников (емкость пула)
	Staff      []StaffWindows // Окна по сотрудникам
	Pool       []Window       // Окна общего пула (без привязки к сотруднику)
	PoolSlots  []time.Time    // Кандидатные времена начала в общем пуле
}
