package create_reservation

import (
	"time"
)

// Request модель запроса на создание бронирования
type Request struct {
	ClientID    int64  // ID клиента
	ClientPhone string // Телефон клиента для уведомлений
	ProviderID  int64  // ID провайдера
	// Конкретный сотрудник; nil - бронирование в общий пул провайдера
	StaffMemberID *int64

	// Данные услуги (каталог внешний, денормализуются при создании)
	ServiceName     string  // Название услуги
	ServicePrice    float64 // Цена услуги
	DurationMinutes int     // Длительность в минутах (обязательна)

	StartsAt time.Time // Запрошенное время начала (абсолютное)
	Notes    *string   // Дополнительные заметки (опционально)
}

// Response модель ответа с созданным бронированием
type Response struct {
	ID            int64     // ID созданного бронирования
	TokenNumber   string    // Человекочитаемый номер бронирования
	ProviderID    int64     // ID провайдера
	StaffMemberID *int64    // ID сотрудника (nil - общий пул)
	ClientID      int64     // ID клиента
	StartsAt      time.Time // Время начала
	EndsAt        time.Time // Время окончания
	Status        string    // Статус бронирования
	PaymentStatus string    // Статус оплаты

	ServiceName     string  // Название услуги
	ServicePrice    float64 // Цена услуги
	DurationMinutes int     // Длительность в минутах
	Notes           *string // Заметки

	CreatedAt time.Time // Время создания
}
