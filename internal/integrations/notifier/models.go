package notifier

// NotificationKind тип уведомления
type NotificationKind string

const (
	// KindRescheduled уведомление о переносе бронирования
	KindRescheduled NotificationKind = "reservation_rescheduled"
	// KindCancelled уведомление об отмене бронирования
	KindCancelled NotificationKind = "reservation_cancelled"
	// KindRefundCompleted уведомление об успешном возврате средств
	KindRefundCompleted NotificationKind = "refund_completed"
	// KindRefundFailed уведомление о неуспешном возврате средств
	KindRefundFailed NotificationKind = "refund_failed"
)

// notifyRequest тело запроса на отправку уведомления
type notifyRequest struct {
	Phone   string            `json:"phone"`
	Kind    NotificationKind  `json:"kind"`
	Payload map[string]string `json:"payload,omitempty"`
}

// notifyResponse ответ сервиса уведомлений
type notifyResponse struct {
	Delivered bool `json:"delivered"`
}
