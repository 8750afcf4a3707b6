package models

// Виды уведомлений, публикуемых ядром. Сервис доставки использует их
// для маршрутизации и метрик, текст сообщения уже сформирован отправителем.
const (
	NotificationPaymentAccepted = "payment_accepted"
	NotificationProgress        = "progress"
	NotificationRenewal         = "renewal"
	NotificationCheckin         = "checkin"
	NotificationExpired         = "expired"
	NotificationPlanReady       = "plan_ready"
)

// Notification — запрос на доставку сообщения пользователю.
// Публикуется в очередь и обрабатывается сервисом-отправителем;
// ядро не ждёт результата доставки.
type Notification struct {
	TelegramID int64  `json:"telegram_id"`
	Kind       string `json:"kind"`
	Text       string `json:"text"`
}

// PlanRequest — запрос на перегенерацию недельного плана питания.
// Ставится в очередь и потребляется AI-воркером вне ядра.
type PlanRequest struct {
	UserID     int64 `json:"user_id"`
	TelegramID int64 `json:"telegram_id"`
}
