package models

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentNotificationLogStatus string

const (
	PaymentNotificationLogStatusReceived     PaymentNotificationLogStatus = "received"
	PaymentNotificationLogStatusHandled      PaymentNotificationLogStatus = "handled"
	PaymentNotificationLogStatusRejected     PaymentNotificationLogStatus = "rejected"
	PaymentNotificationLogStatusHandleFailed PaymentNotificationLogStatus = "handle_failed"
)

// PaymentNotificationSource names the channel a gateway message arrived on.
type PaymentNotificationSource string

const (
	PaymentNotificationSourceWebhook   PaymentNotificationSource = "webhook"
	PaymentNotificationSourceReturn    PaymentNotificationSource = "redirect_return"
	PaymentNotificationSourceAuthorize PaymentNotificationSource = "authorize"
	PaymentNotificationSourceDetails   PaymentNotificationSource = "transaction_details"
	PaymentNotificationSourceAdmin     PaymentNotificationSource = "admin"
)

// PaymentNotificationLog is the append-only record of raw gateway messages.
type PaymentNotificationLog struct {
	ID               string                       `gorm:"column:id;type:varchar(36);primary_key" json:"id"`
	Source           PaymentNotificationSource    `gorm:"column:source;type:varchar(32);not null" json:"source"`
	OrderNo          string                       `gorm:"column:order_no;type:varchar(64);index" json:"order_no"`
	TraceID          string                       `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	TransactionID    string                       `gorm:"column:transaction_id;type:varchar(32);index" json:"transaction_id"`
	EventType        string                       `gorm:"column:event_type;type:varchar(64)" json:"event_type"`
	EventTID         string                       `gorm:"column:event_tid;type:varchar(32)" json:"event_tid"`
	NotificationTime time.Time                    `gorm:"column:notification_time" json:"notification_time"`
	Data             datatypes.JSON               `gorm:"column:data" json:"data"`
	Result           *datatypes.JSON              `gorm:"column:result" json:"result"`
	Status           PaymentNotificationLogStatus `gorm:"column:status;type:varchar(64);not null" json:"status"`
	CreatedAt        time.Time                    `json:"created_at"`
	UpdatedAt        time.Time                    `json:"updated_at"`
}

func (PaymentNotificationLog) TableName() string { return "payment_notification_log" }
