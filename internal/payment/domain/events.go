package domain

import (
	"context"
	"time"
)

// 事件主题
const (
	TopicInvoiceCreated   = "visa.payment.invoice_created"
	TopicPaymentCompleted = "visa.payment.completed"
)

// InvoiceCreatedEvent 账单开具事件
type InvoiceCreatedEvent struct {
	PaymentID     uint      `json:"payment_id"`
	InvoiceNo     string    `json:"invoice_no"`
	ApplicationID uint      `json:"application_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	DueDate       time.Time `json:"due_date"`
	Timestamp     time.Time `json:"timestamp"`
}

// PaymentCompletedEvent 账单付清事件
type PaymentCompletedEvent struct {
	PaymentID     uint      `json:"payment_id"`
	InvoiceNo     string    `json:"invoice_no"`
	ApplicationID uint      `json:"application_id"`
	Amount        string    `json:"amount"`
	Currency      string    `json:"currency"`
	PaidAt        time.Time `json:"paid_at"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventPublisher 定义了领域事件发布器的接口。
type EventPublisher interface {
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}

// PaymentObserver 在缴费事务提交后被同步回调。
type PaymentObserver interface {
	OnInvoiceCreated(ctx context.Context, event InvoiceCreatedEvent)
	OnPaymentCompleted(ctx context.Context, event PaymentCompletedEvent)
}
