package domain

import (
	"context"
	"time"
)

// 事件主题
const (
	TopicDocumentReviewed = "visa.document.reviewed"
)

// DocumentReviewedEvent 材料审核完成事件
type DocumentReviewedEvent struct {
	DocumentID    uint      `json:"document_id"`
	ApplicationID uint      `json:"application_id"`
	DocumentType  string    `json:"document_type"`
	Status        string    `json:"status"`
	Reviewer      string    `json:"reviewer"`
	Notes         string    `json:"notes"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventPublisher 定义了领域事件发布器的接口。
type EventPublisher interface {
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}

// ReviewObserver 在审核事务提交后被同步回调。
type ReviewObserver interface {
	OnDocumentReviewed(ctx context.Context, event DocumentReviewedEvent)
}
