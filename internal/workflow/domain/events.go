package domain

import (
	"context"
	"time"
)

// 事件主题
const (
	TopicWorkflowCompleted = "visa.workflow.completed"
)

// WorkflowCompletedEvent 工作流全部必需项完成事件
type WorkflowCompletedEvent struct {
	WorkflowID    uint      `json:"workflow_id"`
	ApplicationID uint      `json:"application_id"`
	TemplateName  string    `json:"template_name"`
	Notify        bool      `json:"notify"`
	NotifyTarget  string    `json:"notify_target"`
	Timestamp     time.Time `json:"timestamp"`
}

// EventPublisher 定义了领域事件发布器的接口。
type EventPublisher interface {
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}

// CompletionObserver 在工作流完成事务提交后被同步回调。
type CompletionObserver interface {
	OnWorkflowCompleted(ctx context.Context, event WorkflowCompletedEvent)
}
