// Package domain 通知上下文的领域模型。
// 通知由派发器根据生命周期事件创建，游标分页在并发插入下保持稳定。
package domain

import (
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/idgen"
)

// Status 通知已读状态
type Status string

const (
	StatusUnread Status = "unread"
	StatusRead   Status = "read"
)

// 通知类型
const (
	TypeStatusChange     = "status_change"
	TypeWorkflowComplete = "workflow_complete"
	TypePaymentComplete  = "payment_complete"
	TypeInvoiceCreated   = "invoice_created"
	TypeDocumentReviewed = "document_reviewed"
	TypeSystem           = "system"
)

// Notification 通知记录
type Notification struct {
	ID             uint      `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	NotificationID string    `json:"notification_id"`
	Recipient      string    `json:"recipient"`
	Type           string    `json:"type"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	TargetURL      string    `json:"target_url"`
	RelatedID      uint      `json:"related_id"`
	Status         Status    `json:"status"`
}

// NewNotification 创建未读通知
func NewNotification(recipient, notifType, title, message, targetURL string, relatedID uint) *Notification {
	return &Notification{
		NotificationID: fmt.Sprintf("NTF-%d", idgen.GenID()),
		Recipient:      recipient,
		Type:           notifType,
		Title:          title,
		Message:        message,
		TargetURL:      targetURL,
		RelatedID:      relatedID,
		Status:         StatusUnread,
	}
}

// MarkRead 置为已读
func (n *Notification) MarkRead() {
	n.Status = StatusRead
}
