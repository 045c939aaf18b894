package domain

import "time"

// 事件主题
const (
	TopicApplicationStatusChanged = "visa.application.status_changed"
)

// ApplicationStatusChangedEvent 申请状态变更事件
type ApplicationStatusChangedEvent struct {
	ApplicationID uint      `json:"application_id"`
	ApplicationNo string    `json:"application_no"`
	UserID        string    `json:"user_id"`
	FromStatus    string    `json:"from_status"`
	ToStatus      string    `json:"to_status"`
	Actor         string    `json:"actor"`
	Reason        string    `json:"reason"`
	Override      bool      `json:"override"`
	Timestamp     time.Time `json:"timestamp"`
}
