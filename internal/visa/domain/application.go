// Package domain 签证申请上下文的领域模型：申请聚合根、状态历史与备注。
// 申请状态只能经由生命周期协调器变更，聚合内嵌状态机保证迁移合法性。
package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/visabackoffice/internal/lifecycle"
)

// Status 申请状态
type Status string

const (
	StatusPending    Status = lifecycle.ApplicationPending
	StatusProcessing Status = lifecycle.ApplicationProcessing
	StatusApproved   Status = lifecycle.ApplicationApproved
	StatusRejected   Status = lifecycle.ApplicationRejected
)

// Priority 办理优先级
type Priority string

const (
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// VisaApplication 签证申请聚合根
type VisaApplication struct {
	ID             uint       `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	ApplicationNo  string     `json:"application_no"`
	UserID         string     `json:"user_id"`
	FullName       string     `json:"full_name"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone"`
	Nationality    string     `json:"nationality"`
	PassportNumber string     `json:"passport_number"`
	VisaType       string     `json:"visa_type"`
	Status         Status     `json:"status"`
	Priority       Priority   `json:"priority"`
	SubmittedAt    *time.Time `json:"submitted_at"`
	fsm            *fsm.Machine[string, string]
}

// NewVisaApplication 创建申请，初始状态为 pending
func NewVisaApplication(userID, fullName, email, phone, nationality, passportNumber, visaType string, priority Priority) *VisaApplication {
	if priority == "" {
		priority = PriorityNormal
	}
	now := time.Now()
	a := &VisaApplication{
		ApplicationNo:  fmt.Sprintf("VA%d", idgen.GenID()),
		UserID:         userID,
		FullName:       fullName,
		Email:          email,
		Phone:          phone,
		Nationality:    nationality,
		PassportNumber: passportNumber,
		VisaType:       visaType,
		Status:         StatusPending,
		Priority:       priority,
		SubmittedAt:    &now,
	}
	a.initFSM()
	return a
}

func (a *VisaApplication) initFSM() {
	a.fsm = lifecycle.NewMachine(lifecycle.KindApplication, string(a.Status))
}

// InitFSM 确保状态机已初始化（仓储还原聚合时调用）
func (a *VisaApplication) InitFSM() {
	if a.fsm == nil {
		a.initFSM()
	}
}

// TransitionTo 沿注册表合法边迁移状态
func (a *VisaApplication) TransitionTo(ctx context.Context, target Status) error {
	a.InitFSM()
	if err := lifecycle.Validate(lifecycle.KindApplication, string(a.Status), string(target)); err != nil {
		return err
	}
	if err := a.fsm.Trigger(ctx, string(target)); err != nil {
		return err
	}
	a.Status = target
	return nil
}

// ApplyOverride 管理员覆盖：不经注册表直接落到目标状态。
// 调用方必须把对应的历史条目标记为 override。
func (a *VisaApplication) ApplyOverride(target Status) {
	a.Status = target
	a.initFSM()
}

// Terminal 当前是否处于终态
func (a *VisaApplication) Terminal() bool {
	return lifecycle.Terminal(lifecycle.KindApplication, string(a.Status))
}

// StatusHistory 状态历史条目，只追加，从不修改或删除。
type StatusHistory struct {
	ID            uint      `json:"id"`
	ApplicationID uint      `json:"application_id"`
	FromStatus    Status    `json:"from_status"`
	ToStatus      Status    `json:"to_status"`
	Actor         string    `json:"actor"`
	Reason        string    `json:"reason"`
	Override      bool      `json:"override"`
	CreatedAt     time.Time `json:"created_at"`
}

// Memo 申请备注，创建者可编辑或删除自己的备注。
type Memo struct {
	ID            uint      `json:"id"`
	ApplicationID uint      `json:"application_id"`
	Author        string    `json:"author"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
