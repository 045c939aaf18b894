// Package domain 申请材料上下文的领域模型。
// 材料审核状态、审核人与审核时间只能经由审核引擎一并变更。
package domain

import (
	"context"
	"time"

	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/visabackoffice/internal/lifecycle"
)

// Status 材料审核状态
type Status string

const (
	StatusPending  Status = lifecycle.DocumentPending
	StatusApproved Status = lifecycle.DocumentApproved
	StatusRejected Status = lifecycle.DocumentRejected
)

// Document 申请材料聚合根
type Document struct {
	ID            uint       `json:"id"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ApplicationID uint       `json:"application_id"`
	DocumentType  string     `json:"document_type"`
	FileName      string     `json:"file_name"`
	FileURL       string     `json:"file_url"`
	Required      bool       `json:"required"`
	Status        Status     `json:"status"`
	ReviewedBy    string     `json:"reviewed_by"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	Notes         string     `json:"notes"`
	fsm           *fsm.Machine[string, string]
}

// NewDocument 登记材料，初始状态为 pending
func NewDocument(applicationID uint, documentType, fileName, fileURL string, required bool) *Document {
	d := &Document{
		ApplicationID: applicationID,
		DocumentType:  documentType,
		FileName:      fileName,
		FileURL:       fileURL,
		Required:      required,
		Status:        StatusPending,
	}
	d.initFSM()
	return d
}

func (d *Document) initFSM() {
	d.fsm = lifecycle.NewMachine(lifecycle.KindDocument, string(d.Status))
}

// InitFSM 确保状态机已初始化（仓储还原聚合时调用）
func (d *Document) InitFSM() {
	if d.fsm == nil {
		d.initFSM()
	}
}

// Review 审核材料：状态、审核人、审核时间与备注一并落定。
func (d *Document) Review(ctx context.Context, target Status, reviewer, notes string, now time.Time) error {
	d.InitFSM()
	if err := lifecycle.Validate(lifecycle.KindDocument, string(d.Status), string(target)); err != nil {
		return err
	}
	if err := d.fsm.Trigger(ctx, string(target)); err != nil {
		return err
	}
	d.Status = target
	d.ReviewedBy = reviewer
	d.ReviewedAt = &now
	d.Notes = notes
	return nil
}
