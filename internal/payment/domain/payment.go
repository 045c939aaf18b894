// Package domain 缴费上下文的领域模型。
// 金额一律使用 decimal，paid_amount 只增不减，状态由金额对比推导。
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/visabackoffice/internal/lifecycle"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// Status 账单状态
type Status string

const (
	StatusPending   Status = lifecycle.PaymentPending
	StatusPartial   Status = lifecycle.PaymentPartial
	StatusPaid      Status = lifecycle.PaymentPaid
	StatusOverdue   Status = lifecycle.PaymentOverdue
	StatusCancelled Status = lifecycle.PaymentCancelled
)

// Payment 账单聚合根
type Payment struct {
	ID               uint            `json:"id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	InvoiceNo        string          `json:"invoice_no"`
	ApplicationID    uint            `json:"application_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	Currency         string          `json:"currency"`
	Status           Status          `json:"status"`
	PaymentMethod    string          `json:"payment_method"`
	DueDate          time.Time       `json:"due_date"`
	PaidAt           *time.Time      `json:"paid_at"`
	ReceiptRequested bool            `json:"receipt_requested"`
	ReceiptIssued    bool            `json:"receipt_issued"`
	fsm              *fsm.Machine[string, string]
}

// NewPayment 开具账单，初始状态为 pending
func NewPayment(invoiceNo string, applicationID uint, amount decimal.Decimal, currency string, dueDate time.Time) *Payment {
	p := &Payment{
		InvoiceNo:     invoiceNo,
		ApplicationID: applicationID,
		Amount:        amount,
		PaidAmount:    decimal.Zero,
		Currency:      currency,
		Status:        StatusPending,
		DueDate:       dueDate,
	}
	p.initFSM()
	return p
}

func (p *Payment) initFSM() {
	p.fsm = lifecycle.NewMachine(lifecycle.KindPayment, string(p.Status))
}

// InitFSM 确保状态机已初始化（仓储还原聚合时调用）
func (p *Payment) InitFSM() {
	if p.fsm == nil {
		p.initFSM()
	}
}

// Open 判断账单是否仍未关闭（尚可收款）。
func (p *Payment) Open() bool {
	switch p.Status {
	case StatusPending, StatusPartial, StatusOverdue:
		return true
	}
	return false
}

// Record 记录一笔付款：金额累加，超额整笔拒绝且累计额不变，
// 累计额等于账单额时置为 paid 并落定付清时间。
func (p *Payment) Record(ctx context.Context, amount decimal.Decimal, method string, now time.Time) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return errs.New(errs.CodeInvalidArgument, "payment amount must be positive")
	}
	if !p.Open() {
		return errs.New(errs.CodeInvalidTransition, "invoice %s is %s and cannot accept payments", p.InvoiceNo, p.Status)
	}
	newPaid := p.PaidAmount.Add(amount)
	if newPaid.GreaterThan(p.Amount) {
		return errs.New(errs.CodeOverpaymentRejected,
			"payment of %s would exceed invoice %s amount %s (already paid %s)",
			amount.String(), p.InvoiceNo, p.Amount.String(), p.PaidAmount.String())
	}

	target := StatusPartial
	if newPaid.Equal(p.Amount) {
		target = StatusPaid
	}
	if target != p.Status {
		p.InitFSM()
		if err := lifecycle.Validate(lifecycle.KindPayment, string(p.Status), string(target)); err != nil {
			return err
		}
		if err := p.fsm.Trigger(ctx, string(target)); err != nil {
			return err
		}
		p.Status = target
	}
	p.PaidAmount = newPaid
	if method != "" {
		p.PaymentMethod = method
	}
	if target == StatusPaid {
		p.PaidAt = &now
	}
	return nil
}

// MarkOverdue 逾期标记：仅 pending/partial 且已过缴费期限的账单。
func (p *Payment) MarkOverdue(ctx context.Context, now time.Time) error {
	if p.Status != StatusPending && p.Status != StatusPartial {
		return errs.New(errs.CodeInvalidTransition, "invoice %s is %s and cannot be marked overdue", p.InvoiceNo, p.Status)
	}
	if !now.After(p.DueDate) {
		return errs.New(errs.CodeInvalidArgument, "invoice %s is not past its due date", p.InvoiceNo)
	}
	p.InitFSM()
	if err := p.fsm.Trigger(ctx, string(StatusOverdue)); err != nil {
		return err
	}
	p.Status = StatusOverdue
	return nil
}

// Cancel 作废账单，cancelled 为终态。
func (p *Payment) Cancel(ctx context.Context) error {
	if err := lifecycle.Validate(lifecycle.KindPayment, string(p.Status), string(StatusCancelled)); err != nil {
		return err
	}
	p.InitFSM()
	if err := p.fsm.Trigger(ctx, string(StatusCancelled)); err != nil {
		return err
	}
	p.Status = StatusCancelled
	return nil
}

// RequestReceipt 登记收据申请。
func (p *Payment) RequestReceipt() {
	p.ReceiptRequested = true
}

// IssueReceipt 开具收据，仅限已付清账单。
func (p *Payment) IssueReceipt() error {
	if p.Status != StatusPaid {
		return errs.New(errs.CodeInvalidArgument, "receipt can only be issued for a paid invoice")
	}
	p.ReceiptIssued = true
	return nil
}
