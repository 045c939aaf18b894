// Package lifecycle 是三条生命周期（申请、材料、缴费）的状态注册表。
// 注册表是唯一的迁移事实来源：聚合内嵌的状态机从这里的迁移表构建，
// 协调器的预校验也查询这里，两者不会产生分歧。
package lifecycle

import (
	"github.com/wyfcoding/pkg/fsm"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// Kind 生命周期类别
type Kind string

const (
	KindApplication Kind = "application"
	KindDocument    Kind = "document"
	KindPayment     Kind = "payment"
)

// 申请生命周期状态
const (
	ApplicationPending    = "pending"
	ApplicationProcessing = "processing"
	ApplicationApproved   = "approved"
	ApplicationRejected   = "rejected"
)

// 材料生命周期状态
const (
	DocumentPending  = "pending"
	DocumentApproved = "approved"
	DocumentRejected = "rejected"
)

// 缴费生命周期状态
const (
	PaymentPending   = "pending"
	PaymentPartial   = "partial"
	PaymentPaid      = "paid"
	PaymentOverdue   = "overdue"
	PaymentCancelled = "cancelled"
)

// transitions 各生命周期的合法迁移表。
// 终态（无出边）只能通过协调器显式标记的管理员覆盖离开，表中永不出现该类边。
var transitions = map[Kind]map[string][]string{
	KindApplication: {
		ApplicationPending:    {ApplicationProcessing},
		ApplicationProcessing: {ApplicationApproved, ApplicationRejected},
	},
	KindDocument: {
		DocumentPending:  {DocumentApproved, DocumentRejected},
		DocumentRejected: {DocumentPending}, // 重新提交
	},
	KindPayment: {
		PaymentPending: {PaymentPartial, PaymentPaid, PaymentOverdue, PaymentCancelled},
		PaymentPartial: {PaymentPaid, PaymentOverdue, PaymentCancelled},
		PaymentOverdue: {PaymentPartial, PaymentPaid, PaymentCancelled},
	},
}

// Allowed 返回指定状态的全部合法目标状态
func Allowed(kind Kind, from string) []string {
	table, ok := transitions[kind]
	if !ok {
		return nil
	}
	return table[from]
}

// CanTransition 判断迁移是否合法
func CanTransition(kind Kind, from, to string) bool {
	for _, next := range Allowed(kind, from) {
		if next == to {
			return true
		}
	}
	return false
}

// Validate 校验迁移，非法时返回 InvalidTransition
func Validate(kind Kind, from, to string) error {
	if !CanTransition(kind, from, to) {
		return errs.New(errs.CodeInvalidTransition, "%s lifecycle: cannot transition from %s to %s", kind, from, to)
	}
	return nil
}

// Terminal 判断状态是否为终态（无任何出边）
func Terminal(kind Kind, state string) bool {
	return len(Allowed(kind, state)) == 0
}

// NewMachine 按注册表为当前状态构建状态机，事件名即目标状态名。
func NewMachine(kind Kind, current string) *fsm.Machine[string, string] {
	m := fsm.NewMachine[string, string](current)
	for from, targets := range transitions[kind] {
		for _, to := range targets {
			m.AddTransition(from, to, to)
		}
	}
	return m
}
