package domain

import "context"

// DocumentGate 审批闸门：材料侧前置条件。
type DocumentGate interface {
	// UnapprovedRequired 返回尚未通过审核的必需材料类型。
	UnapprovedRequired(ctx context.Context, applicationID uint) ([]string, error)
}

// PaymentGate 审批闸门：缴费侧前置条件。
type PaymentGate interface {
	// OutstandingInvoice 返回未结清的账单号；不存在账单或已结清时 ok 为 false。
	OutstandingInvoice(ctx context.Context, applicationID uint) (invoiceNo string, ok bool, err error)
}

// WorkflowGate 审批闸门：工作流侧前置条件。
type WorkflowGate interface {
	// IncompleteRequired 返回尚未完成的必需清单项；申请无工作流时返回空。
	IncompleteRequired(ctx context.Context, applicationID uint) ([]string, error)
}

// TransitionObserver 在状态变更事务提交后被同步回调，用于进程内派发通知。
type TransitionObserver interface {
	OnStatusChanged(ctx context.Context, event ApplicationStatusChangedEvent)
}
