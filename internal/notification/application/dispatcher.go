package application

import (
	"context"
	"fmt"
	"log/slog"

	documentdomain "github.com/wyfcoding/visabackoffice/internal/document/domain"
	"github.com/wyfcoding/visabackoffice/internal/notification/domain"
	paymentdomain "github.com/wyfcoding/visabackoffice/internal/payment/domain"
	visadomain "github.com/wyfcoding/visabackoffice/internal/visa/domain"
	workflowdomain "github.com/wyfcoding/visabackoffice/internal/workflow/domain"
)

// Dispatcher 通知派发器：订阅各生命周期事件并生成定向通知。
// 在业务事务提交后被同步回调，派发失败只记日志，不回滚业务。
type Dispatcher struct {
	service *NotificationService
	logger  *slog.Logger
}

// NewDispatcher 创建通知派发器实例。
func NewDispatcher(service *NotificationService, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{service: service, logger: logger}
}

// OnStatusChanged 申请状态变更通知。
func (d *Dispatcher) OnStatusChanged(ctx context.Context, event visadomain.ApplicationStatusChangedEvent) {
	title := fmt.Sprintf("Application %s is now %s", event.ApplicationNo, event.ToStatus)
	message := fmt.Sprintf("Your application moved from %s to %s.", event.FromStatus, event.ToStatus)
	if event.Reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, event.Reason)
	}
	d.send(ctx, event.UserID, domain.TypeStatusChange, title, message,
		fmt.Sprintf("/applications/%d", event.ApplicationID), event.ApplicationID)
}

// OnWorkflowCompleted 工作流完成通知，仅在模板规则要求时派发。
func (d *Dispatcher) OnWorkflowCompleted(ctx context.Context, event workflowdomain.WorkflowCompletedEvent) {
	if !event.Notify {
		return
	}
	recipient := event.NotifyTarget
	if recipient == "" {
		recipient = fmt.Sprintf("application:%d", event.ApplicationID)
	}
	d.send(ctx, recipient, domain.TypeWorkflowComplete,
		fmt.Sprintf("Workflow %s completed", event.TemplateName),
		fmt.Sprintf("All required checklist items for application %d are done.", event.ApplicationID),
		fmt.Sprintf("/applications/%d/workflow", event.ApplicationID), event.ApplicationID)
}

// OnInvoiceCreated 账单开具通知。
func (d *Dispatcher) OnInvoiceCreated(ctx context.Context, event paymentdomain.InvoiceCreatedEvent) {
	d.send(ctx, fmt.Sprintf("application:%d", event.ApplicationID), domain.TypeInvoiceCreated,
		fmt.Sprintf("Invoice %s issued", event.InvoiceNo),
		fmt.Sprintf("An invoice of %s %s is due by %s.", event.Amount, event.Currency, event.DueDate.Format("2006-01-02")),
		fmt.Sprintf("/payments/%d", event.PaymentID), event.ApplicationID)
}

// OnPaymentCompleted 账单付清通知。
func (d *Dispatcher) OnPaymentCompleted(ctx context.Context, event paymentdomain.PaymentCompletedEvent) {
	d.send(ctx, fmt.Sprintf("application:%d", event.ApplicationID), domain.TypePaymentComplete,
		fmt.Sprintf("Invoice %s paid in full", event.InvoiceNo),
		fmt.Sprintf("Payment of %s %s has been received.", event.Amount, event.Currency),
		fmt.Sprintf("/payments/%d", event.PaymentID), event.ApplicationID)
}

// OnDocumentReviewed 材料审核结果通知。
func (d *Dispatcher) OnDocumentReviewed(ctx context.Context, event documentdomain.DocumentReviewedEvent) {
	d.send(ctx, fmt.Sprintf("application:%d", event.ApplicationID), domain.TypeDocumentReviewed,
		fmt.Sprintf("Document %s %s", event.DocumentType, event.Status),
		fmt.Sprintf("Your %s was reviewed by %s.", event.DocumentType, event.Reviewer),
		fmt.Sprintf("/applications/%d/documents", event.ApplicationID), event.ApplicationID)
}

func (d *Dispatcher) send(ctx context.Context, recipient, notifType, title, message, targetURL string, relatedID uint) {
	if _, err := d.service.Send(ctx, recipient, notifType, title, message, targetURL, relatedID); err != nil {
		d.logger.Error("failed to dispatch notification",
			"recipient", recipient, "type", notifType, "error", err)
	}
}
