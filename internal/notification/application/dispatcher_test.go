package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/visabackoffice/internal/notification/domain"
	paymentdomain "github.com/wyfcoding/visabackoffice/internal/payment/domain"
	visadomain "github.com/wyfcoding/visabackoffice/internal/visa/domain"
	workflowdomain "github.com/wyfcoding/visabackoffice/internal/workflow/domain"
)

func newDispatcherFixture() (*Dispatcher, *notifFixture) {
	f := newNotifFixture()
	return NewDispatcher(f.svc, slog.New(slog.DiscardHandler)), f
}

func TestDispatcherOnStatusChanged(t *testing.T) {
	d, f := newDispatcherFixture()

	d.OnStatusChanged(context.Background(), visadomain.ApplicationStatusChangedEvent{
		ApplicationID: 7,
		ApplicationNo: "VA1001",
		UserID:        "u-1",
		FromStatus:    "pending",
		ToStatus:      "processing",
		Timestamp:     time.Now(),
	})

	page, err := f.svc.Paginated(context.Background(), "u-1", "", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	n := page.Notifications[0]
	assert.Equal(t, domain.TypeStatusChange, n.Type)
	assert.Contains(t, n.Title, "VA1001")
	assert.Equal(t, "/applications/7", n.TargetURL)
	assert.Equal(t, uint(7), n.RelatedID)
}

func TestDispatcherOnWorkflowCompletedRespectsNotifyFlag(t *testing.T) {
	d, f := newDispatcherFixture()

	d.OnWorkflowCompleted(context.Background(), workflowdomain.WorkflowCompletedEvent{
		ApplicationID: 7, TemplateName: "tourist-standard",
	})
	page, err := f.svc.Paginated(context.Background(), "application:7", "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, page.Notifications)

	d.OnWorkflowCompleted(context.Background(), workflowdomain.WorkflowCompletedEvent{
		ApplicationID: 7, TemplateName: "tourist-standard", Notify: true, NotifyTarget: "ops-queue",
	})
	page, err = f.svc.Paginated(context.Background(), "ops-queue", "", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
	assert.Equal(t, domain.TypeWorkflowComplete, page.Notifications[0].Type)
}

func TestDispatcherOnWorkflowCompletedFallbackRecipient(t *testing.T) {
	d, f := newDispatcherFixture()

	d.OnWorkflowCompleted(context.Background(), workflowdomain.WorkflowCompletedEvent{
		ApplicationID: 9, TemplateName: "tourist-standard", Notify: true,
	})
	page, err := f.svc.Paginated(context.Background(), "application:9", "", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 1)
}

func TestDispatcherOnPaymentEvents(t *testing.T) {
	d, f := newDispatcherFixture()

	d.OnInvoiceCreated(context.Background(), paymentdomain.InvoiceCreatedEvent{
		PaymentID: 3, InvoiceNo: "INV-1", ApplicationID: 7,
		Amount: "160", Currency: "USD", DueDate: time.Now().Add(14 * 24 * time.Hour),
	})
	d.OnPaymentCompleted(context.Background(), paymentdomain.PaymentCompletedEvent{
		PaymentID: 3, InvoiceNo: "INV-1", ApplicationID: 7, Amount: "160", Currency: "USD",
	})

	page, err := f.svc.Paginated(context.Background(), "application:7", "", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Notifications, 2)

	count, err := f.svc.UnreadCount(context.Background(), "application:7")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
