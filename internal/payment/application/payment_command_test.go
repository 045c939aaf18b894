package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wyfcoding/visabackoffice/internal/payment/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

type fakePaymentRepo struct {
	payments map[uint]*domain.Payment
	nextID   uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[uint]*domain.Payment)}
}

func (r *fakePaymentRepo) Save(_ context.Context, p *domain.Payment) error {
	r.nextID++
	p.ID = r.nextID
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) Get(_ context.Context, id uint) (*domain.Payment, error) {
	return r.payments[id], nil
}

func (r *fakePaymentRepo) GetForUpdate(ctx context.Context, id uint) (*domain.Payment, error) {
	return r.Get(ctx, id)
}

func (r *fakePaymentRepo) FindByInvoiceNo(_ context.Context, invoiceNo string) (*domain.Payment, error) {
	for _, p := range r.payments {
		if p.InvoiceNo == invoiceNo {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) FindOpenByApplicationForUpdate(_ context.Context, applicationID uint) (*domain.Payment, error) {
	for _, p := range r.payments {
		if p.ApplicationID == applicationID && p.Open() {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakePaymentRepo) Update(_ context.Context, p *domain.Payment) error {
	r.payments[p.ID] = p
	return nil
}

func (r *fakePaymentRepo) List(_ context.Context, status domain.Status, offset, limit int) ([]*domain.Payment, int64, error) {
	var out []*domain.Payment
	for _, p := range r.payments {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePaymentRepo) ListByApplication(_ context.Context, applicationID uint) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range r.payments {
		if p.ApplicationID == applicationID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePaymentRepo) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type stubPricer struct{}

func (stubPricer) Quote(_ context.Context, visaType, priority string) (decimal.Decimal, string, error) {
	if visaType == "unknown" {
		return decimal.Zero, "", errs.New(errs.CodeInvalidArgument, "no fee configured for visa type %q", visaType)
	}
	amount := decimal.NewFromInt(160)
	if priority == "urgent" {
		amount = decimal.NewFromInt(240)
	}
	return amount, "USD", nil
}

type stubProfileDirectory struct {
	profiles map[uint][2]string
}

func (d stubProfileDirectory) VisaProfile(_ context.Context, applicationID uint) (string, string, error) {
	p, ok := d.profiles[applicationID]
	if !ok {
		return "", "", errs.New(errs.CodeNotFound, "application %d not found", applicationID)
	}
	return p[0], p[1], nil
}

type payPublisher struct {
	topics []string
	events []any
}

func (p *payPublisher) PublishInTx(_ context.Context, _ any, topic, _ string, event any) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

type payObserver struct {
	created   []domain.InvoiceCreatedEvent
	completed []domain.PaymentCompletedEvent
}

func (o *payObserver) OnInvoiceCreated(_ context.Context, event domain.InvoiceCreatedEvent) {
	o.created = append(o.created, event)
}

func (o *payObserver) OnPaymentCompleted(_ context.Context, event domain.PaymentCompletedEvent) {
	o.completed = append(o.completed, event)
}

type payFixture struct {
	svc       *PaymentCommandService
	repo      *fakePaymentRepo
	publisher *payPublisher
	observer  *payObserver
}

func newPayFixture() *payFixture {
	f := &payFixture{repo: newFakePaymentRepo(), publisher: &payPublisher{}, observer: &payObserver{}}
	directory := stubProfileDirectory{profiles: map[uint][2]string{
		1: {"tourist", "normal"},
		2: {"tourist", "urgent"},
		3: {"unknown", "normal"},
	}}
	f.svc = NewPaymentCommandService(f.repo, stubPricer{}, directory, f.publisher, slog.New(slog.DiscardHandler))
	f.svc.AddObserver(f.observer)
	return f
}

func TestGenerateInvoice(t *testing.T) {
	f := newPayFixture()

	p, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)
	assert.NotEmpty(t, p.InvoiceNo)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(160)))
	assert.Equal(t, "USD", p.Currency)
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.True(t, p.DueDate.After(time.Now()))

	require.Len(t, f.observer.created, 1)
	assert.Equal(t, domain.TopicInvoiceCreated, f.publisher.topics[0])
}

func TestGenerateInvoicePriorityPricing(t *testing.T) {
	f := newPayFixture()

	p, err := f.svc.GenerateInvoice(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(240)))
}

func TestGenerateInvoiceDuplicate(t *testing.T) {
	f := newPayFixture()
	_, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.GenerateInvoice(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, errs.CodeDuplicateInvoice, errs.CodeOf(err))
}

func TestGenerateInvoiceAfterPreviousClosed(t *testing.T) {
	f := newPayFixture()
	p, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)
	_, err = f.svc.CancelInvoice(context.Background(), p.ID)
	require.NoError(t, err)

	_, err = f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)
}

func TestGenerateInvoiceUnknownVisaType(t *testing.T) {
	f := newPayFixture()
	_, err := f.svc.GenerateInvoice(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}

func TestRecordPaymentCompletesOnFullAmount(t *testing.T) {
	f := newPayFixture()
	p, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), p.ID, decimal.NewFromInt(100), "card")
	require.NoError(t, err)
	assert.Empty(t, f.observer.completed)

	updated, err := f.svc.RecordPayment(context.Background(), p.ID, decimal.NewFromInt(60), "card")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPaid, updated.Status)
	require.Len(t, f.observer.completed, 1)
	assert.Equal(t, p.InvoiceNo, f.observer.completed[0].InvoiceNo)
}

func TestRecordPaymentOverpaymentKeepsLedger(t *testing.T) {
	f := newPayFixture()
	p, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)
	_, err = f.svc.RecordPayment(context.Background(), p.ID, decimal.NewFromInt(100), "card")
	require.NoError(t, err)

	_, err = f.svc.RecordPayment(context.Background(), p.ID, decimal.NewFromInt(100), "card")
	require.Error(t, err)
	assert.Equal(t, errs.CodeOverpaymentRejected, errs.CodeOf(err))

	got, err := f.repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, domain.StatusPartial, got.Status)
}

func TestRecordPaymentNotFound(t *testing.T) {
	f := newPayFixture()
	_, err := f.svc.RecordPayment(context.Background(), 404, decimal.NewFromInt(10), "card")
	require.Error(t, err)
	assert.Equal(t, errs.CodeNotFound, errs.CodeOf(err))
}

func TestMarkOverdueBeforeDueDate(t *testing.T) {
	f := newPayFixture()
	p, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)

	_, err = f.svc.MarkOverdue(context.Background(), p.ID, time.Now())
	require.Error(t, err)
	assert.Equal(t, errs.CodeInvalidArgument, errs.CodeOf(err))
}

func TestMarkOverdueAtSuppliedTime(t *testing.T) {
	f := newPayFixture()
	p, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)

	// 逾期判定以调用方传入的时间为准，不取服务内部的当前时间。
	updated, err := f.svc.MarkOverdue(context.Background(), p.ID, p.DueDate.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOverdue, updated.Status)
}

func TestReceiptFlow(t *testing.T) {
	f := newPayFixture()
	p, err := f.svc.GenerateInvoice(context.Background(), 1)
	require.NoError(t, err)

	updated, err := f.svc.RequestReceipt(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, updated.ReceiptRequested)

	_, err = f.svc.IssueReceipt(context.Background(), p.ID)
	require.Error(t, err)

	_, err = f.svc.RecordPayment(context.Background(), p.ID, decimal.NewFromInt(160), "card")
	require.NoError(t, err)

	updated, err = f.svc.IssueReceipt(context.Background(), p.ID)
	require.NoError(t, err)
	assert.True(t, updated.ReceiptIssued)
}
