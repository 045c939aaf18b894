package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/idgen"
	"github.com/wyfcoding/visabackoffice/internal/payment/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// 新开账单的缴费期限
const invoiceDuePeriod = 14 * 24 * time.Hour

// ApplicationDirectory 向申请上下文查询定价所需的签证类型与优先级。
type ApplicationDirectory interface {
	VisaProfile(ctx context.Context, applicationID uint) (visaType, priority string, err error)
}

// PaymentCommandService 缴费台账命令服务。
// 同一申请同一时间至多一张未关闭账单，收款在账单行锁下串行化。
type PaymentCommandService struct {
	repo      domain.PaymentRepository
	pricer    domain.Pricer
	directory ApplicationDirectory
	publisher domain.EventPublisher
	observers []domain.PaymentObserver
	logger    *slog.Logger
}

// NewPaymentCommandService 创建缴费命令服务实例。
func NewPaymentCommandService(
	repo domain.PaymentRepository,
	pricer domain.Pricer,
	directory ApplicationDirectory,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *PaymentCommandService {
	return &PaymentCommandService{
		repo:      repo,
		pricer:    pricer,
		directory: directory,
		publisher: publisher,
		logger:    logger,
	}
}

// AddObserver 注册事务提交后的同步观察者。
func (s *PaymentCommandService) AddObserver(o domain.PaymentObserver) {
	s.observers = append(s.observers, o)
}

// GenerateInvoice 为申请开具账单，金额由定价协作方按签证类型与优先级给出。
func (s *PaymentCommandService) GenerateInvoice(ctx context.Context, applicationID uint) (*domain.Payment, error) {
	visaType, priority, err := s.directory.VisaProfile(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	amount, currency, err := s.pricer.Quote(ctx, visaType, priority)
	if err != nil {
		return nil, err
	}

	var (
		payment *domain.Payment
		event   domain.InvoiceCreatedEvent
	)
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		open, err := s.repo.FindOpenByApplicationForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if open != nil {
			return errs.New(errs.CodeDuplicateInvoice, "application %d already has open invoice %s", applicationID, open.InvoiceNo)
		}

		now := time.Now()
		invoiceNo := fmt.Sprintf("INV-%d", idgen.GenID())
		payment = domain.NewPayment(invoiceNo, applicationID, amount, currency, now.Add(invoiceDuePeriod))
		if err := s.repo.Save(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}

		event = domain.InvoiceCreatedEvent{
			PaymentID:     payment.ID,
			InvoiceNo:     payment.InvoiceNo,
			ApplicationID: applicationID,
			Amount:        payment.Amount.String(),
			Currency:      payment.Currency,
			DueDate:       payment.DueDate,
			Timestamp:     now,
		}
		return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TopicInvoiceCreated, payment.InvoiceNo, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice generated",
		"invoice_no", payment.InvoiceNo, "application_id", applicationID,
		"amount", payment.Amount.String(), "currency", payment.Currency)
	for _, o := range s.observers {
		o.OnInvoiceCreated(ctx, event)
	}
	return payment, nil
}

// RecordPayment 记录一笔付款，付清时发布付清事件。
func (s *PaymentCommandService) RecordPayment(ctx context.Context, paymentID uint, amount decimal.Decimal, method string) (*domain.Payment, error) {
	var (
		payment *domain.Payment
		event   domain.PaymentCompletedEvent
		paid    bool
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.repo.GetForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return errs.New(errs.CodeNotFound, "payment %d not found", paymentID)
		}

		now := time.Now()
		if err := payment.Record(txCtx, amount, method, now); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		if payment.Status == domain.StatusPaid {
			paid = true
			event = domain.PaymentCompletedEvent{
				PaymentID:     payment.ID,
				InvoiceNo:     payment.InvoiceNo,
				ApplicationID: payment.ApplicationID,
				Amount:        payment.Amount.String(),
				Currency:      payment.Currency,
				PaidAt:        now,
				Timestamp:     now,
			}
			return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TopicPaymentCompleted, payment.InvoiceNo, event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		"invoice_no", payment.InvoiceNo, "amount", amount.String(), "status", string(payment.Status))
	if paid {
		for _, o := range s.observers {
			o.OnPaymentCompleted(ctx, event)
		}
	}
	return payment, nil
}

// MarkOverdue 以调用方给定的时间判断逾期，将未付清的账单标记为 overdue。
func (s *PaymentCommandService) MarkOverdue(ctx context.Context, paymentID uint, now time.Time) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.repo.GetForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return errs.New(errs.CodeNotFound, "payment %d not found", paymentID)
		}
		if err := payment.MarkOverdue(txCtx, now); err != nil {
			return err
		}
		return s.repo.Update(txCtx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("invoice marked overdue", "invoice_no", payment.InvoiceNo, "application_id", payment.ApplicationID)
	return payment, nil
}

// CancelInvoice 作废账单。
func (s *PaymentCommandService) CancelInvoice(ctx context.Context, paymentID uint) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.repo.GetForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return errs.New(errs.CodeNotFound, "payment %d not found", paymentID)
		}
		if err := payment.Cancel(txCtx); err != nil {
			return err
		}
		return s.repo.Update(txCtx, payment)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice cancelled", "invoice_no", payment.InvoiceNo)
	return payment, nil
}

// RequestReceipt 登记收据申请。
func (s *PaymentCommandService) RequestReceipt(ctx context.Context, paymentID uint) (*domain.Payment, error) {
	return s.updateReceipt(ctx, paymentID, func(p *domain.Payment) error {
		p.RequestReceipt()
		return nil
	})
}

// IssueReceipt 为已付清账单开具收据。
func (s *PaymentCommandService) IssueReceipt(ctx context.Context, paymentID uint) (*domain.Payment, error) {
	return s.updateReceipt(ctx, paymentID, func(p *domain.Payment) error {
		return p.IssueReceipt()
	})
}

func (s *PaymentCommandService) updateReceipt(ctx context.Context, paymentID uint, apply func(*domain.Payment) error) (*domain.Payment, error) {
	var payment *domain.Payment
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		payment, err = s.repo.GetForUpdate(txCtx, paymentID)
		if err != nil {
			return err
		}
		if payment == nil {
			return errs.New(errs.CodeNotFound, "payment %d not found", paymentID)
		}
		if err := apply(payment); err != nil {
			return err
		}
		return s.repo.Update(txCtx, payment)
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}
