package application

import (
	"context"

	"github.com/wyfcoding/visabackoffice/internal/payment/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// PaymentQueryService 缴费查询服务，同时实现协调器的缴费侧闸门。
type PaymentQueryService struct {
	repo domain.PaymentRepository
}

// NewPaymentQueryService 创建缴费查询服务实例。
func NewPaymentQueryService(repo domain.PaymentRepository) *PaymentQueryService {
	return &PaymentQueryService{repo: repo}
}

// GetPayment 查询账单详情。
func (s *PaymentQueryService) GetPayment(ctx context.Context, id uint) (*domain.Payment, error) {
	payment, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errs.New(errs.CodeNotFound, "payment %d not found", id)
	}
	return payment, nil
}

// ListPayments 按状态分页查询账单。
func (s *PaymentQueryService) ListPayments(ctx context.Context, status domain.Status, page, pageSize int) ([]*domain.Payment, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(ctx, status, (page-1)*pageSize, pageSize)
}

// ListByApplication 查询申请名下全部账单。
func (s *PaymentQueryService) ListByApplication(ctx context.Context, applicationID uint) ([]*domain.Payment, error) {
	return s.repo.ListByApplication(ctx, applicationID)
}

// OutstandingInvoice 返回申请名下未结清的账单号，供审批闸门在协调器事务内调用。
// 加锁读取，避免闸门判定与收款并发交错；申请没有账单时不构成阻塞。
func (s *PaymentQueryService) OutstandingInvoice(ctx context.Context, applicationID uint) (string, bool, error) {
	open, err := s.repo.FindOpenByApplicationForUpdate(ctx, applicationID)
	if err != nil {
		return "", false, err
	}
	if open == nil {
		return "", false, nil
	}
	return open.InvoiceNo, true, nil
}
