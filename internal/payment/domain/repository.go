package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// PaymentRepository 账单仓储接口
type PaymentRepository interface {
	Save(ctx context.Context, p *Payment) error
	Get(ctx context.Context, id uint) (*Payment, error)
	// GetForUpdate 加行锁读取，必须在事务内调用。
	GetForUpdate(ctx context.Context, id uint) (*Payment, error)
	FindByInvoiceNo(ctx context.Context, invoiceNo string) (*Payment, error)
	// FindOpenByApplicationForUpdate 加锁返回申请名下未关闭的账单，无则 (nil, nil)。
	// 开票去重与审批闸门共用，均在事务内调用。
	FindOpenByApplicationForUpdate(ctx context.Context, applicationID uint) (*Payment, error)
	Update(ctx context.Context, p *Payment) error
	List(ctx context.Context, status Status, offset, limit int) ([]*Payment, int64, error)
	ListByApplication(ctx context.Context, applicationID uint) ([]*Payment, error)
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Pricer 按签证类型与优先级给出账单金额。
type Pricer interface {
	Quote(ctx context.Context, visaType, priority string) (amount decimal.Decimal, currency string, err error)
}
