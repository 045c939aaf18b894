// 生成摘要：账单 MySQL 仓储实现。
package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/payment/domain"
)

// PaymentModel 账单数据库模型
type PaymentModel struct {
	gorm.Model
	InvoiceNo        string          `gorm:"column:invoice_no;type:varchar(64);uniqueIndex;not null"`
	ApplicationID    uint            `gorm:"column:application_id;index;not null"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null"`
	PaidAmount       decimal.Decimal `gorm:"column:paid_amount;type:decimal(18,2);not null;default:0"`
	Currency         string          `gorm:"column:currency;type:varchar(8);not null;default:'USD'"`
	Status           string          `gorm:"column:status;type:varchar(32);not null;index"`
	PaymentMethod    string          `gorm:"column:payment_method;type:varchar(32)"`
	DueDate          time.Time       `gorm:"column:due_date;not null"`
	PaidAt           *time.Time      `gorm:"column:paid_at"`
	ReceiptRequested bool            `gorm:"column:receipt_requested;not null;default:false"`
	ReceiptIssued    bool            `gorm:"column:receipt_issued;not null;default:false"`
}

func (PaymentModel) TableName() string {
	return "payments"
}

// openStatuses 未关闭账单的状态集合
var openStatuses = []string{
	string(domain.StatusPending),
	string(domain.StatusPartial),
	string(domain.StatusOverdue),
}

// PaymentMySQLRepository 账单 MySQL 仓储实现
type PaymentMySQLRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建账单仓储
func NewPaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return &PaymentMySQLRepository{db: db}
}

func (r *PaymentMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *PaymentMySQLRepository) Save(ctx context.Context, p *domain.Payment) error {
	model := r.toModel(p)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	p.ID = model.ID
	p.CreatedAt = model.CreatedAt
	p.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *PaymentMySQLRepository) Get(ctx context.Context, id uint) (*domain.Payment, error) {
	var model PaymentModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *PaymentMySQLRepository) GetForUpdate(ctx context.Context, id uint) (*domain.Payment, error) {
	var model PaymentModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *PaymentMySQLRepository) FindByInvoiceNo(ctx context.Context, invoiceNo string) (*domain.Payment, error) {
	var model PaymentModel
	if err := r.getDB(ctx).Where("invoice_no = ?", invoiceNo).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *PaymentMySQLRepository) FindOpenByApplicationForUpdate(ctx context.Context, applicationID uint) (*domain.Payment, error) {
	var model PaymentModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ? AND status IN ?", applicationID, openStatuses).
		First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *PaymentMySQLRepository) Update(ctx context.Context, p *domain.Payment) error {
	model := r.toModel(p)
	return r.getDB(ctx).Model(&PaymentModel{}).Where("id = ?", p.ID).
		Select("paid_amount", "status", "payment_method", "paid_at", "receipt_requested", "receipt_issued").
		Updates(model).Error
}

func (r *PaymentMySQLRepository) List(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.Payment, int64, error) {
	var models []PaymentModel
	var total int64
	db := r.getDB(ctx).Model(&PaymentModel{})
	if status != "" {
		db = db.Where("status = ?", string(status))
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	result := make([]*domain.Payment, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, total, nil
}

func (r *PaymentMySQLRepository) ListByApplication(ctx context.Context, applicationID uint) ([]*domain.Payment, error) {
	var models []PaymentModel
	if err := r.getDB(ctx).Where("application_id = ?", applicationID).
		Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Payment, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, nil
}

func (r *PaymentMySQLRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *PaymentMySQLRepository) toModel(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		Model:            gorm.Model{ID: p.ID, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt},
		InvoiceNo:        p.InvoiceNo,
		ApplicationID:    p.ApplicationID,
		Amount:           p.Amount,
		PaidAmount:       p.PaidAmount,
		Currency:         p.Currency,
		Status:           string(p.Status),
		PaymentMethod:    p.PaymentMethod,
		DueDate:          p.DueDate,
		PaidAt:           p.PaidAt,
		ReceiptRequested: p.ReceiptRequested,
		ReceiptIssued:    p.ReceiptIssued,
	}
}

func (r *PaymentMySQLRepository) toDomain(m *PaymentModel) *domain.Payment {
	p := &domain.Payment{
		ID:               m.Model.ID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		InvoiceNo:        m.InvoiceNo,
		ApplicationID:    m.ApplicationID,
		Amount:           m.Amount,
		PaidAmount:       m.PaidAmount,
		Currency:         m.Currency,
		Status:           domain.Status(m.Status),
		PaymentMethod:    m.PaymentMethod,
		DueDate:          m.DueDate,
		PaidAt:           m.PaidAt,
		ReceiptRequested: m.ReceiptRequested,
		ReceiptIssued:    m.ReceiptIssued,
	}
	p.InitFSM()
	return p
}
