// 生成摘要：签证申请 MySQL 仓储实现。
package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/visa/domain"
)

// VisaApplicationModel 签证申请数据库模型
type VisaApplicationModel struct {
	gorm.Model
	ApplicationNo  string     `gorm:"column:application_no;type:varchar(64);uniqueIndex;not null"`
	UserID         string     `gorm:"column:user_id;type:varchar(32);index;not null"`
	FullName       string     `gorm:"column:full_name;type:varchar(128);not null"`
	Email          string     `gorm:"column:email;type:varchar(128)"`
	Phone          string     `gorm:"column:phone;type:varchar(32)"`
	Nationality    string     `gorm:"column:nationality;type:varchar(64)"`
	PassportNumber string     `gorm:"column:passport_number;type:varchar(64);index"`
	VisaType       string     `gorm:"column:visa_type;type:varchar(32);index;not null"`
	Status         string     `gorm:"column:status;type:varchar(32);not null;index"`
	Priority       string     `gorm:"column:priority;type:varchar(16);not null;default:'normal'"`
	SubmittedAt    *time.Time `gorm:"column:submitted_at"`
}

func (VisaApplicationModel) TableName() string {
	return "visa_applications"
}

// VisaApplicationMySQLRepository 签证申请 MySQL 仓储实现
type VisaApplicationMySQLRepository struct {
	db *gorm.DB
}

// NewVisaApplicationRepository 创建签证申请仓储
func NewVisaApplicationRepository(db *gorm.DB) domain.ApplicationRepository {
	return &VisaApplicationMySQLRepository{db: db}
}

func (r *VisaApplicationMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *VisaApplicationMySQLRepository) Save(ctx context.Context, app *domain.VisaApplication) error {
	model := r.toModel(app)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	app.ID = model.ID
	app.CreatedAt = model.CreatedAt
	app.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *VisaApplicationMySQLRepository) Get(ctx context.Context, id uint) (*domain.VisaApplication, error) {
	var model VisaApplicationModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *VisaApplicationMySQLRepository) GetForUpdate(ctx context.Context, id uint) (*domain.VisaApplication, error) {
	var model VisaApplicationModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *VisaApplicationMySQLRepository) Update(ctx context.Context, app *domain.VisaApplication) error {
	model := r.toModel(app)
	return r.getDB(ctx).Model(&VisaApplicationModel{}).Where("id = ?", app.ID).Updates(model).Error
}

func (r *VisaApplicationMySQLRepository) List(ctx context.Context, status domain.Status, offset, limit int) ([]*domain.VisaApplication, int64, error) {
	var models []VisaApplicationModel
	var total int64
	db := r.getDB(ctx).Model(&VisaApplicationModel{})
	if status != "" {
		db = db.Where("status = ?", string(status))
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	result := make([]*domain.VisaApplication, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, total, nil
}

func (r *VisaApplicationMySQLRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *VisaApplicationMySQLRepository) toModel(a *domain.VisaApplication) *VisaApplicationModel {
	return &VisaApplicationModel{
		Model:          gorm.Model{ID: a.ID, CreatedAt: a.CreatedAt, UpdatedAt: a.UpdatedAt},
		ApplicationNo:  a.ApplicationNo,
		UserID:         a.UserID,
		FullName:       a.FullName,
		Email:          a.Email,
		Phone:          a.Phone,
		Nationality:    a.Nationality,
		PassportNumber: a.PassportNumber,
		VisaType:       a.VisaType,
		Status:         string(a.Status),
		Priority:       string(a.Priority),
		SubmittedAt:    a.SubmittedAt,
	}
}

func (r *VisaApplicationMySQLRepository) toDomain(m *VisaApplicationModel) *domain.VisaApplication {
	a := &domain.VisaApplication{
		ID:             m.Model.ID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		ApplicationNo:  m.ApplicationNo,
		UserID:         m.UserID,
		FullName:       m.FullName,
		Email:          m.Email,
		Phone:          m.Phone,
		Nationality:    m.Nationality,
		PassportNumber: m.PassportNumber,
		VisaType:       m.VisaType,
		Status:         domain.Status(m.Status),
		Priority:       domain.Priority(m.Priority),
		SubmittedAt:    m.SubmittedAt,
	}
	a.InitFSM()
	return a
}
