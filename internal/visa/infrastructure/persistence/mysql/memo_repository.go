// 生成摘要：申请备注 MySQL 仓储实现。
package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/visa/domain"
)

// MemoModel 申请备注数据库模型
type MemoModel struct {
	gorm.Model
	ApplicationID uint   `gorm:"column:application_id;index;not null"`
	Author        string `gorm:"column:author;type:varchar(64);index;not null"`
	Content       string `gorm:"column:content;type:text;not null"`
}

func (MemoModel) TableName() string {
	return "application_memos"
}

// MemoMySQLRepository 申请备注 MySQL 仓储实现
type MemoMySQLRepository struct {
	db *gorm.DB
}

// NewMemoRepository 创建申请备注仓储
func NewMemoRepository(db *gorm.DB) domain.MemoRepository {
	return &MemoMySQLRepository{db: db}
}

func (r *MemoMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *MemoMySQLRepository) Save(ctx context.Context, memo *domain.Memo) error {
	model := r.toModel(memo)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	memo.ID = model.ID
	memo.CreatedAt = model.CreatedAt
	memo.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *MemoMySQLRepository) Get(ctx context.Context, id uint) (*domain.Memo, error) {
	var model MemoModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *MemoMySQLRepository) Update(ctx context.Context, memo *domain.Memo) error {
	return r.getDB(ctx).Model(&MemoModel{}).Where("id = ?", memo.ID).
		Update("content", memo.Content).Error
}

func (r *MemoMySQLRepository) Delete(ctx context.Context, id uint) error {
	return r.getDB(ctx).Delete(&MemoModel{}, id).Error
}

func (r *MemoMySQLRepository) ListByApplication(ctx context.Context, applicationID uint) ([]*domain.Memo, error) {
	var models []MemoModel
	if err := r.getDB(ctx).Where("application_id = ?", applicationID).
		Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Memo, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, nil
}

func (r *MemoMySQLRepository) toModel(m *domain.Memo) *MemoModel {
	return &MemoModel{
		Model:         gorm.Model{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ApplicationID: m.ApplicationID,
		Author:        m.Author,
		Content:       m.Content,
	}
}

func (r *MemoMySQLRepository) toDomain(m *MemoModel) *domain.Memo {
	return &domain.Memo{
		ID:            m.Model.ID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		ApplicationID: m.ApplicationID,
		Author:        m.Author,
		Content:       m.Content,
	}
}
