// 生成摘要：申请状态历史 MySQL 仓储实现，只追加。
package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/visa/domain"
)

// StatusHistoryModel 状态历史数据库模型
type StatusHistoryModel struct {
	gorm.Model
	ApplicationID uint   `gorm:"column:application_id;index;not null"`
	FromStatus    string `gorm:"column:from_status;type:varchar(32);not null"`
	ToStatus      string `gorm:"column:to_status;type:varchar(32);not null"`
	Actor         string `gorm:"column:actor;type:varchar(64);not null"`
	Reason        string `gorm:"column:reason;type:text"`
	Override      bool   `gorm:"column:override;not null;default:false"`
}

func (StatusHistoryModel) TableName() string {
	return "application_status_histories"
}

// StatusHistoryMySQLRepository 状态历史 MySQL 仓储实现
type StatusHistoryMySQLRepository struct {
	db *gorm.DB
}

// NewStatusHistoryRepository 创建状态历史仓储
func NewStatusHistoryRepository(db *gorm.DB) domain.StatusHistoryRepository {
	return &StatusHistoryMySQLRepository{db: db}
}

func (r *StatusHistoryMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *StatusHistoryMySQLRepository) Append(ctx context.Context, entry *domain.StatusHistory) error {
	model := &StatusHistoryModel{
		ApplicationID: entry.ApplicationID,
		FromStatus:    string(entry.FromStatus),
		ToStatus:      string(entry.ToStatus),
		Actor:         entry.Actor,
		Reason:        entry.Reason,
		Override:      entry.Override,
	}
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

func (r *StatusHistoryMySQLRepository) ListByApplication(ctx context.Context, applicationID uint) ([]*domain.StatusHistory, error) {
	var models []StatusHistoryModel
	if err := r.getDB(ctx).Where("application_id = ?", applicationID).
		Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.StatusHistory, len(models))
	for i, m := range models {
		result[i] = &domain.StatusHistory{
			ID:            m.Model.ID,
			ApplicationID: m.ApplicationID,
			FromStatus:    domain.Status(m.FromStatus),
			ToStatus:      domain.Status(m.ToStatus),
			Actor:         m.Actor,
			Reason:        m.Reason,
			Override:      m.Override,
			CreatedAt:     m.CreatedAt,
		}
	}
	return result, nil
}
