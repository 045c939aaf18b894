// 生成摘要：通知 MySQL 仓储实现，键集分页查询。
package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/notification/domain"
)

// NotificationModel 通知数据库模型
type NotificationModel struct {
	gorm.Model
	NotificationID string `gorm:"column:notification_id;type:varchar(32);uniqueIndex;not null"`
	Recipient      string `gorm:"column:recipient;type:varchar(64);index:idx_recipient_created;not null"`
	Type           string `gorm:"column:type;type:varchar(32);not null"`
	Title          string `gorm:"column:title;type:varchar(255);not null"`
	Message        string `gorm:"column:message;type:text"`
	TargetURL      string `gorm:"column:target_url;type:varchar(255)"`
	RelatedID      uint   `gorm:"column:related_id;index"`
	Status         string `gorm:"column:status;type:varchar(16);not null;index;default:'unread'"`
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// NotificationMySQLRepository 通知 MySQL 仓储实现
type NotificationMySQLRepository struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &NotificationMySQLRepository{db: db}
}

func (r *NotificationMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *NotificationMySQLRepository) Save(ctx context.Context, n *domain.Notification) error {
	model := r.toModel(n)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	n.ID = model.ID
	n.CreatedAt = model.CreatedAt
	n.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *NotificationMySQLRepository) Get(ctx context.Context, id uint) (*domain.Notification, error) {
	var model NotificationModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *NotificationMySQLRepository) GetMany(ctx context.Context, ids []uint) ([]*domain.Notification, error) {
	var models []NotificationModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Notification, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, nil
}

func (r *NotificationMySQLRepository) Update(ctx context.Context, n *domain.Notification) error {
	return r.getDB(ctx).Model(&NotificationModel{}).Where("id = ?", n.ID).
		Update("status", string(n.Status)).Error
}

func (r *NotificationMySQLRepository) ListAfter(ctx context.Context, recipient string, status domain.Status, after *domain.Cursor, limit int) ([]*domain.Notification, error) {
	db := r.getDB(ctx).Where("recipient = ?", recipient)
	if status != "" {
		db = db.Where("status = ?", string(status))
	}
	if after != nil {
		db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}
	var models []NotificationModel
	if err := db.Order("created_at DESC, id DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Notification, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, nil
}

func (r *NotificationMySQLRepository) Count(ctx context.Context, recipient string, status domain.Status) (int64, error) {
	var total int64
	db := r.getDB(ctx).Model(&NotificationModel{}).Where("recipient = ?", recipient)
	if status != "" {
		db = db.Where("status = ?", string(status))
	}
	if err := db.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *NotificationMySQLRepository) CountUnread(ctx context.Context, recipient string) (int64, error) {
	return r.Count(ctx, recipient, domain.StatusUnread)
}

func (r *NotificationMySQLRepository) MarkManyRead(ctx context.Context, ids []uint) error {
	return r.getDB(ctx).Model(&NotificationModel{}).Where("id IN ?", ids).
		Update("status", string(domain.StatusRead)).Error
}

func (r *NotificationMySQLRepository) MarkAllRead(ctx context.Context, recipient string) error {
	return r.getDB(ctx).Model(&NotificationModel{}).
		Where("recipient = ? AND status = ?", recipient, string(domain.StatusUnread)).
		Update("status", string(domain.StatusRead)).Error
}

func (r *NotificationMySQLRepository) DeleteMany(ctx context.Context, ids []uint) error {
	return r.getDB(ctx).Where("id IN ?", ids).Delete(&NotificationModel{}).Error
}

func (r *NotificationMySQLRepository) DeleteAll(ctx context.Context, recipient string) error {
	return r.getDB(ctx).Where("recipient = ?", recipient).Delete(&NotificationModel{}).Error
}

func (r *NotificationMySQLRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *NotificationMySQLRepository) toModel(n *domain.Notification) *NotificationModel {
	return &NotificationModel{
		Model:          gorm.Model{ID: n.ID, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt},
		NotificationID: n.NotificationID,
		Recipient:      n.Recipient,
		Type:           n.Type,
		Title:          n.Title,
		Message:        n.Message,
		TargetURL:      n.TargetURL,
		RelatedID:      n.RelatedID,
		Status:         string(n.Status),
	}
}

func (r *NotificationMySQLRepository) toDomain(m *NotificationModel) *domain.Notification {
	return &domain.Notification{
		ID:             m.Model.ID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
		NotificationID: m.NotificationID,
		Recipient:      m.Recipient,
		Type:           m.Type,
		Title:          m.Title,
		Message:        m.Message,
		TargetURL:      m.TargetURL,
		RelatedID:      m.RelatedID,
		Status:         domain.Status(m.Status),
	}
}
