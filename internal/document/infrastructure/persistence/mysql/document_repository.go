// 生成摘要：申请材料 MySQL 仓储实现。
package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/document/domain"
)

// DocumentModel 申请材料数据库模型
type DocumentModel struct {
	gorm.Model
	ApplicationID uint       `gorm:"column:application_id;index;not null"`
	DocumentType  string     `gorm:"column:document_type;type:varchar(64);index;not null"`
	FileName      string     `gorm:"column:file_name;type:varchar(255)"`
	FileURL       string     `gorm:"column:file_url;type:text"`
	Required      bool       `gorm:"column:required;not null;default:false"`
	Status        string     `gorm:"column:status;type:varchar(32);not null;index"`
	ReviewedBy    string     `gorm:"column:reviewed_by;type:varchar(64)"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at"`
	Notes         string     `gorm:"column:notes;type:text"`
}

func (DocumentModel) TableName() string {
	return "documents"
}

// DocumentMySQLRepository 申请材料 MySQL 仓储实现
type DocumentMySQLRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建申请材料仓储
func NewDocumentRepository(db *gorm.DB) domain.DocumentRepository {
	return &DocumentMySQLRepository{db: db}
}

func (r *DocumentMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *DocumentMySQLRepository) Save(ctx context.Context, doc *domain.Document) error {
	model := r.toModel(doc)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	doc.ID = model.ID
	doc.CreatedAt = model.CreatedAt
	doc.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *DocumentMySQLRepository) Get(ctx context.Context, id uint) (*domain.Document, error) {
	var model DocumentModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *DocumentMySQLRepository) GetForUpdate(ctx context.Context, id uint) (*domain.Document, error) {
	var model DocumentModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *DocumentMySQLRepository) GetManyForUpdate(ctx context.Context, ids []uint) ([]*domain.Document, error) {
	var models []DocumentModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Document, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, nil
}

func (r *DocumentMySQLRepository) Update(ctx context.Context, doc *domain.Document) error {
	model := r.toModel(doc)
	return r.getDB(ctx).Model(&DocumentModel{}).Where("id = ?", doc.ID).Updates(model).Error
}

func (r *DocumentMySQLRepository) List(ctx context.Context, offset, limit int) ([]*domain.Document, int64, error) {
	var models []DocumentModel
	var total int64
	db := r.getDB(ctx).Model(&DocumentModel{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	result := make([]*domain.Document, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, total, nil
}

func (r *DocumentMySQLRepository) ListByApplication(ctx context.Context, applicationID uint) ([]*domain.Document, error) {
	var models []DocumentModel
	if err := r.getDB(ctx).Where("application_id = ?", applicationID).
		Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Document, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, nil
}

func (r *DocumentMySQLRepository) ListUnapprovedRequired(ctx context.Context, applicationID uint) ([]*domain.Document, error) {
	var models []DocumentModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ? AND required = ? AND status <> ?", applicationID, true, string(domain.StatusApproved)).
		Order("id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	result := make([]*domain.Document, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, nil
}

func (r *DocumentMySQLRepository) CountByStatus(ctx context.Context, applicationID uint) ([]domain.StatusCount, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	db := r.getDB(ctx).Model(&DocumentModel{}).Select("status, COUNT(*) AS count").Group("status")
	if applicationID != 0 {
		db = db.Where("application_id = ?", applicationID)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, err
	}
	result := make([]domain.StatusCount, len(rows))
	for i, rw := range rows {
		result[i] = domain.StatusCount{Status: domain.Status(rw.Status), Count: rw.Count}
	}
	return result, nil
}

func (r *DocumentMySQLRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *DocumentMySQLRepository) toModel(d *domain.Document) *DocumentModel {
	return &DocumentModel{
		Model:         gorm.Model{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		ApplicationID: d.ApplicationID,
		DocumentType:  d.DocumentType,
		FileName:      d.FileName,
		FileURL:       d.FileURL,
		Required:      d.Required,
		Status:        string(d.Status),
		ReviewedBy:    d.ReviewedBy,
		ReviewedAt:    d.ReviewedAt,
		Notes:         d.Notes,
	}
}

func (r *DocumentMySQLRepository) toDomain(m *DocumentModel) *domain.Document {
	d := &domain.Document{
		ID:            m.Model.ID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		ApplicationID: m.ApplicationID,
		DocumentType:  m.DocumentType,
		FileName:      m.FileName,
		FileURL:       m.FileURL,
		Required:      m.Required,
		Status:        domain.Status(m.Status),
		ReviewedBy:    m.ReviewedBy,
		ReviewedAt:    m.ReviewedAt,
		Notes:         m.Notes,
	}
	d.InitFSM()
	return d
}
