// 生成摘要：工作流模板 MySQL 仓储实现。
package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/workflow/domain"
)

// WorkflowTemplateModel 工作流模板数据库模型
type WorkflowTemplateModel struct {
	gorm.Model
	Name      string                 `gorm:"column:name;type:varchar(128);not null"`
	VisaType  string                 `gorm:"column:visa_type;type:varchar(32);index;not null"`
	Active    bool                   `gorm:"column:active;not null;default:true;index"`
	Checklist domain.Checklist       `gorm:"column:checklist;type:json"`
	Rules     domain.AutomationRules `gorm:"column:rules;type:json"`
}

func (WorkflowTemplateModel) TableName() string {
	return "workflow_templates"
}

// TemplateMySQLRepository 工作流模板 MySQL 仓储实现
type TemplateMySQLRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建工作流模板仓储
func NewTemplateRepository(db *gorm.DB) domain.TemplateRepository {
	return &TemplateMySQLRepository{db: db}
}

func (r *TemplateMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *TemplateMySQLRepository) Save(ctx context.Context, tpl *domain.WorkflowTemplate) error {
	model := r.toModel(tpl)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	tpl.ID = model.ID
	tpl.CreatedAt = model.CreatedAt
	tpl.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *TemplateMySQLRepository) Get(ctx context.Context, id uint) (*domain.WorkflowTemplate, error) {
	var model WorkflowTemplateModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *TemplateMySQLRepository) Update(ctx context.Context, tpl *domain.WorkflowTemplate) error {
	model := r.toModel(tpl)
	return r.getDB(ctx).Model(&WorkflowTemplateModel{}).Where("id = ?", tpl.ID).
		Select("name", "visa_type", "active", "checklist", "rules").Updates(model).Error
}

func (r *TemplateMySQLRepository) List(ctx context.Context, offset, limit int) ([]*domain.WorkflowTemplate, int64, error) {
	var models []WorkflowTemplateModel
	var total int64
	db := r.getDB(ctx).Model(&WorkflowTemplateModel{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	result := make([]*domain.WorkflowTemplate, len(models))
	for i, m := range models {
		result[i] = r.toDomain(&m)
	}
	return result, total, nil
}

func (r *TemplateMySQLRepository) FindActiveByVisaType(ctx context.Context, visaType string) (*domain.WorkflowTemplate, error) {
	var model WorkflowTemplateModel
	if err := r.getDB(ctx).Where("visa_type = ? AND active = ?", visaType, true).
		Order("created_at DESC").First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *TemplateMySQLRepository) toModel(t *domain.WorkflowTemplate) *WorkflowTemplateModel {
	return &WorkflowTemplateModel{
		Model:     gorm.Model{ID: t.ID, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt},
		Name:      t.Name,
		VisaType:  t.VisaType,
		Active:    t.Active,
		Checklist: t.Checklist,
		Rules:     t.Rules,
	}
}

func (r *TemplateMySQLRepository) toDomain(m *WorkflowTemplateModel) *domain.WorkflowTemplate {
	return &domain.WorkflowTemplate{
		ID:        m.Model.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
		Name:      m.Name,
		VisaType:  m.VisaType,
		Active:    m.Active,
		Checklist: m.Checklist,
		Rules:     m.Rules,
	}
}
