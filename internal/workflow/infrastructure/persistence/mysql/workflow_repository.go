// 生成摘要：申请工作流 MySQL 仓储实现。
package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/workflow/domain"
)

// ApplicationWorkflowModel 申请工作流数据库模型
type ApplicationWorkflowModel struct {
	gorm.Model
	ApplicationID uint                   `gorm:"column:application_id;uniqueIndex;not null"`
	TemplateID    uint                   `gorm:"column:template_id;index;not null"`
	TemplateName  string                 `gorm:"column:template_name;type:varchar(128);not null"`
	VisaType      string                 `gorm:"column:visa_type;type:varchar(32);not null"`
	Checklist     domain.Checklist       `gorm:"column:checklist;type:json"`
	Status        domain.ChecklistStatus `gorm:"column:status;type:json"`
	Rules         domain.AutomationRules `gorm:"column:rules;type:json"`
	CompletedAt   *time.Time             `gorm:"column:completed_at"`
}

func (ApplicationWorkflowModel) TableName() string {
	return "application_workflows"
}

// WorkflowMySQLRepository 申请工作流 MySQL 仓储实现
type WorkflowMySQLRepository struct {
	db *gorm.DB
}

// NewWorkflowRepository 创建申请工作流仓储
func NewWorkflowRepository(db *gorm.DB) domain.WorkflowRepository {
	return &WorkflowMySQLRepository{db: db}
}

func (r *WorkflowMySQLRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := contextx.GetTx(ctx); tx != nil {
		if gormTx, ok := tx.(*gorm.DB); ok {
			return gormTx
		}
	}
	return r.db.WithContext(ctx)
}

func (r *WorkflowMySQLRepository) Save(ctx context.Context, wf *domain.ApplicationWorkflow) error {
	model := r.toModel(wf)
	if err := r.getDB(ctx).Create(model).Error; err != nil {
		return err
	}
	wf.ID = model.ID
	wf.CreatedAt = model.CreatedAt
	wf.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *WorkflowMySQLRepository) Get(ctx context.Context, id uint) (*domain.ApplicationWorkflow, error) {
	var model ApplicationWorkflowModel
	if err := r.getDB(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *WorkflowMySQLRepository) FindByApplication(ctx context.Context, applicationID uint) (*domain.ApplicationWorkflow, error) {
	var model ApplicationWorkflowModel
	if err := r.getDB(ctx).Where("application_id = ?", applicationID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *WorkflowMySQLRepository) FindByApplicationForUpdate(ctx context.Context, applicationID uint) (*domain.ApplicationWorkflow, error) {
	var model ApplicationWorkflowModel
	if err := r.getDB(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", applicationID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.toDomain(&model), nil
}

func (r *WorkflowMySQLRepository) Update(ctx context.Context, wf *domain.ApplicationWorkflow) error {
	model := r.toModel(wf)
	return r.getDB(ctx).Model(&ApplicationWorkflowModel{}).Where("id = ?", wf.ID).
		Select("template_id", "template_name", "visa_type", "checklist", "status", "rules", "completed_at").
		Updates(model).Error
}

func (r *WorkflowMySQLRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := contextx.WithTx(ctx, tx)
		return fn(txCtx)
	})
}

func (r *WorkflowMySQLRepository) toModel(w *domain.ApplicationWorkflow) *ApplicationWorkflowModel {
	return &ApplicationWorkflowModel{
		Model:         gorm.Model{ID: w.ID, CreatedAt: w.CreatedAt, UpdatedAt: w.UpdatedAt},
		ApplicationID: w.ApplicationID,
		TemplateID:    w.TemplateID,
		TemplateName:  w.TemplateName,
		VisaType:      w.VisaType,
		Checklist:     w.Checklist,
		Status:        w.Status,
		Rules:         w.Rules,
		CompletedAt:   w.CompletedAt,
	}
}

func (r *WorkflowMySQLRepository) toDomain(m *ApplicationWorkflowModel) *domain.ApplicationWorkflow {
	return &domain.ApplicationWorkflow{
		ID:            m.Model.ID,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
		ApplicationID: m.ApplicationID,
		TemplateID:    m.TemplateID,
		TemplateName:  m.TemplateName,
		VisaType:      m.VisaType,
		Checklist:     m.Checklist,
		Status:        m.Status,
		Rules:         m.Rules,
		CompletedAt:   m.CompletedAt,
	}
}
