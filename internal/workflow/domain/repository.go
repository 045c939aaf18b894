package domain

import "context"

// TemplateRepository 工作流模板仓储接口
type TemplateRepository interface {
	Save(ctx context.Context, tpl *WorkflowTemplate) error
	Get(ctx context.Context, id uint) (*WorkflowTemplate, error)
	Update(ctx context.Context, tpl *WorkflowTemplate) error
	List(ctx context.Context, offset, limit int) ([]*WorkflowTemplate, int64, error)
	// FindActiveByVisaType 返回匹配签证类型的启用模板，无匹配时返回 (nil, nil)。
	FindActiveByVisaType(ctx context.Context, visaType string) (*WorkflowTemplate, error)
}

// WorkflowRepository 申请工作流仓储接口
type WorkflowRepository interface {
	Save(ctx context.Context, wf *ApplicationWorkflow) error
	Get(ctx context.Context, id uint) (*ApplicationWorkflow, error)
	FindByApplication(ctx context.Context, applicationID uint) (*ApplicationWorkflow, error)
	// FindByApplicationForUpdate 加行锁读取，必须在事务内调用。
	FindByApplicationForUpdate(ctx context.Context, applicationID uint) (*ApplicationWorkflow, error)
	Update(ctx context.Context, wf *ApplicationWorkflow) error
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
