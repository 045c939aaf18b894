package application

import (
	"context"

	"github.com/wyfcoding/visabackoffice/internal/workflow/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// WorkflowQueryService 工作流查询服务，同时实现协调器的工作流侧闸门。
type WorkflowQueryService struct {
	workflowRepo domain.WorkflowRepository
	templateRepo domain.TemplateRepository
}

// NewWorkflowQueryService 创建工作流查询服务实例。
func NewWorkflowQueryService(workflowRepo domain.WorkflowRepository, templateRepo domain.TemplateRepository) *WorkflowQueryService {
	return &WorkflowQueryService{workflowRepo: workflowRepo, templateRepo: templateRepo}
}

// GetWorkflow 查询申请的工作流。
func (s *WorkflowQueryService) GetWorkflow(ctx context.Context, applicationID uint) (*domain.ApplicationWorkflow, error) {
	wf, err := s.workflowRepo.FindByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, errs.New(errs.CodeNotFound, "application %d has no workflow", applicationID)
	}
	return wf, nil
}

// ListTemplates 分页查询模板。
func (s *WorkflowQueryService) ListTemplates(ctx context.Context, page, pageSize int) ([]*domain.WorkflowTemplate, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.templateRepo.List(ctx, (page-1)*pageSize, pageSize)
}

// GetTemplate 查询模板详情。
func (s *WorkflowQueryService) GetTemplate(ctx context.Context, id uint) (*domain.WorkflowTemplate, error) {
	tpl, err := s.templateRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, errs.New(errs.CodeNotFound, "workflow template %d not found", id)
	}
	return tpl, nil
}

// IncompleteRequired 返回尚未完成的必需清单项，供审批闸门在协调器事务内调用。
// 加锁读取，避免闸门判定与清单更新并发交错；申请没有工作流时不构成阻塞，返回空。
func (s *WorkflowQueryService) IncompleteRequired(ctx context.Context, applicationID uint) ([]string, error) {
	wf, err := s.workflowRepo.FindByApplicationForUpdate(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if wf == nil {
		return nil, nil
	}
	return wf.IncompleteRequired(), nil
}
