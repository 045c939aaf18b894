package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/visabackoffice/internal/workflow/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// TemplateCommandService 工作流模板命令服务。
type TemplateCommandService struct {
	repo   domain.TemplateRepository
	logger *slog.Logger
}

// NewTemplateCommandService 创建模板命令服务实例。
func NewTemplateCommandService(repo domain.TemplateRepository, logger *slog.Logger) *TemplateCommandService {
	return &TemplateCommandService{repo: repo, logger: logger}
}

// CreateTemplate 创建工作流模板。
func (s *TemplateCommandService) CreateTemplate(ctx context.Context, name, visaType string, checklist domain.Checklist, rules domain.AutomationRules) (*domain.WorkflowTemplate, error) {
	if name == "" || visaType == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "name and visa_type are required")
	}
	if len(checklist) == 0 {
		return nil, errs.New(errs.CodeInvalidArgument, "checklist cannot be empty")
	}
	seen := make(map[string]bool, len(checklist))
	for _, item := range checklist {
		if item.Name == "" {
			return nil, errs.New(errs.CodeInvalidArgument, "checklist item name cannot be empty")
		}
		if seen[item.Name] {
			return nil, errs.New(errs.CodeInvalidArgument, "duplicate checklist item %q", item.Name)
		}
		seen[item.Name] = true
	}

	tpl := &domain.WorkflowTemplate{
		Name:      name,
		VisaType:  visaType,
		Active:    true,
		Checklist: checklist,
		Rules:     rules,
	}
	if err := s.repo.Save(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to save template: %w", err)
	}
	s.logger.Info("workflow template created", "template_id", tpl.ID, "name", name, "visa_type", visaType)
	return tpl, nil
}

// UpdateTemplate 更新模板定义，已实例化的工作流不受影响。
func (s *TemplateCommandService) UpdateTemplate(ctx context.Context, id uint, name string, checklist domain.Checklist, rules domain.AutomationRules) (*domain.WorkflowTemplate, error) {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, errs.New(errs.CodeNotFound, "workflow template %d not found", id)
	}
	if name != "" {
		tpl.Name = name
	}
	if len(checklist) > 0 {
		tpl.Checklist = checklist
	}
	if rules != nil {
		tpl.Rules = rules
	}
	if err := s.repo.Update(ctx, tpl); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return tpl, nil
}

// DeactivateTemplate 停用模板，新申请不再匹配到它。
func (s *TemplateCommandService) DeactivateTemplate(ctx context.Context, id uint) error {
	tpl, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if tpl == nil {
		return errs.New(errs.CodeNotFound, "workflow template %d not found", id)
	}
	tpl.Active = false
	if err := s.repo.Update(ctx, tpl); err != nil {
		return fmt.Errorf("failed to deactivate template: %w", err)
	}
	s.logger.Info("workflow template deactivated", "template_id", id)
	return nil
}
