package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/workflow/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// ApplicationDirectory 向申请上下文查询签证类型。
type ApplicationDirectory interface {
	VisaType(ctx context.Context, applicationID uint) (string, error)
}

// WorkflowCommandService 申请工作流命令服务。
// 每个申请至多持有一个工作流实例，进度变更在行锁下串行化。
type WorkflowCommandService struct {
	workflowRepo domain.WorkflowRepository
	templateRepo domain.TemplateRepository
	directory    ApplicationDirectory
	publisher    domain.EventPublisher
	observers    []domain.CompletionObserver
	logger       *slog.Logger
}

// NewWorkflowCommandService 创建工作流命令服务实例。
func NewWorkflowCommandService(
	workflowRepo domain.WorkflowRepository,
	templateRepo domain.TemplateRepository,
	directory ApplicationDirectory,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *WorkflowCommandService {
	return &WorkflowCommandService{
		workflowRepo: workflowRepo,
		templateRepo: templateRepo,
		directory:    directory,
		publisher:    publisher,
		logger:       logger,
	}
}

// AddObserver 注册事务提交后的同步观察者。
func (s *WorkflowCommandService) AddObserver(o domain.CompletionObserver) {
	s.observers = append(s.observers, o)
}

// InitializeWorkflow 按申请的签证类型匹配启用模板并实例化工作流。
func (s *WorkflowCommandService) InitializeWorkflow(ctx context.Context, applicationID uint) (*domain.ApplicationWorkflow, error) {
	visaType, err := s.directory.VisaType(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	var wf *domain.ApplicationWorkflow
	err = s.workflowRepo.WithTx(ctx, func(txCtx context.Context) error {
		existing, err := s.workflowRepo.FindByApplicationForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if existing != nil {
			return errs.New(errs.CodeAlreadyInitialized, "application %d already has a workflow", applicationID)
		}

		tpl, err := s.templateRepo.FindActiveByVisaType(txCtx, visaType)
		if err != nil {
			return err
		}
		if tpl == nil {
			return errs.New(errs.CodeNoMatchingTemplate, "no active workflow template for visa type %s", visaType)
		}

		wf = domain.NewApplicationWorkflow(applicationID, tpl)
		return s.workflowRepo.Save(txCtx, wf)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("workflow initialized",
		"application_id", applicationID, "template", wf.TemplateName, "visa_type", visaType)
	return wf, nil
}

// UpdateChecklist 以补丁方式更新清单项进度，一个事务内合并全部条目后
// 才做完成判定，全部必需项完成时落定完成时间并发布完成事件。
func (s *WorkflowCommandService) UpdateChecklist(ctx context.Context, applicationID uint, items map[string]bool) (*domain.ApplicationWorkflow, error) {
	if len(items) == 0 {
		return nil, errs.New(errs.CodeInvalidArgument, "checklist patch cannot be empty")
	}
	names := make([]string, 0, len(items))
	for name := range items {
		names = append(names, name)
	}
	sort.Strings(names)

	var (
		wf        *domain.ApplicationWorkflow
		event     domain.WorkflowCompletedEvent
		completed bool
	)
	err := s.workflowRepo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		wf, err = s.workflowRepo.FindByApplicationForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if wf == nil {
			return errs.New(errs.CodeNotFound, "application %d has no workflow", applicationID)
		}

		now := time.Now()
		for _, name := range names {
			if err := wf.MarkItem(name, items[name], now); err != nil {
				return err
			}
		}

		wasComplete := wf.CompletedAt != nil
		if wf.RequiredComplete() {
			if !wasComplete {
				wf.CompletedAt = &now
				completed = true
			}
		} else {
			wf.CompletedAt = nil
		}

		if err := s.workflowRepo.Update(txCtx, wf); err != nil {
			return fmt.Errorf("failed to update workflow: %w", err)
		}

		if completed {
			event = domain.WorkflowCompletedEvent{
				WorkflowID:    wf.ID,
				ApplicationID: wf.ApplicationID,
				TemplateName:  wf.TemplateName,
				Timestamp:     now,
			}
			s.applyRules(txCtx, wf, &event)
			return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TopicWorkflowCompleted,
				fmt.Sprintf("%d", wf.ApplicationID), event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.logger.Info("workflow completed", "application_id", applicationID, "template", wf.TemplateName)
		for _, o := range s.observers {
			o.OnWorkflowCompleted(ctx, event)
		}
	}
	return wf, nil
}

// ApplyTemplate 为申请套用指定模板并重置全部进度。
func (s *WorkflowCommandService) ApplyTemplate(ctx context.Context, applicationID, templateID uint) (*domain.ApplicationWorkflow, error) {
	var wf *domain.ApplicationWorkflow
	err := s.workflowRepo.WithTx(ctx, func(txCtx context.Context) error {
		tpl, err := s.templateRepo.Get(txCtx, templateID)
		if err != nil {
			return err
		}
		if tpl == nil {
			return errs.New(errs.CodeNotFound, "workflow template %d not found", templateID)
		}

		wf, err = s.workflowRepo.FindByApplicationForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if wf == nil {
			wf = domain.NewApplicationWorkflow(applicationID, tpl)
			return s.workflowRepo.Save(txCtx, wf)
		}

		wf.ApplyTemplate(tpl)
		return s.workflowRepo.Update(txCtx, wf)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("workflow template applied, progress reset",
		"application_id", applicationID, "template_id", templateID)
	return wf, nil
}

// applyRules 在完成事件上执行模板的自动化规则，未知动作仅记录告警。
func (s *WorkflowCommandService) applyRules(ctx context.Context, wf *domain.ApplicationWorkflow, event *domain.WorkflowCompletedEvent) {
	for _, rule := range wf.Rules {
		switch rule.Effect {
		case domain.RuleEffectNotify:
			event.Notify = true
			event.NotifyTarget = rule.Target
		case domain.RuleEffectAdvanceStatus:
			// 状态推进由协调器消费完成事件后自行决定，这里不直接改申请。
		default:
			s.logger.Warn("unknown automation rule effect ignored",
				"effect", rule.Effect, "template", wf.TemplateName)
		}
	}
}
