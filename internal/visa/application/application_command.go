package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/lifecycle"
	"github.com/wyfcoding/visabackoffice/internal/visa/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// ApplicationCommandService 申请生命周期协调器。
// 状态变更的校验、闸门检查与落库在同一事务内完成，申请行加锁串行化并发变更。
type ApplicationCommandService struct {
	repo         domain.ApplicationRepository
	historyRepo  domain.StatusHistoryRepository
	documentGate domain.DocumentGate
	paymentGate  domain.PaymentGate
	workflowGate domain.WorkflowGate
	publisher    domain.EventPublisher
	observers    []domain.TransitionObserver
	logger       *slog.Logger
}

// NewApplicationCommandService 创建申请命令服务实例。
func NewApplicationCommandService(
	repo domain.ApplicationRepository,
	historyRepo domain.StatusHistoryRepository,
	documentGate domain.DocumentGate,
	paymentGate domain.PaymentGate,
	workflowGate domain.WorkflowGate,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *ApplicationCommandService {
	return &ApplicationCommandService{
		repo:         repo,
		historyRepo:  historyRepo,
		documentGate: documentGate,
		paymentGate:  paymentGate,
		workflowGate: workflowGate,
		publisher:    publisher,
		logger:       logger,
	}
}

// AddObserver 注册事务提交后的同步观察者。
func (s *ApplicationCommandService) AddObserver(o domain.TransitionObserver) {
	s.observers = append(s.observers, o)
}

// CreateApplication 创建签证申请。
func (s *ApplicationCommandService) CreateApplication(ctx context.Context, userID, fullName, email, phone, nationality, passportNumber, visaType string, priority domain.Priority) (*domain.VisaApplication, error) {
	if userID == "" || fullName == "" || visaType == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "user_id, full_name and visa_type are required")
	}
	app := domain.NewVisaApplication(userID, fullName, email, phone, nationality, passportNumber, visaType, priority)
	if err := s.repo.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("failed to save application: %w", err)
	}
	s.logger.Info("visa application created",
		"application_id", app.ID, "application_no", app.ApplicationNo, "visa_type", app.VisaType)
	return app, nil
}

// RequestStatusChange 请求状态变更：注册表校验、审批闸门、历史追加与事件发布在同一事务内完成。
func (s *ApplicationCommandService) RequestStatusChange(ctx context.Context, applicationID uint, target domain.Status, actor, reason string) (*domain.VisaApplication, error) {
	if target == domain.StatusRejected && strings.TrimSpace(reason) == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "a reason is required when rejecting an application")
	}

	var (
		app   *domain.VisaApplication
		event domain.ApplicationStatusChangedEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.repo.GetForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if app == nil {
			return errs.New(errs.CodeNotFound, "application %d not found", applicationID)
		}
		from := app.Status

		if err := lifecycle.Validate(lifecycle.KindApplication, string(from), string(target)); err != nil {
			return err
		}
		if target == domain.StatusApproved {
			if err := s.checkApprovalGates(txCtx, applicationID); err != nil {
				return err
			}
		}

		if err := app.TransitionTo(txCtx, target); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, app); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		entry := &domain.StatusHistory{
			ApplicationID: app.ID,
			FromStatus:    from,
			ToStatus:      target,
			Actor:         actor,
			Reason:        reason,
		}
		if err := s.historyRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}

		event = domain.ApplicationStatusChangedEvent{
			ApplicationID: app.ID,
			ApplicationNo: app.ApplicationNo,
			UserID:        app.UserID,
			FromStatus:    string(from),
			ToStatus:      string(target),
			Actor:         actor,
			Reason:        reason,
			Timestamp:     time.Now(),
		}
		return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TopicApplicationStatusChanged, app.ApplicationNo, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("application status changed",
		"application_id", app.ID, "from", event.FromStatus, "to", event.ToStatus, "actor", actor)
	s.notifyObservers(ctx, event)
	return app, nil
}

// AdminUpdateApplicationStatus 管理员覆盖状态：绕过闸门与注册表，允许离开终态。
// 历史条目带 override 标记，审计轨迹上与常规变更可区分。
func (s *ApplicationCommandService) AdminUpdateApplicationStatus(ctx context.Context, applicationID uint, target domain.Status, actor, reason string) (*domain.VisaApplication, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "a reason is required for an administrative override")
	}
	if !validStatus(target) {
		return nil, errs.New(errs.CodeInvalidArgument, "unknown application status %q", target)
	}

	var (
		app   *domain.VisaApplication
		event domain.ApplicationStatusChangedEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		app, err = s.repo.GetForUpdate(txCtx, applicationID)
		if err != nil {
			return err
		}
		if app == nil {
			return errs.New(errs.CodeNotFound, "application %d not found", applicationID)
		}
		from := app.Status
		if from == target {
			return errs.New(errs.CodeInvalidArgument, "application is already %s", target)
		}

		app.ApplyOverride(target)
		if err := s.repo.Update(txCtx, app); err != nil {
			return fmt.Errorf("failed to update application: %w", err)
		}

		entry := &domain.StatusHistory{
			ApplicationID: app.ID,
			FromStatus:    from,
			ToStatus:      target,
			Actor:         actor,
			Reason:        reason,
			Override:      true,
		}
		if err := s.historyRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("failed to append status history: %w", err)
		}

		event = domain.ApplicationStatusChangedEvent{
			ApplicationID: app.ID,
			ApplicationNo: app.ApplicationNo,
			UserID:        app.UserID,
			FromStatus:    string(from),
			ToStatus:      string(target),
			Actor:         actor,
			Reason:        reason,
			Override:      true,
			Timestamp:     time.Now(),
		}
		return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TopicApplicationStatusChanged, app.ApplicationNo, event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("application status overridden by admin",
		"application_id", app.ID, "from", event.FromStatus, "to", event.ToStatus, "actor", actor, "reason", reason)
	s.notifyObservers(ctx, event)
	return app, nil
}

// checkApprovalGates 聚合三侧闸门结论，任一未满足即拒绝审批。
func (s *ApplicationCommandService) checkApprovalGates(ctx context.Context, applicationID uint) error {
	var unmet []string

	missing, err := s.documentGate.UnapprovedRequired(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to check document gate: %w", err)
	}
	if len(missing) > 0 {
		unmet = append(unmet, fmt.Sprintf("required documents not approved: %s", strings.Join(missing, ", ")))
	}

	invoiceNo, outstanding, err := s.paymentGate.OutstandingInvoice(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to check payment gate: %w", err)
	}
	if outstanding {
		unmet = append(unmet, fmt.Sprintf("invoice %s not fully paid", invoiceNo))
	}

	incomplete, err := s.workflowGate.IncompleteRequired(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("failed to check workflow gate: %w", err)
	}
	if len(incomplete) > 0 {
		unmet = append(unmet, fmt.Sprintf("required checklist items incomplete: %s", strings.Join(incomplete, ", ")))
	}

	if len(unmet) > 0 {
		return errs.New(errs.CodeGateConditionUnmet, "cannot approve application: %s", strings.Join(unmet, "; "))
	}
	return nil
}

func (s *ApplicationCommandService) notifyObservers(ctx context.Context, event domain.ApplicationStatusChangedEvent) {
	for _, o := range s.observers {
		o.OnStatusChanged(ctx, event)
	}
}

func validStatus(st domain.Status) bool {
	switch st {
	case domain.StatusPending, domain.StatusProcessing, domain.StatusApproved, domain.StatusRejected:
		return true
	}
	return false
}
