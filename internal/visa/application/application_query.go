package application

import (
	"context"

	"github.com/wyfcoding/visabackoffice/internal/visa/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// ApplicationQueryService 申请查询服务。
type ApplicationQueryService struct {
	repo        domain.ApplicationRepository
	historyRepo domain.StatusHistoryRepository
	memoRepo    domain.MemoRepository
}

// NewApplicationQueryService 创建申请查询服务实例。
func NewApplicationQueryService(repo domain.ApplicationRepository, historyRepo domain.StatusHistoryRepository, memoRepo domain.MemoRepository) *ApplicationQueryService {
	return &ApplicationQueryService{repo: repo, historyRepo: historyRepo, memoRepo: memoRepo}
}

// GetApplication 查询申请详情。
func (s *ApplicationQueryService) GetApplication(ctx context.Context, id uint) (*domain.VisaApplication, error) {
	app, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, errs.New(errs.CodeNotFound, "application %d not found", id)
	}
	return app, nil
}

// ListApplications 按状态分页查询申请。
func (s *ApplicationQueryService) ListApplications(ctx context.Context, status domain.Status, page, pageSize int) ([]*domain.VisaApplication, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(ctx, status, (page-1)*pageSize, pageSize)
}

// GetStatusHistory 查询申请的状态历史。
func (s *ApplicationQueryService) GetStatusHistory(ctx context.Context, applicationID uint) ([]*domain.StatusHistory, error) {
	return s.historyRepo.ListByApplication(ctx, applicationID)
}

// ListMemos 查询申请的备注。
func (s *ApplicationQueryService) ListMemos(ctx context.Context, applicationID uint) ([]*domain.Memo, error) {
	return s.memoRepo.ListByApplication(ctx, applicationID)
}

// VisaProfile 返回申请的签证类型与优先级，供账单定价使用。
func (s *ApplicationQueryService) VisaProfile(ctx context.Context, applicationID uint) (visaType, priority string, err error) {
	app, err := s.repo.Get(ctx, applicationID)
	if err != nil {
		return "", "", err
	}
	if app == nil {
		return "", "", errs.New(errs.CodeNotFound, "application %d not found", applicationID)
	}
	return app.VisaType, string(app.Priority), nil
}

// VisaType 返回申请的签证类型，供工作流模板匹配使用。
func (s *ApplicationQueryService) VisaType(ctx context.Context, applicationID uint) (string, error) {
	visaType, _, err := s.VisaProfile(ctx, applicationID)
	return visaType, err
}
