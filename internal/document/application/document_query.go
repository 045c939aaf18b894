package application

import (
	"context"

	"github.com/wyfcoding/visabackoffice/internal/document/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// Statistics 材料审核统计结果
type Statistics struct {
	Total      int64                `json:"total"`
	ByStatus   []domain.StatusCount `json:"by_status"`
	ReviewRate float64              `json:"review_rate"`
}

// DocumentQueryService 材料查询服务，同时实现协调器的材料侧闸门。
type DocumentQueryService struct {
	repo domain.DocumentRepository
}

// NewDocumentQueryService 创建材料查询服务实例。
func NewDocumentQueryService(repo domain.DocumentRepository) *DocumentQueryService {
	return &DocumentQueryService{repo: repo}
}

// GetDocument 查询材料详情。
func (s *DocumentQueryService) GetDocument(ctx context.Context, id uint) (*domain.Document, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errs.New(errs.CodeNotFound, "document %d not found", id)
	}
	return doc, nil
}

// ListDocuments 分页查询全部材料。
func (s *DocumentQueryService) ListDocuments(ctx context.Context, page, pageSize int) ([]*domain.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.List(ctx, (page-1)*pageSize, pageSize)
}

// ListByApplication 查询申请名下全部材料。
func (s *DocumentQueryService) ListByApplication(ctx context.Context, applicationID uint) ([]*domain.Document, error) {
	return s.repo.ListByApplication(ctx, applicationID)
}

// GetStatistics 按状态统计材料并计算审核通过率，applicationID 为 0 时统计全量。
// 无任何材料时通过率为 0。
func (s *DocumentQueryService) GetStatistics(ctx context.Context, applicationID uint) (*Statistics, error) {
	counts, err := s.repo.CountByStatus(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	stats := &Statistics{ByStatus: counts}
	var approved int64
	for _, c := range counts {
		stats.Total += c.Count
		if c.Status == domain.StatusApproved {
			approved = c.Count
		}
	}
	if stats.Total > 0 {
		stats.ReviewRate = float64(approved) / float64(stats.Total)
	}
	return stats, nil
}

// UnapprovedRequired 返回尚未通过审核的必需材料类型，供审批闸门使用。
func (s *DocumentQueryService) UnapprovedRequired(ctx context.Context, applicationID uint) ([]string, error) {
	docs, err := s.repo.ListUnapprovedRequired(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	types := make([]string, 0, len(docs))
	for _, d := range docs {
		types = append(types, d.DocumentType)
	}
	return types, nil
}
