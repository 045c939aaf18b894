package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/visabackoffice/internal/document/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// DocumentCommandService 材料审核引擎。
// 单个与批量审核共用同一条校验路径，批量审核按 id 升序加锁并整体提交或整体失败。
type DocumentCommandService struct {
	repo      domain.DocumentRepository
	publisher domain.EventPublisher
	observers []domain.ReviewObserver
	logger    *slog.Logger
}

// NewDocumentCommandService 创建材料命令服务实例。
func NewDocumentCommandService(repo domain.DocumentRepository, publisher domain.EventPublisher, logger *slog.Logger) *DocumentCommandService {
	return &DocumentCommandService{repo: repo, publisher: publisher, logger: logger}
}

// AddObserver 注册事务提交后的同步观察者。
func (s *DocumentCommandService) AddObserver(o domain.ReviewObserver) {
	s.observers = append(s.observers, o)
}

// RegisterDocument 登记申请材料。
func (s *DocumentCommandService) RegisterDocument(ctx context.Context, applicationID uint, documentType, fileName, fileURL string, required bool) (*domain.Document, error) {
	if documentType == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "document_type is required")
	}
	doc := domain.NewDocument(applicationID, documentType, fileName, fileURL, required)
	if err := s.repo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to save document: %w", err)
	}
	return doc, nil
}

// SetStatus 审核单个材料：合法迁移校验，审核人与审核时间一并落定。
func (s *DocumentCommandService) SetStatus(ctx context.Context, documentID uint, target domain.Status, reviewer, notes string) (*domain.Document, error) {
	var (
		doc   *domain.Document
		event domain.DocumentReviewedEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(txCtx, documentID)
		if err != nil {
			return err
		}
		if doc == nil {
			return errs.New(errs.CodeNotFound, "document %d not found", documentID)
		}
		if err := doc.Review(txCtx, target, reviewer, notes, time.Now()); err != nil {
			return err
		}
		if err := s.repo.Update(txCtx, doc); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		event = domain.DocumentReviewedEvent{
			DocumentID:    doc.ID,
			ApplicationID: doc.ApplicationID,
			DocumentType:  doc.DocumentType,
			Status:        string(target),
			Reviewer:      reviewer,
			Notes:         notes,
			Timestamp:     time.Now(),
		}
		return s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TopicDocumentReviewed,
			fmt.Sprintf("%d", doc.ApplicationID), event)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document reviewed",
		"document_id", doc.ID, "application_id", doc.ApplicationID, "status", string(target), "reviewer", reviewer)
	s.notifyObservers(ctx, event)
	return doc, nil
}

// BulkSetStatus 批量审核：全部成功或全部失败，失败时报告第一个出错的材料 id。
func (s *DocumentCommandService) BulkSetStatus(ctx context.Context, documentIDs []uint, target domain.Status, reviewer, notes string) ([]*domain.Document, error) {
	if len(documentIDs) == 0 {
		return nil, errs.New(errs.CodeInvalidArgument, "document ids cannot be empty")
	}
	ids := make([]uint, len(documentIDs))
	copy(ids, documentIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var (
		docs   []*domain.Document
		events []domain.DocumentReviewedEvent
	)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		docs, err = s.repo.GetManyForUpdate(txCtx, ids)
		if err != nil {
			return err
		}
		found := make(map[uint]bool, len(docs))
		for _, d := range docs {
			found[d.ID] = true
		}
		for _, id := range ids {
			if !found[id] {
				return errs.New(errs.CodeNotFound, "document %d not found", id)
			}
		}

		now := time.Now()
		for _, doc := range docs {
			if err := doc.Review(txCtx, target, reviewer, notes, now); err != nil {
				return fmt.Errorf("document %d: %w", doc.ID, err)
			}
			if err := s.repo.Update(txCtx, doc); err != nil {
				return fmt.Errorf("failed to update document %d: %w", doc.ID, err)
			}
			events = append(events, domain.DocumentReviewedEvent{
				DocumentID:    doc.ID,
				ApplicationID: doc.ApplicationID,
				DocumentType:  doc.DocumentType,
				Status:        string(target),
				Reviewer:      reviewer,
				Notes:         notes,
				Timestamp:     now,
			})
		}
		for _, event := range events {
			if err := s.publisher.PublishInTx(txCtx, contextx.GetTx(txCtx), domain.TopicDocumentReviewed,
				fmt.Sprintf("%d", event.ApplicationID), event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("documents bulk reviewed", "count", len(docs), "status", string(target), "reviewer", reviewer)
	for _, event := range events {
		s.notifyObservers(ctx, event)
	}
	return docs, nil
}

func (s *DocumentCommandService) notifyObservers(ctx context.Context, event domain.DocumentReviewedEvent) {
	for _, o := range s.observers {
		o.OnDocumentReviewed(ctx, event)
	}
}
