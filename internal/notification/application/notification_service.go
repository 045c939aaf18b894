package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wyfcoding/visabackoffice/internal/notification/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// NotificationService 通知应用服务。
// 未读数走 redis 读穿缓存，任何写操作后按收件人失效。
type NotificationService struct {
	repo    domain.NotificationRepository
	counter domain.UnreadCounter
	logger  *slog.Logger
}

// NewNotificationService 创建通知应用服务实例。
func NewNotificationService(repo domain.NotificationRepository, counter domain.UnreadCounter, logger *slog.Logger) *NotificationService {
	return &NotificationService{repo: repo, counter: counter, logger: logger}
}

// Send 直接创建一条通知。
func (s *NotificationService) Send(ctx context.Context, recipient, notifType, title, message, targetURL string, relatedID uint) (*domain.Notification, error) {
	if recipient == "" || title == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "recipient and title are required")
	}
	if notifType == "" {
		notifType = domain.TypeSystem
	}
	n := domain.NewNotification(recipient, notifType, title, message, targetURL, relatedID)
	if err := s.repo.Save(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to save notification: %w", err)
	}
	s.invalidate(ctx, recipient)
	return n, nil
}

// Paginated 键集分页查询，limit+1 探测下一页。
func (s *NotificationService) Paginated(ctx context.Context, recipient string, status domain.Status, cursorToken string, limit int) (*domain.Page, error) {
	if recipient == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "recipient is required")
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var after *domain.Cursor
	if cursorToken != "" {
		cursor, err := domain.DecodeCursor(cursorToken)
		if err != nil {
			return nil, err
		}
		after = &cursor
	}

	notifications, err := s.repo.ListAfter(ctx, recipient, status, after, limit+1)
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Count(ctx, recipient, status)
	if err != nil {
		return nil, err
	}

	page := &domain.Page{TotalCount: total}
	if len(notifications) > limit {
		page.HasNextPage = true
		notifications = notifications[:limit]
	}
	page.Notifications = notifications
	if page.HasNextPage && len(notifications) > 0 {
		last := notifications[len(notifications)-1]
		page.NextCursor = domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}.Encode()
	}
	return page, nil
}

// UnreadCount 查询未读数，优先读缓存，未命中时回源并回填。
func (s *NotificationService) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	if count, ok, err := s.counter.Get(ctx, recipient); err == nil && ok {
		return count, nil
	} else if err != nil {
		s.logger.Warn("unread counter cache read failed", "recipient", recipient, "error", err)
	}

	count, err := s.repo.CountUnread(ctx, recipient)
	if err != nil {
		return 0, err
	}
	if err := s.counter.Set(ctx, recipient, count); err != nil {
		s.logger.Warn("unread counter cache write failed", "recipient", recipient, "error", err)
	}
	return count, nil
}

// MarkRead 将单条通知置为已读。
func (s *NotificationService) MarkRead(ctx context.Context, id uint) (*domain.Notification, error) {
	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, errs.New(errs.CodeNotFound, "notification %d not found", id)
	}
	if n.Status == domain.StatusRead {
		return n, nil
	}
	n.MarkRead()
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to update notification: %w", err)
	}
	s.invalidate(ctx, n.Recipient)
	return n, nil
}

// MarkAllRead 将收件人全部未读通知置为已读。
func (s *NotificationService) MarkAllRead(ctx context.Context, recipient string) error {
	if recipient == "" {
		return errs.New(errs.CodeInvalidArgument, "recipient is required")
	}
	if err := s.repo.MarkAllRead(ctx, recipient); err != nil {
		return fmt.Errorf("failed to mark all read: %w", err)
	}
	s.invalidate(ctx, recipient)
	return nil
}

// Bulk 对指定通知批量执行操作，整体成功或整体失败。
func (s *NotificationService) Bulk(ctx context.Context, ids []uint, action domain.BulkAction) error {
	if len(ids) == 0 {
		return errs.New(errs.CodeInvalidArgument, "notification ids cannot be empty")
	}

	recipients := make(map[string]bool)
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		notifications, err := s.repo.GetMany(txCtx, ids)
		if err != nil {
			return err
		}
		found := make(map[uint]bool, len(notifications))
		for _, n := range notifications {
			found[n.ID] = true
			recipients[n.Recipient] = true
		}
		for _, id := range ids {
			if !found[id] {
				return errs.New(errs.CodeNotFound, "notification %d not found", id)
			}
		}

		switch action {
		case domain.BulkMarkAllRead:
			return s.repo.MarkManyRead(txCtx, ids)
		case domain.BulkDeleteAll:
			return s.repo.DeleteMany(txCtx, ids)
		default:
			return errs.New(errs.CodeInvalidArgument, "unknown bulk action %q", action)
		}
	})
	if err != nil {
		return err
	}

	for recipient := range recipients {
		s.invalidate(ctx, recipient)
	}
	s.logger.Info("bulk notification action applied", "action", string(action), "count", len(ids))
	return nil
}

// DeleteAll 删除收件人全部通知。
func (s *NotificationService) DeleteAll(ctx context.Context, recipient string) error {
	if recipient == "" {
		return errs.New(errs.CodeInvalidArgument, "recipient is required")
	}
	if err := s.repo.DeleteAll(ctx, recipient); err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	s.invalidate(ctx, recipient)
	return nil
}

func (s *NotificationService) invalidate(ctx context.Context, recipient string) {
	if err := s.counter.Invalidate(ctx, recipient); err != nil {
		s.logger.Warn("unread counter invalidation failed", "recipient", recipient, "error", err)
	}
}
