package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wyfcoding/visabackoffice/internal/visa/domain"
	"github.com/wyfcoding/visabackoffice/pkg/errs"
)

// MemoCommandService 申请备注命令服务。备注只能由创建者修改或删除。
type MemoCommandService struct {
	memoRepo domain.MemoRepository
	appRepo  domain.ApplicationRepository
	logger   *slog.Logger
}

// NewMemoCommandService 创建备注命令服务实例。
func NewMemoCommandService(memoRepo domain.MemoRepository, appRepo domain.ApplicationRepository, logger *slog.Logger) *MemoCommandService {
	return &MemoCommandService{memoRepo: memoRepo, appRepo: appRepo, logger: logger}
}

// AddMemo 为申请追加备注。
func (s *MemoCommandService) AddMemo(ctx context.Context, applicationID uint, author, content string) (*domain.Memo, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "memo content cannot be empty")
	}
	app, err := s.appRepo.Get(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, errs.New(errs.CodeNotFound, "application %d not found", applicationID)
	}
	memo := &domain.Memo{ApplicationID: applicationID, Author: author, Content: content}
	if err := s.memoRepo.Save(ctx, memo); err != nil {
		return nil, fmt.Errorf("failed to save memo: %w", err)
	}
	return memo, nil
}

// UpdateMemo 修改备注内容，仅限创建者。
func (s *MemoCommandService) UpdateMemo(ctx context.Context, memoID uint, author, content string) (*domain.Memo, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errs.New(errs.CodeInvalidArgument, "memo content cannot be empty")
	}
	memo, err := s.memoRepo.Get(ctx, memoID)
	if err != nil {
		return nil, err
	}
	if memo == nil {
		return nil, errs.New(errs.CodeNotFound, "memo %d not found", memoID)
	}
	if memo.Author != author {
		return nil, errs.New(errs.CodeInvalidArgument, "only the author can edit a memo")
	}
	memo.Content = content
	if err := s.memoRepo.Update(ctx, memo); err != nil {
		return nil, fmt.Errorf("failed to update memo: %w", err)
	}
	return memo, nil
}

// DeleteMemo 删除备注，仅限创建者。
func (s *MemoCommandService) DeleteMemo(ctx context.Context, memoID uint, author string) error {
	memo, err := s.memoRepo.Get(ctx, memoID)
	if err != nil {
		return err
	}
	if memo == nil {
		return errs.New(errs.CodeNotFound, "memo %d not found", memoID)
	}
	if memo.Author != author {
		return errs.New(errs.CodeInvalidArgument, "only the author can delete a memo")
	}
	if err := s.memoRepo.Delete(ctx, memoID); err != nil {
		return fmt.Errorf("failed to delete memo: %w", err)
	}
	s.logger.Info("memo deleted", "memo_id", memoID, "author", author)
	return nil
}
