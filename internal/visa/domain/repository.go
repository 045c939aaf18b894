package domain

import "context"

// ApplicationRepository 签证申请仓储接口
type ApplicationRepository interface {
	Save(ctx context.Context, app *VisaApplication) error
	Get(ctx context.Context, id uint) (*VisaApplication, error)
	// GetForUpdate 加行锁读取，必须在事务内调用。
	GetForUpdate(ctx context.Context, id uint) (*VisaApplication, error)
	Update(ctx context.Context, app *VisaApplication) error
	List(ctx context.Context, status Status, offset, limit int) ([]*VisaApplication, int64, error)
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// StatusHistoryRepository 状态历史仓储接口，只追加。
type StatusHistoryRepository interface {
	Append(ctx context.Context, entry *StatusHistory) error
	ListByApplication(ctx context.Context, applicationID uint) ([]*StatusHistory, error)
}

// MemoRepository 申请备注仓储接口
type MemoRepository interface {
	Save(ctx context.Context, memo *Memo) error
	Get(ctx context.Context, id uint) (*Memo, error)
	Update(ctx context.Context, memo *Memo) error
	Delete(ctx context.Context, id uint) error
	ListByApplication(ctx context.Context, applicationID uint) ([]*Memo, error)
}
