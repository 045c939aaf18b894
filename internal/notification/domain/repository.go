package domain

import "context"

// BulkAction 批量通知操作
type BulkAction string

const (
	BulkMarkAllRead BulkAction = "MARK_ALL_READ"
	BulkDeleteAll   BulkAction = "DELETE_ALL"
)

// Page 键集分页结果
type Page struct {
	Notifications []*Notification `json:"notifications"`
	TotalCount    int64           `json:"total_count"`
	HasNextPage   bool            `json:"has_next_page"`
	NextCursor    string          `json:"next_cursor,omitempty"`
}

// NotificationRepository 通知仓储接口
type NotificationRepository interface {
	Save(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id uint) (*Notification, error)
	// GetMany 按 id 升序加行锁读取，供批量操作在事务内调用。
	GetMany(ctx context.Context, ids []uint) ([]*Notification, error)
	Update(ctx context.Context, n *Notification) error
	// ListAfter 键集查询：返回游标之后（更旧）的最多 limit 条，按 (created_at, id) 降序。
	ListAfter(ctx context.Context, recipient string, status Status, after *Cursor, limit int) ([]*Notification, error)
	Count(ctx context.Context, recipient string, status Status) (int64, error)
	CountUnread(ctx context.Context, recipient string) (int64, error)
	MarkManyRead(ctx context.Context, ids []uint) error
	MarkAllRead(ctx context.Context, recipient string) error
	DeleteMany(ctx context.Context, ids []uint) error
	DeleteAll(ctx context.Context, recipient string) error
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// UnreadCounter 未读数热路径缓存
type UnreadCounter interface {
	Get(ctx context.Context, recipient string) (int64, bool, error)
	Set(ctx context.Context, recipient string, count int64) error
	Invalidate(ctx context.Context, recipient string) error
}
