package domain

import "context"

// StatusCount 按状态统计条目
type StatusCount struct {
	Status Status `json:"status"`
	Count  int64  `json:"count"`
}

// DocumentRepository 申请材料仓储接口
type DocumentRepository interface {
	Save(ctx context.Context, doc *Document) error
	Get(ctx context.Context, id uint) (*Document, error)
	// GetForUpdate 加行锁读取，必须在事务内调用。
	GetForUpdate(ctx context.Context, id uint) (*Document, error)
	// GetManyForUpdate 按 id 升序加锁批量读取，保持全局锁序避免死锁。
	GetManyForUpdate(ctx context.Context, ids []uint) ([]*Document, error)
	Update(ctx context.Context, doc *Document) error
	List(ctx context.Context, offset, limit int) ([]*Document, int64, error)
	ListByApplication(ctx context.Context, applicationID uint) ([]*Document, error)
	// ListUnapprovedRequired 加行锁返回申请名下未通过审核的必需材料，
	// 供审批闸门在协调器事务内调用。
	ListUnapprovedRequired(ctx context.Context, applicationID uint) ([]*Document, error)
	// CountByStatus 按状态统计，applicationID 为 0 时统计全量。
	CountByStatus(ctx context.Context, applicationID uint) ([]StatusCount, error)
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}
