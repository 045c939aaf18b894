package domain

import "context"

// EventPublisher 定义了领域事件发布器的接口。
// 事件随业务事务一同写入发件箱，由后台进程可靠投递。
type EventPublisher interface {
	// PublishInTx 在数据库事务内发布事件。
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}
