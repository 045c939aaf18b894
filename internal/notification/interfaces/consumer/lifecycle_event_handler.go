package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	"github.com/segmentio/kafka-go"
	notificationdomain "github.com/wyfcoding/visabackoffice/internal/notification/domain"
	paymentdomain "github.com/wyfcoding/visabackoffice/internal/payment/domain"
	visadomain "github.com/wyfcoding/visabackoffice/internal/visa/domain"
	workflowdomain "github.com/wyfcoding/visabackoffice/internal/workflow/domain"
)

// LifecycleEventHandler 消费发件箱转发的生命周期事件，保持未读数缓存新鲜。
// 进程内派发器已在事务提交后创建了通知记录，这里只做缓存失效，
// 使多实例部署下其他实例的缓存也能收敛。
type LifecycleEventHandler struct {
	counter notificationdomain.UnreadCounter
	logger  *slog.Logger
}

// NewLifecycleEventHandler 创建生命周期事件消费处理器。
func NewLifecycleEventHandler(counter notificationdomain.UnreadCounter, logger *slog.Logger) *LifecycleEventHandler {
	return &LifecycleEventHandler{counter: counter, logger: logger}
}

func (h *LifecycleEventHandler) Handle(ctx context.Context, msg kafka.Message) error {
	switch msg.Topic {
	case visadomain.TopicApplicationStatusChanged:
		var payload struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal status changed event", "error", err)
			return err
		}
		if payload.UserID == "" {
			return nil
		}
		return h.counter.Invalidate(ctx, payload.UserID)
	case workflowdomain.TopicWorkflowCompleted,
		paymentdomain.TopicInvoiceCreated,
		paymentdomain.TopicPaymentCompleted:
		var payload struct {
			ApplicationID uint `json:"application_id"`
		}
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			h.logger.ErrorContext(ctx, "failed to unmarshal lifecycle event", "error", err)
			return err
		}
		if payload.ApplicationID == 0 {
			return nil
		}
		return h.counter.Invalidate(ctx, recipientForApplication(payload.ApplicationID))
	default:
		h.logger.WarnContext(ctx, "unknown lifecycle event topic", "topic", msg.Topic)
		return nil
	}
}

func recipientForApplication(applicationID uint) string {
	return "application:" + strconv.FormatUint(uint64(applicationID), 10)
}
