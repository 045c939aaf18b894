package consumer

import (
	"context"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	paymentdomain "github.com/wyfcoding/visabackoffice/internal/payment/domain"
	visadomain "github.com/wyfcoding/visabackoffice/internal/visa/domain"
	workflowdomain "github.com/wyfcoding/visabackoffice/internal/workflow/domain"
)

type recordingCounter struct {
	invalidated []string
}

func (c *recordingCounter) Get(context.Context, string) (int64, bool, error) { return 0, false, nil }
func (c *recordingCounter) Set(context.Context, string, int64) error         { return nil }
func (c *recordingCounter) Invalidate(_ context.Context, recipient string) error {
	c.invalidated = append(c.invalidated, recipient)
	return nil
}

func TestHandleStatusChangedInvalidatesUser(t *testing.T) {
	counter := &recordingCounter{}
	h := NewLifecycleEventHandler(counter, slog.New(slog.DiscardHandler))

	err := h.Handle(context.Background(), kafka.Message{
		Topic: visadomain.TopicApplicationStatusChanged,
		Value: []byte(`{"user_id":"u-1","from_status":"pending","to_status":"processing"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, counter.invalidated)
}

func TestHandleApplicationScopedTopics(t *testing.T) {
	counter := &recordingCounter{}
	h := NewLifecycleEventHandler(counter, slog.New(slog.DiscardHandler))

	for _, topic := range []string{
		workflowdomain.TopicWorkflowCompleted,
		paymentdomain.TopicInvoiceCreated,
		paymentdomain.TopicPaymentCompleted,
	} {
		err := h.Handle(context.Background(), kafka.Message{
			Topic: topic,
			Value: []byte(`{"application_id":7}`),
		})
		require.NoError(t, err, topic)
	}
	assert.Equal(t, []string{"application:7", "application:7", "application:7"}, counter.invalidated)
}

func TestHandleMalformedPayload(t *testing.T) {
	counter := &recordingCounter{}
	h := NewLifecycleEventHandler(counter, slog.New(slog.DiscardHandler))

	err := h.Handle(context.Background(), kafka.Message{
		Topic: visadomain.TopicApplicationStatusChanged,
		Value: []byte(`{bad json`),
	})
	require.Error(t, err)
	assert.Empty(t, counter.invalidated)
}

func TestHandleUnknownTopicIgnored(t *testing.T) {
	counter := &recordingCounter{}
	h := NewLifecycleEventHandler(counter, slog.New(slog.DiscardHandler))

	err := h.Handle(context.Background(), kafka.Message{Topic: "visa.unrelated", Value: []byte(`{}`)})
	require.NoError(t, err)
	assert.Empty(t, counter.invalidated)
}

func TestHandleEmptyIdentifiersIgnored(t *testing.T) {
	counter := &recordingCounter{}
	h := NewLifecycleEventHandler(counter, slog.New(slog.DiscardHandler))

	require.NoError(t, h.Handle(context.Background(), kafka.Message{
		Topic: visadomain.TopicApplicationStatusChanged,
		Value: []byte(`{}`),
	}))
	require.NoError(t, h.Handle(context.Background(), kafka.Message{
		Topic: paymentdomain.TopicPaymentCompleted,
		Value: []byte(`{}`),
	}))
	assert.Empty(t, counter.invalidated)
}
