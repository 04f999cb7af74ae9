package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coffee-analysis/domain/models"
)

// fakeMsg records acknowledgment outcomes for one delivered message.
type fakeMsg struct {
	data  []byte
	acks  int
	terms int
}

func (m *fakeMsg) Metadata() (*jetstream.MsgMetadata, error) { return &jetstream.MsgMetadata{}, nil }
func (m *fakeMsg) Data() []byte                              { return m.data }
func (m *fakeMsg) Headers() nats.Header                      { return nil }
func (m *fakeMsg) Subject() string                           { return SubjectJobs }
func (m *fakeMsg) Reply() string                             { return "" }
func (m *fakeMsg) Ack() error                                { m.acks++; return nil }
func (m *fakeMsg) DoubleAck(context.Context) error           { m.acks++; return nil }
func (m *fakeMsg) Nak() error                                { return nil }
func (m *fakeMsg) NakWithDelay(time.Duration) error          { return nil }
func (m *fakeMsg) InProgress() error                         { return nil }
func (m *fakeMsg) Term() error                               { m.terms++; return nil }
func (m *fakeMsg) TermWithReason(string) error               { m.terms++; return nil }

var _ jetstream.Msg = (*fakeMsg)(nil)

func jobMsg(t *testing.T, requestID string) *fakeMsg {
	t.Helper()
	raw, err := json.Marshal(models.NewPredictionJob(requestID, "leaves/1", nil))
	require.NoError(t, err)
	return &fakeMsg{data: raw}
}

func TestProcessMessage_FinishesJobAfterShutdownSignal(t *testing.T) {
	c := NewConsumer(nil, ConsumerConfig{})

	var handlerCtxErr error
	c.SetHandler(func(ctx context.Context, job *models.PredictionJob) error {
		handlerCtxErr = ctx.Err()
		return nil
	})

	// The consume context is already cancelled, as during shutdown. The job
	// in flight must still complete and be acknowledged.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	msg := jobMsg(t, "req-1")
	c.processMessage(ctx, msg)

	assert.NoError(t, handlerCtxErr, "handler must run under a live context")
	assert.Equal(t, 1, msg.acks)
	assert.Zero(t, msg.terms)
}

func TestProcessMessage_TerminatesFailedJob(t *testing.T) {
	c := NewConsumer(nil, ConsumerConfig{})
	c.SetHandler(func(ctx context.Context, job *models.PredictionJob) error {
		return errors.New("boom")
	})

	msg := jobMsg(t, "req-2")
	c.processMessage(context.Background(), msg)

	assert.Zero(t, msg.acks)
	assert.Equal(t, 1, msg.terms)
}

func TestProcessMessage_TerminatesMalformedPayload(t *testing.T) {
	c := NewConsumer(nil, ConsumerConfig{})
	handled := false
	c.SetHandler(func(ctx context.Context, job *models.PredictionJob) error {
		handled = true
		return nil
	})

	msg := &fakeMsg{data: []byte("not json")}
	c.processMessage(context.Background(), msg)

	assert.False(t, handled)
	assert.Zero(t, msg.acks)
	assert.Equal(t, 1, msg.terms)
}
