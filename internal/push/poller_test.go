package push

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
)

type fakeRepo struct {
	unpushed []notification.Notification
	tokens   map[string][]string

	pushed    []string
	tokensErr error
}

func (f *fakeRepo) Create(_ context.Context, _ *notification.Notification) error { return nil }

func (f *fakeRepo) ListByReceiver(_ context.Context, _ string) ([]notification.Notification, error) {
	return nil, nil
}

func (f *fakeRepo) MarkRead(_ context.Context, _, _ string) error { return nil }

func (f *fakeRepo) UnreadCount(_ context.Context, _ string) (int, error) { return 0, nil }

func (f *fakeRepo) ListUnpushed(_ context.Context, limit int) ([]notification.Notification, error) {
	if len(f.unpushed) > limit {
		return f.unpushed[:limit], nil
	}
	return f.unpushed, nil
}

func (f *fakeRepo) MarkPushed(_ context.Context, id string, _ time.Time) error {
	f.pushed = append(f.pushed, id)
	return nil
}

func (f *fakeRepo) TokensByUser(_ context.Context, userID string) ([]string, error) {
	if f.tokensErr != nil {
		return nil, f.tokensErr
	}
	return f.tokens[userID], nil
}

func (f *fakeRepo) RegisterToken(_ context.Context, _, _ string) error { return nil }

type fakePusher struct {
	sent []string // tokens pushed to
	err  error
}

func (f *fakePusher) Push(_ context.Context, token, _, _ string, _ map[string]string) error {
	f.sent = append(f.sent, token)
	return f.err
}

func orderID(s string) *string { return &s }

func TestDrain_PushesAndMarks(t *testing.T) {
	repo := &fakeRepo{
		unpushed: []notification.Notification{
			{ID: "n1", ReceiverID: "u1", Title: "Order confirmed", OrderID: orderID("o1")},
			{ID: "n2", ReceiverID: "u2", Title: "Order update"},
		},
		tokens: map[string][]string{
			"u1": {"tok-a", "tok-b"},
			"u2": {"tok-c"},
		},
	}
	pusher := &fakePusher{}
	p := NewPoller(repo, pusher, zap.NewNop(), time.Second, 100)

	p.drain(context.Background())

	assert.ElementsMatch(t, []string{"tok-a", "tok-b", "tok-c"}, pusher.sent)
	assert.Equal(t, []string{"n1", "n2"}, repo.pushed)
}

func TestDrain_NoTokensStillMarks(t *testing.T) {
	repo := &fakeRepo{
		unpushed: []notification.Notification{{ID: "n1", ReceiverID: "u1"}},
	}
	pusher := &fakePusher{}
	p := NewPoller(repo, pusher, zap.NewNop(), time.Second, 100)

	p.drain(context.Background())

	assert.Empty(t, pusher.sent)
	assert.Equal(t, []string{"n1"}, repo.pushed)
}

// A single attempt per row: delivery failures are logged, and the row is
// still marked so it is never retried.
func TestDrain_DeliveryFailureStillMarks(t *testing.T) {
	repo := &fakeRepo{
		unpushed: []notification.Notification{{ID: "n1", ReceiverID: "u1"}},
		tokens:   map[string][]string{"u1": {"tok-a"}},
	}
	pusher := &fakePusher{err: errors.New("provider down")}
	p := NewPoller(repo, pusher, zap.NewNop(), time.Second, 100)

	p.drain(context.Background())

	assert.Equal(t, []string{"n1"}, repo.pushed)
}

func TestDrain_TokenLookupFailureStillMarks(t *testing.T) {
	repo := &fakeRepo{
		unpushed:  []notification.Notification{{ID: "n1", ReceiverID: "u1"}},
		tokensErr: errors.New("db down"),
	}
	pusher := &fakePusher{}
	p := NewPoller(repo, pusher, zap.NewNop(), time.Second, 100)

	p.drain(context.Background())

	assert.Empty(t, pusher.sent)
	assert.Equal(t, []string{"n1"}, repo.pushed)
}

func TestDrain_RespectsBatchSize(t *testing.T) {
	repo := &fakeRepo{
		unpushed: []notification.Notification{
			{ID: "n1", ReceiverID: "u1"},
			{ID: "n2", ReceiverID: "u1"},
			{ID: "n3", ReceiverID: "u1"},
		},
	}
	p := NewPoller(repo, &fakePusher{}, zap.NewNop(), time.Second, 2)

	p.drain(context.Background())

	assert.Equal(t, []string{"n1", "n2"}, repo.pushed)
}

func TestRun_StopsOnCancel(t *testing.T) {
	p := NewPoller(&fakeRepo{}, &fakePusher{}, zap.NewNop(), time.Millisecond, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
}
