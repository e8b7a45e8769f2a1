package notification

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Mariet12/Electro-sub001/internal/domain/order"
)

type mockRepo struct {
	created   []*Notification
	createErr error
}

func (m *mockRepo) Create(_ context.Context, n *Notification) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, n)
	return nil
}

func (m *mockRepo) ListByReceiver(_ context.Context, _ string) ([]Notification, error) {
	return nil, nil
}

func (m *mockRepo) MarkRead(_ context.Context, _, _ string) error { return nil }

func (m *mockRepo) UnreadCount(_ context.Context, _ string) (int, error) { return 0, nil }

func (m *mockRepo) ListUnpushed(_ context.Context, _ int) ([]Notification, error) {
	return nil, nil
}

func (m *mockRepo) MarkPushed(_ context.Context, _ string, _ time.Time) error { return nil }

func (m *mockRepo) TokensByUser(_ context.Context, _ string) ([]string, error) { return nil, nil }

func (m *mockRepo) RegisterToken(_ context.Context, _, _ string) error { return nil }

func (m *mockRepo) byReceiver(id string) []*Notification {
	var out []*Notification
	for _, n := range m.created {
		if n.ReceiverID == id {
			out = append(out, n)
		}
	}
	return out
}

func testOrder(status order.Status) *order.Order {
	return &order.Order{
		ID:     "o1",
		Number: "EL-TEST000001",
		UserID: "buyer",
		Status: status,
		Total:  decimal.RequireFromString("210.00"),
	}
}

func TestOrderPlaced_NotifiesBuyerAndOperators(t *testing.T) {
	repo := &mockRepo{}
	d := NewDispatcher(repo, []string{"op1", "op2"}, zap.NewNop())

	d.OrderPlaced(context.Background(), testOrder(order.StatusPending))

	require.Len(t, repo.created, 3)

	buyer := repo.byReceiver("buyer")
	require.Len(t, buyer, 1)
	assert.Equal(t, StatusOrderPlaced, buyer[0].Status)
	assert.Nil(t, buyer[0].SenderID)
	require.NotNil(t, buyer[0].OrderID)
	assert.Equal(t, "o1", *buyer[0].OrderID)
	assert.False(t, buyer[0].Read)
	assert.Contains(t, buyer[0].Message, "EL-TEST000001")
	assert.Contains(t, buyer[0].Message, "210.00")

	for _, op := range []string{"op1", "op2"} {
		alerts := repo.byReceiver(op)
		require.Len(t, alerts, 1)
		assert.Equal(t, StatusOperatorAlert, alerts[0].Status)
	}
}

func TestOrderStatusChanged_NotifiesBuyerOnly(t *testing.T) {
	repo := &mockRepo{}
	d := NewDispatcher(repo, []string{"op1"}, zap.NewNop())

	d.OrderStatusChanged(context.Background(), testOrder(order.StatusShipped), order.StatusProcessing)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "buyer", repo.created[0].ReceiverID)
	assert.Equal(t, StatusOrderUpdated, repo.created[0].Status)
	assert.Contains(t, repo.created[0].Message, "shipped")
}

func TestOrderStatusChanged_CancellationAlertsOperators(t *testing.T) {
	repo := &mockRepo{}
	d := NewDispatcher(repo, []string{"op1"}, zap.NewNop())

	d.OrderStatusChanged(context.Background(), testOrder(order.StatusCancelled), order.StatusPending)

	require.Len(t, repo.created, 2)

	buyer := repo.byReceiver("buyer")
	require.Len(t, buyer, 1)
	assert.Equal(t, StatusOrderCancel, buyer[0].Status)

	ops := repo.byReceiver("op1")
	require.Len(t, ops, 1)
	assert.Equal(t, StatusOperatorAlert, ops[0].Status)
	assert.Contains(t, ops[0].Message, "pending")
}

// Persistence failures must never propagate to the operation that emitted
// the event.
func TestDispatch_PersistenceFailureIsSwallowed(t *testing.T) {
	repo := &mockRepo{createErr: errors.New("db down")}
	d := NewDispatcher(repo, []string{"op1"}, zap.NewNop())

	assert.NotPanics(t, func() {
		d.OrderPlaced(context.Background(), testOrder(order.StatusPending))
		d.OrderStatusChanged(context.Background(), testOrder(order.StatusCancelled), order.StatusPending)
	})
	assert.Empty(t, repo.created)
}
