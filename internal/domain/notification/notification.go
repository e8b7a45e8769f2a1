package notification

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Notification is a persisted message to a user. The row is the source of
// truth; push delivery is a best-effort enhancement tracked by PushedAt.
type Notification struct {
	ID         string
	SenderID   *string // nil for system-generated notifications
	ReceiverID string
	Title      string
	Message    string
	Status     string
	OrderID    *string
	Read       bool
	PushedAt   *time.Time
	CreatedAt  time.Time
}

// Repository defines persistence operations for notifications and the
// device-token registry consulted on push delivery.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListByReceiver(ctx context.Context, receiverID string) ([]Notification, error)
	// MarkRead flips the read flag; marking an already-read row is a no-op.
	MarkRead(ctx context.Context, id, receiverID string) error
	// UnreadCount counts unread rows for the receiver. It is always derived
	// by counting, never cached as a mutable counter.
	UnreadCount(ctx context.Context, receiverID string) (int, error)

	// ListUnpushed returns the oldest notifications not yet forwarded to the
	// push provider, up to limit.
	ListUnpushed(ctx context.Context, limit int) ([]Notification, error)
	MarkPushed(ctx context.Context, id string, at time.Time) error

	TokensByUser(ctx context.Context, userID string) ([]string, error)
	RegisterToken(ctx context.Context, userID, token string) error
}

// Pusher forwards a notification payload to the external push provider for
// one device token. Failures are logged by callers and never propagated to
// the operation that produced the notification.
type Pusher interface {
	Push(ctx context.Context, token, title, body string, data map[string]string) error
}
