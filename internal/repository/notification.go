package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
)

const (
	insertNotificationSQL = `INSERT INTO notifications
		(id, sender_id, receiver_id, title, message, status, order_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)`

	listNotificationsSQL = `SELECT id, sender_id, receiver_id, title, message, status,
		order_id, read, pushed_at, created_at
		FROM notifications WHERE receiver_id = $1 ORDER BY created_at DESC`

	markNotificationReadSQL = `UPDATE notifications SET read = TRUE
		WHERE id = $1 AND receiver_id = $2`

	unreadCountSQL = `SELECT COUNT(*) FROM notifications
		WHERE receiver_id = $1 AND read = FALSE`

	listUnpushedSQL = `SELECT id, sender_id, receiver_id, title, message, status,
		order_id, read, pushed_at, created_at
		FROM notifications WHERE pushed_at IS NULL ORDER BY created_at LIMIT $1`

	markPushedSQL = `UPDATE notifications SET pushed_at = $2 WHERE id = $1`

	listTokensSQL = `SELECT token FROM device_tokens WHERE user_id = $1`

	insertTokenSQL = `INSERT INTO device_tokens (user_id, token) VALUES ($1, $2)
		ON CONFLICT (user_id, token) DO NOTHING`
)

var _ notification.Repository = (*NotificationRepository)(nil)

// NotificationRepository implements notification.Repository backed by PostgreSQL.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a NotificationRepository that uses the given pool.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

// Create persists a notification row with read=false.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.pool.Exec(ctx, insertNotificationSQL,
		n.ID, n.SenderID, n.ReceiverID, n.Title, n.Message, n.Status, n.OrderID, n.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "inserting notification %q", n.ID)
	}
	return nil
}

// ListByReceiver returns the receiver's notifications, newest first.
func (r *NotificationRepository) ListByReceiver(ctx context.Context, receiverID string) ([]notification.Notification, error) {
	rows, err := r.pool.Query(ctx, listNotificationsSQL, receiverID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing notifications for %q", receiverID)
	}
	return pgx.CollectRows(rows, scanNotification)
}

// MarkRead flips the read flag. Unknown ids report ErrNotFound; re-marking a
// read row succeeds.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, receiverID string) error {
	tag, err := r.pool.Exec(ctx, markNotificationReadSQL, id, receiverID)
	if err != nil {
		return errors.Wrapf(err, "marking notification %q read", id)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrNotFound
	}
	return nil
}

// UnreadCount counts unread rows for the receiver.
func (r *NotificationRepository) UnreadCount(ctx context.Context, receiverID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, unreadCountSQL, receiverID).Scan(&count); err != nil {
		return 0, errors.Wrapf(err, "counting unread for %q", receiverID)
	}
	return count, nil
}

// ListUnpushed returns the oldest rows not yet forwarded to the push provider.
func (r *NotificationRepository) ListUnpushed(ctx context.Context, limit int) ([]notification.Notification, error) {
	rows, err := r.pool.Query(ctx, listUnpushedSQL, limit)
	if err != nil {
		return nil, errors.Wrap(err, "listing unpushed notifications")
	}
	return pgx.CollectRows(rows, scanNotification)
}

// MarkPushed records the delivery attempt timestamp.
func (r *NotificationRepository) MarkPushed(ctx context.Context, id string, at time.Time) error {
	if _, err := r.pool.Exec(ctx, markPushedSQL, id, at); err != nil {
		return errors.Wrapf(err, "marking notification %q pushed", id)
	}
	return nil
}

// TokensByUser returns the device tokens registered for the user.
func (r *NotificationRepository) TokensByUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, listTokensSQL, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "listing tokens for %q", userID)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var t string
		err := row.Scan(&t)
		return t, err
	})
}

// RegisterToken stores a device token; duplicates are ignored.
func (r *NotificationRepository) RegisterToken(ctx context.Context, userID, token string) error {
	if _, err := r.pool.Exec(ctx, insertTokenSQL, userID, token); err != nil {
		return errors.Wrapf(err, "registering token for %q", userID)
	}
	return nil
}

func scanNotification(row pgx.CollectableRow) (notification.Notification, error) {
	var n notification.Notification
	err := row.Scan(
		&n.ID, &n.SenderID, &n.ReceiverID, &n.Title, &n.Message, &n.Status,
		&n.OrderID, &n.Read, &n.PushedAt, &n.CreatedAt,
	)
	return n, err
}
