package push

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Mariet12/Electro-sub001/internal/domain/notification"
)

// Poller drains un-pushed notification rows and forwards them to the push
// provider. The notification row is the source of truth: rows are marked
// pushed after a single delivery attempt regardless of outcome, and delivery
// errors are only logged.
type Poller struct {
	repo   notification.Repository
	pusher notification.Pusher
	lg     *zap.Logger

	interval  time.Duration
	batchSize int
	now       func() time.Time
}

// NewPoller creates a Poller that drains up to batchSize rows every interval.
func NewPoller(repo notification.Repository, pusher notification.Pusher, lg *zap.Logger, interval time.Duration, batchSize int) *Poller {
	return &Poller{
		repo:      repo,
		pusher:    pusher,
		lg:        lg,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Run polls until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.drain(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// drain forwards one batch of pending notifications.
func (p *Poller) drain(ctx context.Context) {
	pending, err := p.repo.ListUnpushed(ctx, p.batchSize)
	if err != nil {
		p.lg.Error("list unpushed notifications", zap.Error(err))
		return
	}

	for _, n := range pending {
		p.deliver(ctx, n)
		if err := p.repo.MarkPushed(ctx, n.ID, p.now()); err != nil {
			p.lg.Error("mark notification pushed",
				zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
}

// deliver pushes one notification to every device registered for the
// receiver. A user without tokens simply gets no push.
func (p *Poller) deliver(ctx context.Context, n notification.Notification) {
	tokens, err := p.repo.TokensByUser(ctx, n.ReceiverID)
	if err != nil {
		p.lg.Error("load device tokens",
			zap.String("receiver_id", n.ReceiverID), zap.Error(err))
		return
	}

	var data map[string]string
	if n.OrderID != nil {
		data = map[string]string{"order_id": *n.OrderID}
	}

	for _, token := range tokens {
		if err := p.pusher.Push(ctx, token, n.Title, n.Message, data); err != nil {
			p.lg.Warn("push delivery failed",
				zap.String("notification_id", n.ID),
				zap.String("receiver_id", n.ReceiverID),
				zap.Error(err))
		}
	}
}
