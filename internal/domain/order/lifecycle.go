package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// LifecycleService owns status and payment mutations on existing orders.
// Every change is validated against the persisted state under a row lock,
// so concurrent admin actions cannot cross an illegal edge.
type LifecycleService struct {
	orders   Repository
	notifier Notifier
	now      func() time.Time
}

// NewLifecycleService creates a LifecycleService with the required dependencies.
func NewLifecycleService(orders Repository, notifier Notifier) *LifecycleService {
	return &LifecycleService{
		orders:   orders,
		notifier: notifier,
		now:      time.Now,
	}
}

// Transition advances the order to next. Re-applying the current status is a
// no-op success to tolerate retried calls; an unreachable status fails with
// ErrInvalidTransition. Successful changes update the order's timestamp and
// notify the owning user (and operators, on cancellation).
func (s *LifecycleService) Transition(ctx context.Context, orderID string, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown status %q", next)
	}

	o, prev, err := s.orders.Transition(ctx, orderID, next, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "transition order %s", orderID)
	}
	if prev != o.Status {
		s.notifier.OrderStatusChanged(ctx, o, prev)
	}
	return o, nil
}

// SetPaymentStatus toggles the independent payment flag. The flag is frozen
// once the order is cancelled or returned.
func (s *LifecycleService) SetPaymentStatus(ctx context.Context, orderID string, paid bool) (*Order, error) {
	o, err := s.orders.SetPaymentStatus(ctx, orderID, paid, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "set payment status on order %s", orderID)
	}
	return o, nil
}
