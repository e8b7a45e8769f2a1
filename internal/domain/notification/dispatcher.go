package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Mariet12/Electro-sub001/internal/domain/order"
)

// Status tags attached to persisted notifications.
const (
	StatusOrderPlaced   = "order_placed"
	StatusOrderUpdated  = "order_updated"
	StatusOrderCancel   = "order_cancelled"
	StatusOperatorAlert = "operator_alert"
)

var _ order.Notifier = (*Dispatcher)(nil)

// Dispatcher persists notifications for order lifecycle events and fans them
// out to store operators where required. It only writes rows; the push
// poller forwards them to the provider asynchronously, so dispatching never
// blocks or fails the triggering operation beyond the row insert itself.
type Dispatcher struct {
	repo      Repository
	operators []string
	lg        *zap.Logger
	now       func() time.Time
}

// NewDispatcher creates a Dispatcher. operators lists the user ids that
// receive store-facing alerts (new orders, cancellations).
func NewDispatcher(repo Repository, operators []string, lg *zap.Logger) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		operators: operators,
		lg:        lg,
		now:       time.Now,
	}
}

// Dispatch persists a notification row with read=false. The sender is nil
// for system-generated messages.
func (d *Dispatcher) Dispatch(ctx context.Context, receiverID, title, message, status string, senderID, orderID *string) error {
	n := &Notification{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Title:      title,
		Message:    message,
		Status:     status,
		OrderID:    orderID,
		CreatedAt:  d.now(),
	}
	if err := d.repo.Create(ctx, n); err != nil {
		return errors.Wrap(err, "create notification")
	}
	return nil
}

// OrderPlaced notifies the buyer with an order confirmation and alerts every
// operator about the new order. Persistence failures are logged and do not
// fail the checkout that emitted the event.
func (d *Dispatcher) OrderPlaced(ctx context.Context, o *order.Order) {
	msg := fmt.Sprintf("Your order %s has been placed. Total: %s.", o.Number, o.Total.StringFixed(2))
	if err := d.Dispatch(ctx, o.UserID, "Order confirmed", msg, StatusOrderPlaced, nil, &o.ID); err != nil {
		d.lg.Error("dispatch order confirmation",
			zap.String("order_id", o.ID), zap.Error(err))
	}

	opMsg := fmt.Sprintf("New order %s from user %s. Total: %s.", o.Number, o.UserID, o.Total.StringFixed(2))
	d.notifyOperators(ctx, "New order", opMsg, StatusOperatorAlert, &o.ID)
}

// OrderStatusChanged notifies the buyer about the new status. Transitions
// into cancelled additionally alert operators.
func (d *Dispatcher) OrderStatusChanged(ctx context.Context, o *order.Order, prev order.Status) {
	status := StatusOrderUpdated
	if o.Status == order.StatusCancelled {
		status = StatusOrderCancel
	}

	msg := fmt.Sprintf("Order %s is now %s.", o.Number, o.Status)
	if err := d.Dispatch(ctx, o.UserID, "Order update", msg, status, nil, &o.ID); err != nil {
		d.lg.Error("dispatch status notification",
			zap.String("order_id", o.ID),
			zap.String("status", string(o.Status)),
			zap.Error(err))
	}

	if o.Status == order.StatusCancelled {
		opMsg := fmt.Sprintf("Order %s was cancelled (previously %s).", o.Number, prev)
		d.notifyOperators(ctx, "Order cancelled", opMsg, StatusOperatorAlert, &o.ID)
	}
}

func (d *Dispatcher) notifyOperators(ctx context.Context, title, message, status string, orderID *string) {
	for _, op := range d.operators {
		if err := d.Dispatch(ctx, op, title, message, status, nil, orderID); err != nil {
			d.lg.Error("dispatch operator notification",
				zap.String("operator", op), zap.Error(err))
		}
	}
}
