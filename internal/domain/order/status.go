package order

import "github.com/go-faster/errors"

// Status is the order's position in its delivery lifecycle. The payment
// flag is a separate axis and is not part of this machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// transitions is the closed set of legal status edges. The happy path is
// forward-only; cancellation is possible only before shipment and a return
// only after delivery.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {StatusReturned},
	StatusCancelled:  {},
	StatusReturned:   {},
}

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether the status admits no further transitions and
// freezes the payment flag.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusReturned
}

// CanTransition reports whether next is directly reachable from s.
func (s Status) CanTransition(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw string into a Status, rejecting unknown values.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", errors.Wrapf(ErrInvalidTransition, "unknown status %q", raw)
	}
	return s, nil
}
