package domain

import "fmt"

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusReady      OrderStatus = "ready"
	StatusDelivering OrderStatus = "delivering"
	StatusCompleted  OrderStatus = "completed"
	StatusCancelled  OrderStatus = "cancelled"
)

// Statuses lists every state in nominal forward order, cancelled last.
var Statuses = []OrderStatus{
	StatusPending,
	StatusProcessing,
	StatusReady,
	StatusDelivering,
	StatusCompleted,
	StatusCancelled,
}

var statusLabels = map[OrderStatus]string{
	StatusPending:    "Pesanan Diterima",
	StatusProcessing: "Sedang Diproses",
	StatusReady:      "Siap Diambil",
	StatusDelivering: "Sedang Diantar",
	StatusCompleted:  "Selesai",
	StatusCancelled:  "Dibatalkan",
}

// ParseOrderStatus validates a stored or submitted status value.
func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(v)
	if _, ok := statusLabels[s]; !ok {
		return "", fmt.Errorf("unknown order status %q", v)
	}
	return s, nil
}

// Label is the display text for the status.
func (s OrderStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// IsTerminal reports whether no further transitions are expected.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// TransitionPolicy decides whether an admin may move an order between states.
// method is the order's delivery method.
type TransitionPolicy interface {
	Allow(from, to OrderStatus, method DeliveryMethod) error
	// Guarded reports whether the update must be conditioned on the current state.
	Guarded() bool
}

// FreeFormPolicy lets an admin set any status from any status, so operators
// can correct mistakes.
type FreeFormPolicy struct{}

func (FreeFormPolicy) Allow(_, _ OrderStatus, _ DeliveryMethod) error { return nil }

func (FreeFormPolicy) Guarded() bool { return false }

// StrictPolicy only allows the forward chain plus cancellation from any
// non-terminal state. Pickup orders may go from ready straight to completed.
type StrictPolicy struct{}

var forward = map[OrderStatus]OrderStatus{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusReady,
	StatusReady:      StatusDelivering,
	StatusDelivering: StatusCompleted,
}

func (StrictPolicy) Allow(from, to OrderStatus, method DeliveryMethod) error {
	if from.IsTerminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, from)
	}
	if to == StatusCancelled {
		return nil
	}
	if next, ok := forward[from]; ok && next == to {
		return nil
	}
	if method == DeliveryPickup && from == StatusReady && to == StatusCompleted {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

func (StrictPolicy) Guarded() bool { return true }

// PolicyByName maps the ORDER_TRANSITIONS setting to a policy.
func PolicyByName(name string) (TransitionPolicy, error) {
	switch name {
	case "", "freeform":
		return FreeFormPolicy{}, nil
	case "strict":
		return StrictPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown transition policy %q", name)
}
