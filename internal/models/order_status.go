package models

import "errors"

// OrderStatus is the closed set of states an order can be in. Transitions are
// server-authoritative; the client only requests one and reloads afterwards.
type OrderStatus string

// remember to add new statuses to the validOrderStatuses map
const (
	OrderStatusWaiting   OrderStatus = "waiting"
	OrderStatusShipping  OrderStatus = "shipping"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusReceived  OrderStatus = "received"
)

var validOrderStatuses = map[OrderStatus]struct{}{
	OrderStatusWaiting:   {},
	OrderStatusShipping:  {},
	OrderStatusCancelled: {},
	OrderStatusReceived:  {},
}

// ToOrderStatus parses s against the closed status set.
func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := validOrderStatuses[status]; ok {
		return status, nil
	}
	return "", errors.New("invalid order status")
}

// Action is a mutating command a customer may trigger on an order.
type Action string

const (
	ActionCancel        Action = "cancel"
	ActionReorder       Action = "reorder"
	ActionChangeAddress Action = "change_address"
)

// MutatingActions returns the commands valid for an order in the given status.
// Total over the status set: at most one mutating action per status, and an
// unrecognized status yields none. The notes toggle is always available and is
// not a mutating action, so it is not listed here.
func MutatingActions(status OrderStatus) []Action {
	switch status {
	case OrderStatusWaiting:
		return []Action{ActionCancel}
	case OrderStatusShipping:
		return []Action{ActionChangeAddress}
	case OrderStatusCancelled:
		return []Action{ActionReorder}
	case OrderStatusReceived:
		return nil
	default:
		return nil
	}
}

// Allows reports whether the given action is valid for an order in this status.
func (s OrderStatus) Allows(action Action) bool {
	for _, a := range MutatingActions(s) {
		if a == action {
			return true
		}
	}
	return false
}
