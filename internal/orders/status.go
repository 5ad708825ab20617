package orders

import "github.com/stylebazaar/stylebazaar-backend/pkg/enums"

// fulfilment is the forward path an order travels; each step may only move
// to the next one.
var fulfilment = []enums.OrderStatus{
	enums.OrderStatusPending,
	enums.OrderStatusConfirmed,
	enums.OrderStatusProcessing,
	enums.OrderStatusShipped,
	enums.OrderStatusDelivered,
}

// NextStatuses lists the statuses reachable from the given one.
func NextStatuses(from enums.OrderStatus) []enums.OrderStatus {
	if !from.IsValid() || from.IsTerminal() {
		return nil
	}
	next := make([]enums.OrderStatus, 0, 2)
	for i, status := range fulfilment {
		if status == from && i+1 < len(fulfilment) {
			next = append(next, fulfilment[i+1])
			break
		}
	}
	return append(next, enums.OrderStatusCancelled)
}

// CanTransition reports whether an order may move from one status to another.
// Payment is tracked separately and plays no part here.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range NextStatuses(from) {
		if candidate == to {
			return true
		}
	}
	return false
}
