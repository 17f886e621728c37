package domain

import "time"

// RefreshKind identifies a logical refresh scope. Concurrent refreshes
// of different kinds may interleave; two of the same kind may not.
type RefreshKind string

const (
	RefreshOrders    RefreshKind = "orders"
	RefreshFull      RefreshKind = "full"
	RefreshLatest    RefreshKind = "latest"
	RefreshProducts  RefreshKind = "products"
	RefreshInventory RefreshKind = "inventory"
)

// RefreshEvent is published on refresh lifecycle transitions.
type RefreshEvent struct {
	Kind       RefreshKind `json:"kind"`
	StartDate  string      `json:"startDate,omitempty"`
	EndDate    string      `json:"endDate,omitempty"`
	Error      string      `json:"error,omitempty"`
	FailedDays int         `json:"failedDays,omitempty"`
	At         time.Time   `json:"at"`
}
