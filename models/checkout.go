package models

import (
	"encoding/json"
	"time"
)

// CreateOrderRequest is the storefront's create-order body. Cart is kept
// raw; only the configured pricer interprets it.
type CreateOrderRequest struct {
	Cart json.RawMessage `json:"cart"`
	Pref string          `json:"pref"`
}

// CheckoutEvent is published after each processor call.
type CheckoutEvent struct {
	EventType         string            `json:"event_type"` // order_created, order_captured, order_failed
	Operation         string            `json:"operation"`
	OrderID           string            `json:"order_id,omitempty"`
	StatusCode        int               `json:"status_code"`
	ContactPreference ContactPreference `json:"contact_preference,omitempty"`
	ErrorName         string            `json:"error_name,omitempty"`
	Timestamp         time.Time         `json:"timestamp"`
}
