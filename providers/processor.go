package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"checkout-service/models"
)

// PreferMinimal is the Prefer header sent on every processor call.
const PreferMinimal = "return=minimal"

// RequestOptions are per-call hints passed to the processor.
type RequestOptions struct {
	Prefer    string
	RequestID string // forwarded as the processor's idempotency header
}

// Response is a successful processor reply. Body is raw JSON and may be
// empty.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// APIErrorDetail is one entry of the processor's error details list.
type APIErrorDetail struct {
	Field       string `json:"field,omitempty"`
	Issue       string `json:"issue"`
	Description string `json:"description,omitempty"`
}

// APIError is a non-2xx answer from the processor. Transport and auth
// failures are returned as plain wrapped errors instead.
type APIError struct {
	StatusCode int              `json:"-"`
	Name       string           `json:"name"`
	Message    string           `json:"message"`
	DebugID    string           `json:"debug_id"`
	Details    []APIErrorDetail `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("processor error %d %s: %s", e.StatusCode, e.Name, e.Message)
	}
	return fmt.Sprintf("processor error %d: %s", e.StatusCode, e.Message)
}

// Issue returns the first detail issue code, if any.
func (e *APIError) Issue() string {
	if len(e.Details) == 0 {
		return ""
	}
	return e.Details[0].Issue
}

// PaymentProcessor is the remote service that owns money movement. It must
// be safe for concurrent use.
type PaymentProcessor interface {
	// CreateOrder submits a new pending transaction.
	CreateOrder(ctx context.Context, req *models.OrderRequest, opts RequestOptions) (*Response, error)

	// CaptureOrder finalizes a buyer-approved transaction.
	CaptureOrder(ctx context.Context, orderID string, opts RequestOptions) (*Response, error)
}
