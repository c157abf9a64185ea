package pricing

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// LineItem is one priced product in a quote.
type LineItem struct {
	Name        string
	Description string
	SKU         string
	UnitPrice   decimal.Decimal
	Quantity    int64
}

// Subtotal is UnitPrice * Quantity.
func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(li.Quantity))
}

// Quote is the priced form of a cart in a single currency.
type Quote struct {
	Currency string
	Items    []LineItem
}

// Total sums every line subtotal.
func (q *Quote) Total() decimal.Decimal {
	total := decimal.Zero
	for _, li := range q.Items {
		total = total.Add(li.Subtotal())
	}
	return total
}

// Pricer turns an opaque storefront cart into line items and totals.
type Pricer interface {
	Quote(ctx context.Context, cart json.RawMessage) (*Quote, error)
}
