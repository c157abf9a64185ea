package pricing

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// StaticPricer ignores the cart and always quotes the same single item.
// It stands in for a real pricing service.
type StaticPricer struct {
	currency string
	item     LineItem
}

func NewStaticPricer(currency string) *StaticPricer {
	return &StaticPricer{
		currency: currency,
		item: LineItem{
			Name:        "T-Shirt",
			Description: "Super Fresh Shirt",
			SKU:         "sku01",
			UnitPrice:   decimal.RequireFromString("64.00"),
			Quantity:    1,
		},
	}
}

func (p *StaticPricer) Quote(_ context.Context, _ json.RawMessage) (*Quote, error) {
	return &Quote{Currency: p.currency, Items: []LineItem{p.item}}, nil
}
