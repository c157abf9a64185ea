package pricing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"checkout-service/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const maxLineQuantity = 999

var validate = validator.New()

// Product is a catalog entry as stored in the catalog JSON file.
type Product struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       string `json:"price" validate:"required,numeric"`
}

type catalog struct {
	Products []Product `validate:"required,min=1,unique=SKU,dive"`
}

type catalogEntry struct {
	product Product
	price   decimal.Decimal
}

// CatalogPricer prices carts of the form [{"id": "<sku>", "quantity": n}]
// against a fixed product catalog.
type CatalogPricer struct {
	currency string
	products map[string]catalogEntry
}

// LoadCatalog reads a JSON array of products from path.
func LoadCatalog(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return products, nil
}

func NewCatalogPricer(currency string, products []Product) (*CatalogPricer, error) {
	if err := validate.Struct(catalog{Products: products}); err != nil {
		return nil, describeCatalogError(err)
	}
	entries := make(map[string]catalogEntry, len(products))
	for _, p := range products {
		price, err := decimal.NewFromString(p.Price)
		if err != nil {
			return nil, fmt.Errorf("catalog sku %q: invalid price %q: %w", p.SKU, p.Price, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("catalog sku %q: price must be positive", p.SKU)
		}
		entries[p.SKU] = catalogEntry{product: p, price: price}
	}
	return &CatalogPricer{currency: currency, products: entries}, nil
}

func describeCatalogError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("catalog: %w", err)
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Products" && fe.Tag() == "unique":
		return fmt.Errorf("catalog has duplicate sku: %w", err)
	case fe.Field() == "Products":
		return fmt.Errorf("catalog is empty: %w", err)
	case fe.Tag() == "numeric":
		return fmt.Errorf("catalog %s: invalid price %q", fe.Namespace(), fe.Value())
	default:
		return fmt.Errorf("catalog %s: %s is required", fe.Namespace(), fe.Field())
	}
}

type cartLine struct {
	ID       string       `json:"id"`
	Quantity lineQuantity `json:"quantity"`
}

// lineQuantity accepts both 2 and "2"; storefronts send either.
type lineQuantity int64

func (q *lineQuantity) UnmarshalJSON(b []byte) error {
	s := string(bytes.TrimSpace(b))
	s = strings.Trim(s, `"`)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("quantity %s is not a whole number", string(b))
	}
	*q = lineQuantity(n)
	return nil
}

func (p *CatalogPricer) Quote(_ context.Context, cart json.RawMessage) (*Quote, error) {
	if len(bytes.TrimSpace(cart)) == 0 {
		return nil, apperrors.Validation("Cart is required.", nil)
	}
	var lines []cartLine
	if err := json.Unmarshal(cart, &lines); err != nil {
		return nil, apperrors.Validation("Cart must be a list of {id, quantity} entries.", err)
	}
	if len(lines) == 0 {
		return nil, apperrors.Validation("Cart is empty.", nil)
	}

	quote := &Quote{Currency: p.currency, Items: make([]LineItem, 0, len(lines))}
	for _, line := range lines {
		entry, ok := p.products[line.ID]
		if !ok {
			return nil, apperrors.Validation(fmt.Sprintf("Unknown product %q.", line.ID), nil)
		}
		if line.Quantity < 1 || line.Quantity > maxLineQuantity {
			return nil, apperrors.Validation(fmt.Sprintf("Quantity for %q must be between 1 and %d.", line.ID, maxLineQuantity), nil)
		}
		quote.Items = append(quote.Items, LineItem{
			Name:        entry.product.Name,
			Description: entry.product.Description,
			SKU:         entry.product.SKU,
			UnitPrice:   entry.price,
			Quantity:    int64(line.Quantity),
		})
	}
	return quote, nil
}
