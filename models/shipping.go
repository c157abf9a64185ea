package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type ShippingType string

const (
	ShippingTypeShipping ShippingType = "SHIPPING"
	ShippingTypePickup   ShippingType = "PICKUP"
)

// ShippingOption is a delivery or pickup method offered during checkout.
type ShippingOption struct {
	ID       string       `json:"id" validate:"required"`
	Label    string       `json:"label" validate:"required"`
	Type     ShippingType `json:"type" validate:"required,oneof=SHIPPING PICKUP"`
	Amount   Money        `json:"amount"`
	Selected bool         `json:"selected"`
}

type shippingOptionSet struct {
	Options []ShippingOption `validate:"required,min=1,unique=ID,dive"`
}

// ShippingContact holds the recipient data sent alongside the options.
type ShippingContact struct {
	PhoneCountryCode    string
	PhoneNationalNumber string
	FullName            string
}

// DefaultShippingOptions returns two shipping tiers and two pickup locations,
// with the in-store pickup preselected.
func DefaultShippingOptions(currency string) []ShippingOption {
	return []ShippingOption{
		{ID: "ShipToHome", Label: "Free Shipping", Type: ShippingTypeShipping, Amount: Money{CurrencyCode: currency, Value: "0.00"}},
		{ID: "SHIP_1234", Label: "Express Shipping", Type: ShippingTypeShipping, Amount: Money{CurrencyCode: currency, Value: "5.00"}},
		{ID: "PICKUP0", Label: "Pick up in Store", Type: ShippingTypePickup, Amount: Money{CurrencyCode: currency, Value: "0.00"}, Selected: true},
		{ID: "PICKUP1", Label: "Pick up at Warehouse", Type: ShippingTypePickup, Amount: Money{CurrencyCode: currency, Value: "0.00"}},
	}
}

// LoadShippingOptions reads a JSON array of options from path and validates it.
func LoadShippingOptions(path, currency string) ([]ShippingOption, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read shipping options: %w", err)
	}
	var opts []ShippingOption
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("decode shipping options: %w", err)
	}
	if err := ValidateShippingOptions(opts, currency); err != nil {
		return nil, err
	}
	return opts, nil
}

// ValidateShippingOptions checks ids are unique, types are known, amounts use
// currency and exactly one option is selected.
func ValidateShippingOptions(opts []ShippingOption, currency string) error {
	if err := validate.Struct(shippingOptionSet{Options: opts}); err != nil {
		return describeShippingError(err)
	}
	selected := 0
	for _, o := range opts {
		if o.Amount.CurrencyCode != currency {
			return fmt.Errorf("shipping options[%s]: currency %q does not match %q", o.ID, o.Amount.CurrencyCode, currency)
		}
		if o.Selected {
			selected++
		}
	}
	if selected != 1 {
		return fmt.Errorf("shipping options: exactly one option must be selected, got %d", selected)
	}
	return nil
}

func describeShippingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("shipping options: %w", err)
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Options" && fe.Tag() == "unique":
		return fmt.Errorf("shipping options: duplicate id: %w", err)
	case fe.Field() == "Options":
		return fmt.Errorf("shipping options: at least one option is required: %w", err)
	case fe.Tag() == "oneof":
		return fmt.Errorf("shipping options %s: unknown type %q", fe.Namespace(), fe.Value())
	case fe.Tag() == "numeric":
		return fmt.Errorf("shipping options %s: amount %q is not a decimal", fe.Namespace(), fe.Value())
	default:
		return fmt.Errorf("shipping options %s: %s is required", fe.Namespace(), fe.Field())
	}
}
