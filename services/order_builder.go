package services

import (
	"strconv"

	"checkout-service/models"
	"checkout-service/pricing"
)

// OrderBuilder assembles the processor's create-order payload. It has no
// side effects and never fails; validity of the contact preference is the
// caller's concern.
type OrderBuilder struct {
	shippingOptions []models.ShippingOption
	contact         models.ShippingContact
}

// NewOrderBuilder copies options so later changes by the caller do not leak
// into built payloads.
func NewOrderBuilder(options []models.ShippingOption, contact models.ShippingContact) *OrderBuilder {
	return &OrderBuilder{
		shippingOptions: cloneShippingOptions(options),
		contact:         contact,
	}
}

// Build maps a priced cart and contact preference onto an OrderRequest.
// The breakdown item total and the amount value are always the same figure.
func (b *OrderBuilder) Build(quote *pricing.Quote, pref models.ContactPreference) *models.OrderRequest {
	items := make([]models.Item, 0, len(quote.Items))
	for _, li := range quote.Items {
		items = append(items, models.Item{
			Name:        li.Name,
			UnitAmount:  money(quote.Currency, li.UnitPrice.StringFixed(2)),
			Quantity:    strconv.FormatInt(li.Quantity, 10),
			Description: li.Description,
			SKU:         li.SKU,
		})
	}

	total := quote.Total().StringFixed(2)
	unit := models.PurchaseUnit{
		Amount: models.AmountWithBreakdown{
			CurrencyCode: quote.Currency,
			Value:        total,
			Breakdown: &models.AmountBreakdown{
				ItemTotal: money(quote.Currency, total),
			},
		},
		Items: items,
	}

	if pref.IncludesShipping() {
		unit.Shipping = &models.ShippingDetail{
			PhoneNumber: &models.PhoneNumber{
				CountryCode:    b.contact.PhoneCountryCode,
				NationalNumber: b.contact.PhoneNationalNumber,
			},
			Name:    &models.ShippingName{FullName: b.contact.FullName},
			Options: cloneShippingOptions(b.shippingOptions),
		}
	}

	return &models.OrderRequest{
		Intent:        models.IntentCapture,
		PurchaseUnits: []models.PurchaseUnit{unit},
		PaymentSource: models.PaymentSource{
			PayPal: &models.PayPalWallet{
				ExperienceContext: models.ExperienceContext{
					UserAction:        models.UserActionPayNow,
					ContactPreference: pref,
				},
			},
		},
	}
}

func money(currency, value string) models.Money {
	return models.Money{CurrencyCode: currency, Value: value}
}

func cloneShippingOptions(opts []models.ShippingOption) []models.ShippingOption {
	if opts == nil {
		return nil
	}
	out := make([]models.ShippingOption, len(opts))
	copy(out, opts)
	return out
}
