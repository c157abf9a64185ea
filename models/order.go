package models

// Values for OrderRequest.Intent and ExperienceContext.UserAction.
const (
	IntentCapture    = "CAPTURE"
	UserActionPayNow = "PAY_NOW"
)

// Money is a processor amount. Value is a decimal string, e.g. "64.00".
type Money struct {
	CurrencyCode string `json:"currency_code" validate:"required"`
	Value        string `json:"value" validate:"required,numeric"`
}

type AmountBreakdown struct {
	ItemTotal Money `json:"item_total"`
}

type AmountWithBreakdown struct {
	CurrencyCode string           `json:"currency_code"`
	Value        string           `json:"value"`
	Breakdown    *AmountBreakdown `json:"breakdown,omitempty"`
}

// Item is a purchase-unit line item. Quantity is a string on the wire.
type Item struct {
	Name        string `json:"name"`
	UnitAmount  Money  `json:"unit_amount"`
	Quantity    string `json:"quantity"`
	Description string `json:"description,omitempty"`
	SKU         string `json:"sku,omitempty"`
}

type PhoneNumber struct {
	CountryCode    string `json:"country_code"`
	NationalNumber string `json:"national_number"`
}

type ShippingName struct {
	FullName string `json:"full_name"`
}

// ShippingDetail is attached only when the contact preference shares
// contact data with the processor.
type ShippingDetail struct {
	PhoneNumber *PhoneNumber     `json:"phone_number,omitempty"`
	Name        *ShippingName    `json:"name,omitempty"`
	Options     []ShippingOption `json:"options,omitempty"`
}

type PurchaseUnit struct {
	Amount   AmountWithBreakdown `json:"amount"`
	Items    []Item              `json:"items"`
	Shipping *ShippingDetail     `json:"shipping,omitempty"`
}

type ExperienceContext struct {
	UserAction        string            `json:"user_action"`
	ContactPreference ContactPreference `json:"contact_preference"`
}

type PayPalWallet struct {
	ExperienceContext ExperienceContext `json:"experience_context"`
}

type PaymentSource struct {
	PayPal *PayPalWallet `json:"paypal,omitempty"`
}

// OrderRequest is the body sent to the processor's create-order endpoint.
type OrderRequest struct {
	Intent        string         `json:"intent"`
	PurchaseUnits []PurchaseUnit `json:"purchase_units"`
	PaymentSource PaymentSource  `json:"payment_source"`
}
