package models_test

import (
	"os"
	"path/filepath"
	"testing"

	"checkout-service/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultShippingOptions(t *testing.T) {
	opts := models.DefaultShippingOptions("USD")
	require.Len(t, opts, 4)
	require.NoError(t, models.ValidateShippingOptions(opts, "USD"))

	ids := make([]string, 0, len(opts))
	for _, o := range opts {
		ids = append(ids, o.ID)
		if o.Selected {
			assert.Equal(t, "PICKUP0", o.ID)
		}
	}
	assert.Equal(t, []string{"ShipToHome", "SHIP_1234", "PICKUP0", "PICKUP1"}, ids)
	assert.Equal(t, "5.00", opts[1].Amount.Value)
}

func TestValidateShippingOptions_Errors(t *testing.T) {
	base := func() []models.ShippingOption { return models.DefaultShippingOptions("USD") }

	t.Run("empty", func(t *testing.T) {
		assert.Error(t, models.ValidateShippingOptions(nil, "USD"))
	})
	t.Run("duplicate id", func(t *testing.T) {
		opts := base()
		opts[1].ID = opts[0].ID
		assert.ErrorContains(t, models.ValidateShippingOptions(opts, "USD"), "duplicate")
	})
	t.Run("unknown type", func(t *testing.T) {
		opts := base()
		opts[0].Type = "DRONE"
		assert.ErrorContains(t, models.ValidateShippingOptions(opts, "USD"), "unknown type")
	})
	t.Run("duplicate id keeps validator detail", func(t *testing.T) {
		opts := base()
		opts[3].ID = opts[2].ID
		err := models.ValidateShippingOptions(opts, "USD")
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "unique", verrs[0].Tag())
	})
	t.Run("missing label", func(t *testing.T) {
		opts := base()
		opts[1].Label = ""
		assert.ErrorContains(t, models.ValidateShippingOptions(opts, "USD"), "Label is required")
	})
	t.Run("non decimal amount", func(t *testing.T) {
		opts := base()
		opts[1].Amount.Value = "five"
		assert.ErrorContains(t, models.ValidateShippingOptions(opts, "USD"), "not a decimal")
	})
	t.Run("currency mismatch", func(t *testing.T) {
		assert.ErrorContains(t, models.ValidateShippingOptions(base(), "EUR"), "currency")
	})
	t.Run("none selected", func(t *testing.T) {
		opts := base()
		opts[2].Selected = false
		assert.ErrorContains(t, models.ValidateShippingOptions(opts, "USD"), "exactly one")
	})
	t.Run("two selected", func(t *testing.T) {
		opts := base()
		opts[0].Selected = true
		assert.ErrorContains(t, models.ValidateShippingOptions(opts, "USD"), "exactly one")
	})
}

func TestLoadShippingOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shipping.json")
	content := `[
		{"id":"STD","label":"Standard","type":"SHIPPING","amount":{"currency_code":"EUR","value":"3.50"},"selected":true},
		{"id":"SHOP","label":"Shop","type":"PICKUP","amount":{"currency_code":"EUR","value":"0.00"}}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	opts, err := models.LoadShippingOptions(path, "EUR")
	require.NoError(t, err)
	require.Len(t, opts, 2)
	assert.Equal(t, "STD", opts[0].ID)
	assert.True(t, opts[0].Selected)

	_, err = models.LoadShippingOptions(path, "USD")
	assert.Error(t, err)

	_, err = models.LoadShippingOptions(filepath.Join(dir, "missing.json"), "EUR")
	assert.Error(t, err)
}
