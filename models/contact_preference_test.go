package models_test

import (
	"testing"

	"checkout-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContactPreference_Known(t *testing.T) {
	for _, want := range models.ContactPreferences {
		got, err := models.ParseContactPreference(string(want))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestParseContactPreference_TrimsWhitespace(t *testing.T) {
	got, err := models.ParseContactPreference("  RETAIN_CONTACT_INFO\n")
	require.NoError(t, err)
	assert.Equal(t, models.ContactPreferenceRetainContactInfo, got)
}

func TestParseContactPreference_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":      "",
		"lowercase":  "no_contact_info",
		"unknown":    "SHARE_EVERYTHING",
		"whitespace": "   ",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := models.ParseContactPreference(raw)
			require.Error(t, err)
			var unknown *models.UnknownContactPreferenceError
			assert.ErrorAs(t, err, &unknown)
		})
	}
}

func TestUnknownContactPreferenceError_Message(t *testing.T) {
	assert.Equal(t, "contact preference is required", (&models.UnknownContactPreferenceError{}).Error())
	assert.Contains(t, (&models.UnknownContactPreferenceError{Value: "FOO"}).Error(), `"FOO"`)
}

func TestIncludesShipping(t *testing.T) {
	assert.False(t, models.ContactPreferenceNoContactInfo.IncludesShipping())
	assert.True(t, models.ContactPreferenceRetainContactInfo.IncludesShipping())
	assert.True(t, models.ContactPreferenceUpdateContactInfo.IncludesShipping())
}
