package models

import (
	"fmt"
	"strings"
)

// ContactPreference tells the processor whether the buyer's contact and
// shipping data is shared with, and editable during, the hosted checkout.
type ContactPreference string

const (
	ContactPreferenceNoContactInfo     ContactPreference = "NO_CONTACT_INFO"
	ContactPreferenceRetainContactInfo ContactPreference = "RETAIN_CONTACT_INFO"
	ContactPreferenceUpdateContactInfo ContactPreference = "UPDATE_CONTACT_INFO"
)

// ContactPreferences lists every value the processor recognises.
var ContactPreferences = []ContactPreference{
	ContactPreferenceNoContactInfo,
	ContactPreferenceRetainContactInfo,
	ContactPreferenceUpdateContactInfo,
}

// UnknownContactPreferenceError is returned when a caller sends a value
// outside ContactPreferences.
type UnknownContactPreferenceError struct {
	Value string
}

func (e *UnknownContactPreferenceError) Error() string {
	if e.Value == "" {
		return "contact preference is required"
	}
	return fmt.Sprintf("unknown contact preference %q", e.Value)
}

// ParseContactPreference maps raw input onto the closed enum. Matching is
// exact apart from surrounding whitespace.
func ParseContactPreference(raw string) (ContactPreference, error) {
	v := ContactPreference(strings.TrimSpace(raw))
	if v.Valid() {
		return v, nil
	}
	return "", &UnknownContactPreferenceError{Value: raw}
}

// Valid reports whether p is one of ContactPreferences.
func (p ContactPreference) Valid() bool {
	for _, known := range ContactPreferences {
		if p == known {
			return true
		}
	}
	return false
}

// IncludesShipping is false only for NO_CONTACT_INFO.
func (p ContactPreference) IncludesShipping() bool {
	return p != ContactPreferenceNoContactInfo
}
