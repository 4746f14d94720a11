// Package phone normalises phone numbers to E.164.
package phone

import (
	"errors"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used for numbers written without a country code
const DefaultRegion = "IN"

var ErrInvalid = errors.New("invalid phone number")

// Normalize parses raw in the given region and returns it in E.164 form
func Normalize(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrInvalid
	}
	if region == "" {
		region = DefaultRegion
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", ErrInvalid
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalid
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// NormalizeOrKeep returns the E.164 form when raw parses, otherwise raw trimmed.
// Used for customer contact details where any reachable number is accepted.
func NormalizeOrKeep(raw, region string) string {
	if normalized, err := Normalize(raw, region); err == nil {
		return normalized
	}
	return strings.TrimSpace(raw)
}
