// Package validation holds the pure input-validation rules the engine relies
// on: monetary strings and account names. Every update value in the system
// passes through MonetaryInput before it is persisted.
package validation

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

// MaxMonetaryInputLength is the maximum accepted length of a raw monetary
// string after trimming. 15 characters covers the full value range with two
// decimal places.
const MaxMonetaryInputLength = 15

// Digits, optional single decimal point, no sign.
var monetaryPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]*)?$`)

var hundred = decimal.NewFromInt(100)

// MonetaryInput validates a raw monetary string and returns the parsed
// decimal. Rules are applied in order: trim, Empty, TooLong, BadFormat,
// ParseError, Negative, TooLarge, TooManyDecimals. The returned error is
// always a *domain.ValidationError.
func MonetaryInput(raw string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, domain.NewValidationError(domain.ValidationEmpty, "value", "value cannot be empty")
	}
	if len(trimmed) > MaxMonetaryInputLength {
		return decimal.Zero, domain.NewValidationError(domain.ValidationTooLong, "value", "value is too long")
	}
	if !monetaryPattern.MatchString(trimmed) {
		return decimal.Zero, domain.NewValidationError(domain.ValidationBadFormat, "value", "value must be digits with an optional decimal point")
	}
	value, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, domain.NewValidationError(domain.ValidationParseError, "value", "value could not be parsed")
	}
	if value.IsNegative() {
		// Unreachable while the pattern rejects signs; kept so the rule
		// order survives any future pattern change.
		return decimal.Zero, domain.NewValidationError(domain.ValidationNegative, "value", "value cannot be negative")
	}
	if value.GreaterThan(domain.MaxUpdateValue) {
		return decimal.Zero, domain.NewValidationError(domain.ValidationTooLarge, "value", "value exceeds the maximum of 999,999,999.99")
	}
	scaled := value.Mul(hundred)
	if !scaled.Equal(scaled.Round(0)) {
		return decimal.Zero, domain.NewValidationError(domain.ValidationTooManyDecimals, "value", "value has more than two decimal places")
	}
	return value, nil
}

// AccountName validates a raw account name against the given existing names
// and returns the trimmed (not case-folded) name. Uniqueness is
// case-insensitive across active and inactive accounts.
func AccountName(raw string, existingNames []string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.NewValidationError(domain.ValidationEmpty, "name", "account name cannot be empty")
	}
	length := utf8.RuneCountInString(trimmed)
	if length < 1 {
		return "", domain.NewValidationError(domain.ValidationTooShort, "name", "account name is too short")
	}
	if length > domain.MaxAccountNameLength {
		return "", domain.NewValidationError(domain.ValidationTooLong, "name", "account name is too long")
	}
	if tooComplex(raw, trimmed) {
		return "", domain.NewValidationError(domain.ValidationTooComplex, "name", "account name contains excessive combining characters")
	}
	for _, r := range trimmed {
		if r == 0 || unicode.IsControl(r) {
			return "", domain.NewValidationError(domain.ValidationInvalidCharacter, "name", "account name contains control characters")
		}
	}
	for _, existing := range existingNames {
		if strings.EqualFold(strings.TrimSpace(existing), trimmed) {
			return "", domain.NewValidationError(domain.ValidationDuplicate, "name", "an account with this name already exists")
		}
	}
	return trimmed, nil
}

// tooComplex guards against combining-character amplification: names whose
// UTF-16 or decomposed forms balloon far beyond the rune-count limit are
// rejected before any normalization work is trusted.
func tooComplex(raw, trimmed string) bool {
	maxLen := domain.MaxAccountNameLength
	if len(utf16.Encode([]rune(raw))) > 3*maxLen {
		return true
	}
	if utf8.RuneCountInString(norm.NFC.String(trimmed)) > 2*maxLen {
		return true
	}
	if utf8.RuneCountInString(norm.NFD.String(trimmed)) > 3*maxLen {
		return true
	}
	return false
}

// SafeFloat64 converts a decimal to a float64 for chart consumers, clamping
// to the largest finite value instead of returning an infinity or NaN.
func SafeFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	switch {
	case math.IsNaN(f):
		return 0
	case math.IsInf(f, 1):
		return math.MaxFloat64
	case math.IsInf(f, -1):
		return -math.MaxFloat64
	}
	return f
}
