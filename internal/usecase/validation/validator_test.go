package validation

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moneta-app/moneta-backend/internal/domain"
)

func assertMonetaryKind(t *testing.T, raw string, kind domain.ValidationKind) {
	t.Helper()

	_, err := MonetaryInput(raw)
	require.Error(t, err)

	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, kind, ve.Kind)
}

func TestMonetaryInput_Valid(t *testing.T) {
	value, err := MonetaryInput("  1234.56  ")

	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.RequireFromString("1234.56")))
}

func TestMonetaryInput_IntegerAndTrailingPoint(t *testing.T) {
	value, err := MonetaryInput("100")
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(100)))

	// "100." matches the pattern (empty fractional part is allowed).
	value, err = MonetaryInput("100.")
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.NewFromInt(100)))
}

func TestMonetaryInput_Empty(t *testing.T) {
	assertMonetaryKind(t, "   ", domain.ValidationEmpty)
	assertMonetaryKind(t, "", domain.ValidationEmpty)
}

func TestMonetaryInput_TooLong(t *testing.T) {
	assertMonetaryKind(t, strings.Repeat("1", 16), domain.ValidationTooLong)
}

func TestMonetaryInput_BadFormat(t *testing.T) {
	assertMonetaryKind(t, "12,34", domain.ValidationBadFormat)
	assertMonetaryKind(t, "-5", domain.ValidationBadFormat)
	assertMonetaryKind(t, "+5", domain.ValidationBadFormat)
	assertMonetaryKind(t, "1.2.3", domain.ValidationBadFormat)
	assertMonetaryKind(t, ".5", domain.ValidationBadFormat)
	assertMonetaryKind(t, "1e9", domain.ValidationBadFormat)
}

func TestMonetaryInput_TooLarge(t *testing.T) {
	assertMonetaryKind(t, "1000000000", domain.ValidationTooLarge)

	// The boundary itself is accepted.
	value, err := MonetaryInput("999999999.99")
	require.NoError(t, err)
	assert.True(t, value.Equal(domain.MaxUpdateValue))
}

func TestMonetaryInput_TooManyDecimals(t *testing.T) {
	assertMonetaryKind(t, "10.999", domain.ValidationTooManyDecimals)
	assertMonetaryKind(t, "0.001", domain.ValidationTooManyDecimals)

	// Trailing zeros beyond two places carry no extra precision.
	value, err := MonetaryInput("10.50")
	require.NoError(t, err)
	assert.True(t, value.Equal(decimal.RequireFromString("10.5")))
}

// Applying the validator twice to the same input yields the same result.
func TestMonetaryInput_Idempotent(t *testing.T) {
	inputs := []string{"  42.42 ", "", "abc", "10.999", "999999999.99"}

	for _, raw := range inputs {
		first, errFirst := MonetaryInput(raw)
		second, errSecond := MonetaryInput(raw)

		assert.True(t, first.Equal(second))
		if errFirst == nil {
			assert.NoError(t, errSecond)
		} else {
			veFirst, _ := domain.AsValidationError(errFirst)
			veSecond, ok := domain.AsValidationError(errSecond)
			require.True(t, ok)
			assert.Equal(t, veFirst.Kind, veSecond.Kind)
		}
	}
}

func assertNameKind(t *testing.T, raw string, existing []string, kind domain.ValidationKind) {
	t.Helper()

	_, err := AccountName(raw, existing)
	require.Error(t, err)

	ve, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, kind, ve.Kind)
}

func TestAccountName_Valid(t *testing.T) {
	name, err := AccountName("  Emergency Fund  ", []string{"Savings"})

	require.NoError(t, err)
	assert.Equal(t, "Emergency Fund", name)
}

func TestAccountName_Empty(t *testing.T) {
	assertNameKind(t, "   ", nil, domain.ValidationEmpty)
}

func TestAccountName_TooLong(t *testing.T) {
	assertNameKind(t, strings.Repeat("a", 51), nil, domain.ValidationTooLong)

	// Exactly 50 runes is fine.
	_, err := AccountName(strings.Repeat("a", 50), nil)
	assert.NoError(t, err)
}

func TestAccountName_TooComplex(t *testing.T) {
	// U+1FA7 canonically decomposes to four code points (omega plus three
	// diacritics), so 50 of them pass the rune-count limit but blow past
	// the 3x decomposed-length bound.
	amplified := strings.Repeat("ᾧ", 50)
	assertNameKind(t, amplified, nil, domain.ValidationTooComplex)
}

func TestAccountName_InvalidCharacter(t *testing.T) {
	assertNameKind(t, "Sav\x00ings", nil, domain.ValidationInvalidCharacter)
	assertNameKind(t, "Sav\tings", nil, domain.ValidationInvalidCharacter)
}

func TestAccountName_DuplicateCaseInsensitive(t *testing.T) {
	assertNameKind(t, "  Savings  ", []string{"savings"}, domain.ValidationDuplicate)
	assertNameKind(t, "SAVINGS", []string{"Savings", "Current"}, domain.ValidationDuplicate)
}

func TestAccountName_PreservesCase(t *testing.T) {
	name, err := AccountName("My ISA", []string{"my isa 2"})

	require.NoError(t, err)
	assert.Equal(t, "My ISA", name)
}

func TestSafeFloat64(t *testing.T) {
	assert.Equal(t, 1234.56, SafeFloat64(decimal.RequireFromString("1234.56")))
	assert.Equal(t, 0.0, SafeFloat64(decimal.Zero))
}
