package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestUpdateValidate_Valid(t *testing.T) {
	update := &Update{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Value:     decimal.RequireFromString("1234.56"),
		Date:      time.Now(),
	}

	assert.NoError(t, update.Validate())
}

func TestUpdateValidate_Orphan(t *testing.T) {
	update := &Update{ID: uuid.New(), Value: decimal.NewFromInt(100)}

	assert.ErrorIs(t, update.Validate(), ErrOrphanUpdate)
}

func TestUpdateValidate_Negative(t *testing.T) {
	update := &Update{ID: uuid.New(), AccountID: uuid.New(), Value: decimal.NewFromInt(-1)}

	err := update.Validate()
	ve, ok := AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, ValidationNegative, ve.Kind)
}

func TestUpdateValidate_TooLarge(t *testing.T) {
	update := &Update{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Value:     decimal.RequireFromString("1000000000.00"),
	}

	err := update.Validate()
	ve, ok := AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, ValidationTooLarge, ve.Kind)
}

func TestUpdateValidate_MaxValueAccepted(t *testing.T) {
	update := &Update{ID: uuid.New(), AccountID: uuid.New(), Value: MaxUpdateValue}

	assert.NoError(t, update.Validate())
}

func TestUpdateValidate_TooManyDecimals(t *testing.T) {
	update := &Update{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Value:     decimal.RequireFromString("10.999"),
	}

	err := update.Validate()
	ve, ok := AsValidationError(err)
	assert.True(t, ok)
	assert.Equal(t, ValidationTooManyDecimals, ve.Kind)
}

func TestUpdateValidate_TrailingZerosAccepted(t *testing.T) {
	// 10.50000 equals a two-decimal value; only significant fractional
	// digits count.
	update := &Update{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Value:     decimal.RequireFromString("10.50000"),
	}

	assert.NoError(t, update.Validate())
}

func TestUpdateDay(t *testing.T) {
	update := &Update{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Value:     decimal.NewFromInt(1),
		Date:      time.Date(2024, 7, 2, 23, 59, 59, 0, time.UTC),
	}

	assert.Equal(t, time.Date(2024, 7, 2, 0, 0, 0, 0, time.UTC), update.Day())
}
