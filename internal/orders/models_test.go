package orders

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalCents(t *testing.T) {
	// 2 x 10.00 + 1 x 5.00 = 25.00
	items := []OrderItem{
		{ProductID: "prod-a", Qty: 2, PriceCents: 1000},
		{ProductID: "prod-b", Qty: 1, PriceCents: 500},
	}
	assert.Equal(t, 2500, TotalCents(items))
	assert.Equal(t, 0, TotalCents(nil))
}

func TestSubtotalCents(t *testing.T) {
	it := OrderItem{ProductID: "prod-a", Qty: 3, PriceCents: 250}
	assert.Equal(t, 750, it.SubtotalCents())
}

func TestValidateItems_Empty(t *testing.T) {
	err := ValidateItems(nil)
	require.ErrorIs(t, err, ErrEmptyOrder)
}

func TestValidateItems_Duplicate(t *testing.T) {
	err := ValidateItems([]ItemInput{
		{ProductID: "prod-a", Qty: 1},
		{ProductID: "prod-b", Qty: 2},
		{ProductID: "prod-a", Qty: 3},
	})
	var dup *DuplicateProductError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "prod-a", dup.ProductID)
}

func TestValidateItems_BadQty(t *testing.T) {
	require.ErrorIs(t, ValidateItems([]ItemInput{{ProductID: "prod-a", Qty: 0}}), ErrInvalidItem)
	require.ErrorIs(t, ValidateItems([]ItemInput{{ProductID: "prod-a", Qty: -2}}), ErrInvalidItem)
}

func TestValidateItems_MissingProductID(t *testing.T) {
	// product id kosong itu request malformed, bukan produk tak ditemukan
	err := ValidateItems([]ItemInput{{ProductID: "", Qty: 1}})
	require.ErrorIs(t, err, ErrInvalidItem)
	var notFound *ProductNotFoundError
	assert.False(t, errors.As(err, &notFound))
}

func TestValidateItems_OK(t *testing.T) {
	require.NoError(t, ValidateItems([]ItemInput{
		{ProductID: "prod-a", Qty: 1},
		{ProductID: "prod-b", Qty: 5},
	}))
}
