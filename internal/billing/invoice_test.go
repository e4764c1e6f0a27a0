package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-commerce-checkout/internal/orders"
)

func testOrder() orders.Order {
	return orders.Order{
		ID:         "order-1",
		UserID:     "user-1",
		Status:     orders.StatusPending,
		TotalCents: 2500,
	}
}

func TestNewInvoice_DefaultDueDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	inv, err := NewInvoice(testOrder(), nil, now)
	require.NoError(t, err)

	assert.Equal(t, now.Add(30*24*time.Hour), inv.DueDate)
	assert.Equal(t, now, inv.CreatedAt)
	assert.Equal(t, StatusPending, inv.Status)
	assert.Equal(t, 2500, inv.TotalCents) // dicopy dari order
	assert.Equal(t, "order-1", inv.OrderID)
	assert.Equal(t, "user-1", inv.UserID)
	assert.NotEmpty(t, inv.ID)
}

func TestNewInvoice_ExplicitDueDate(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(7 * 24 * time.Hour)

	inv, err := NewInvoice(testOrder(), &due, now)
	require.NoError(t, err)
	assert.Equal(t, due, inv.DueDate)
}

func TestNewInvoice_DueDateBeforeCreation(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)

	_, err := NewInvoice(testOrder(), &due, now)
	require.ErrorIs(t, err, ErrInvalidDueDate)
}

// Overdue murni fungsi waktu baca, bukan status tersimpan: invoice yg sama
// berubah jadi overdue hanya karena waktu lewat, tanpa write apapun.
func TestIsOverdue(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	inv, err := NewInvoice(testOrder(), nil, created)
	require.NoError(t, err)

	assert.False(t, inv.IsOverdue(created))
	assert.False(t, inv.IsOverdue(inv.DueDate)) // tepat di due date belum overdue
	assert.True(t, inv.IsOverdue(inv.DueDate.Add(time.Second)))

	// paid tidak pernah overdue
	inv.Status = StatusPaid
	assert.False(t, inv.IsOverdue(inv.DueDate.Add(24*time.Hour)))

	// refunded tetap ikut aturan umum (status != paid)
	inv.Status = StatusRefunded
	assert.True(t, inv.IsOverdue(inv.DueDate.Add(24*time.Hour)))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusPaid))
	assert.True(t, ValidStatus(StatusRefunded))
	assert.False(t, ValidStatus(Status("OVERDUE"))) // derived, bukan enum tersimpan
	assert.False(t, ValidStatus(Status("")))
}
