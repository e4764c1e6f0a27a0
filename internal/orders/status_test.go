package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusShipped, StatusDelivered, true},

		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusProcessing, StatusCancelled, true},

		// sesudah shipped tidak bisa batal
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},

		{StatusShipped, StatusConfirmed, false},
		{StatusPending, StatusShipped, false},
		{StatusDelivered, StatusPending, false},
		{StatusCancelled, StatusPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, CanTransition(c.from, c.to), "%s -> %s", c.from, c.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusShipped.Terminal())
	assert.False(t, Status("BOGUS").Terminal())
}

func TestDeletable(t *testing.T) {
	assert.True(t, StatusPending.Deletable())
	assert.True(t, StatusCancelled.Deletable())
	assert.False(t, StatusConfirmed.Deletable())
	assert.False(t, StatusProcessing.Deletable())
	assert.False(t, StatusShipped.Deletable())
	assert.False(t, StatusDelivered.Deletable())
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.False(t, ValidStatus(Status("PLACED")))
}
