package order_test

import (
	"testing"

	"warehouse/internal/core/domain/model/order"
	"warehouse/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_StringAndParseRoundTrip(t *testing.T) {
	for _, s := range order.AllStatuses() {
		t.Run(s.String(), func(t *testing.T) {
			parsed, err := order.ParseStatus(s.String())

			require.NoError(t, err)
			assert.Equal(t, s, parsed)
			require.NoError(t, s.Validate())
		})
	}
}

func TestParseStatus_Invalid(t *testing.T) {
	for _, in := range []string{"", "unknown", "lost"} {
		_, err := order.ParseStatus(in)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid, in)
	}
}

func TestStatus_Validate(t *testing.T) {
	require.Error(t, order.Unknown.Validate())
	require.Error(t, order.Status(99).Validate())
	assert.Equal(t, "unknown", order.Status(99).String())
}

func TestStatus_Milestone(t *testing.T) {
	testCases := []struct {
		status order.Status
		want   order.Milestone
	}{
		{order.Pending, order.MilestonePlaced},
		{order.Confirmed, order.MilestoneConfirmed},
		{order.Picking, order.MilestonePicked},
		{order.Packed, order.MilestonePacked},
		{order.Shipped, order.MilestoneShipped},
		{order.Delivered, order.MilestoneDelivered},
		{order.Cancelled, order.MilestoneCancelled},
		{order.Returned, order.MilestoneReturned},
	}
	for _, tc := range testCases {
		m, ok := tc.status.Milestone()

		assert.True(t, ok)
		assert.Equal(t, tc.want, m)
		assert.True(t, m.IsValid())
	}

	_, ok := order.Unknown.Milestone()
	assert.False(t, ok)
	assert.False(t, order.Milestone("teleported").IsValid())
}

func TestStatus_Text(t *testing.T) {
	data, err := order.Shipped.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "shipped", string(data))

	var s order.Status
	require.NoError(t, s.UnmarshalText([]byte("Packed")))
	assert.Equal(t, order.Packed, s)

	_, err = order.Unknown.MarshalText()
	require.Error(t, err)
}
