package order

import (
	"strings"
	"testing"

	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, ValidStatus(s), string(s))
	}
	assert.False(t, ValidStatus("unpaid"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("PAID"))
}

func TestOrder_CanTransitionTo(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusPaid, StatusProcessing, true},
		{StatusPaid, StatusShipped, true},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusDelivered, false},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusPaid, false},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPaid, false},
		{StatusPending, StatusProcessing, true},
	}

	for _, tc := range cases {
		o := &Order{Status: tc.from}
		assert.Equal(t, tc.allowed, o.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTotal_RoundsToTwoDecimals(t *testing.T) {
	items := []Item{
		{Weight: 0.333, PricePerUnit: 2.50, Unit: catalog.UnitKg}, // 0.8325
		{Weight: 1, PricePerUnit: 1.13, Unit: catalog.UnitLb},     // 1.13
	}
	// 1.9625 -> 1.96
	assert.Equal(t, 1.96, Total(items))
}

func TestTotal_ScenarioA(t *testing.T) {
	items := []Item{{Weight: 100, Unit: catalog.UnitKg, PricePerUnit: 2.50}}
	assert.Equal(t, 250.00, Total(items))
}

func TestNewOrderID(t *testing.T) {
	id := NewOrderID()
	assert.True(t, strings.HasPrefix(id, "ORD-"), id)

	other := NewOrderID()
	assert.NotEqual(t, id, other)
}

func TestFilter(t *testing.T) {
	orders := []Order{
		{OrderID: "ORD-1-AAAA", CustomerEmail: "alice@example.com", Status: StatusPaid},
		{OrderID: "ORD-2-BBBB", CustomerEmail: "bob@example.com", Status: StatusShipped},
		{OrderID: "ORD-3-CCCC", CustomerEmail: "alice@example.com", Status: StatusShipped},
	}

	t.Run("no filters returns all", func(t *testing.T) {
		assert.Len(t, Filter(orders, "", ""), 3)
		assert.Len(t, Filter(orders, "", "all"), 3)
	})

	t.Run("search matches order id substring", func(t *testing.T) {
		got := Filter(orders, "ord-2", "")
		require.Len(t, got, 1)
		assert.Equal(t, "ORD-2-BBBB", got[0].OrderID)
	})

	t.Run("search matches email substring", func(t *testing.T) {
		assert.Len(t, Filter(orders, "ALICE", ""), 2)
	})

	t.Run("status is exact match", func(t *testing.T) {
		assert.Len(t, Filter(orders, "", StatusShipped), 2)
		assert.Empty(t, Filter(orders, "", StatusCancelled))
	})

	t.Run("search and status combine", func(t *testing.T) {
		got := Filter(orders, "alice", StatusShipped)
		require.Len(t, got, 1)
		assert.Equal(t, "ORD-3-CCCC", got[0].OrderID)
	})
}
