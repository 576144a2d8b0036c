package email

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/example/scaffold-shop/internal/order"
)

func TestBuildOrderConfirmationBody(t *testing.T) {
	items := []order.Item{
		{ProductID: 1, Name: "MS Scaffolding Pipes", Weight: 100, Unit: catalog.UnitKg, PricePerUnit: 2.50},
		{ProductID: 2, Name: "Scaffold Clamps & Couplers", Weight: 3.5, Unit: catalog.UnitLb, PricePerUnit: 1.72},
	}

	body := BuildOrderConfirmationBody("ORD-1700000000000-ABCD1234", 256.02, items)

	assert.Contains(t, body, "ORD-1700000000000-ABCD1234")
	assert.Contains(t, body, "MS Scaffolding Pipes")
	assert.Contains(t, body, "100 kg")
	assert.Contains(t, body, "$2.50/kg")
	assert.Contains(t, body, "3.5 lb")
	assert.Contains(t, body, "$250.00")
	assert.Contains(t, body, "$256.02")
}

func TestBuildStatusUpdateBody(t *testing.T) {
	body := BuildStatusUpdateBody("ORD-1-X", order.StatusShipped)

	assert.Contains(t, body, "ORD-1-X")
	assert.Contains(t, body, "shipped")
}
