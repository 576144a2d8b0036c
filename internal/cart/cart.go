package cart

import (
	"errors"
	"math"

	"github.com/example/scaffold-shop/internal/catalog"
)

var (
	ErrInvalidWeight    = errors.New("weight must be a positive number")
	ErrItemNotFound     = errors.New("cart item not found")
	ErrIndexOutOfRange  = errors.New("cart index out of range")
)

// Item is a single cart line. Identity is positional; two entries may share a
// product id unless they were merged through Add.
type Item struct {
	ProductID    int          `json:"productId"`
	Name         string       `json:"name"`
	Weight       float64      `json:"weight"`
	Unit         catalog.Unit `json:"unit"`
	PricePerUnit float64      `json:"pricePerUnit"`
	Image        string       `json:"image"`
}

// Subtotal returns the line total, unrounded.
func (i Item) Subtotal() float64 {
	return i.Weight * i.PricePerUnit
}

// Cart is an ordered collection of selected items.
type Cart struct {
	Items []Item `json:"items"`
}

// Add merges the item into an existing line with the same product id by
// summing weights, or appends a new line. The incoming item's price and unit
// are kept as derived at add time.
func (c *Cart) Add(item Item) error {
	if item.Weight <= 0 || math.IsNaN(item.Weight) {
		return ErrInvalidWeight
	}
	for idx := range c.Items {
		if c.Items[idx].ProductID == item.ProductID {
			c.Items[idx].Weight += item.Weight
			return nil
		}
	}
	c.Items = append(c.Items, item)
	return nil
}

// Remove deletes every line with the given product id.
func (c *Cart) Remove(productID int) error {
	kept := c.Items[:0]
	found := false
	for _, item := range c.Items {
		if item.ProductID == productID {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		return ErrItemNotFound
	}
	c.Items = kept
	return nil
}

// RemoveAt deletes the line at the given index.
func (c *Cart) RemoveAt(index int) error {
	if index < 0 || index >= len(c.Items) {
		return ErrIndexOutOfRange
	}
	c.Items = append(c.Items[:index], c.Items[index+1:]...)
	return nil
}

// UpdateWeight sets the weight of the line at index. Non-positive or NaN
// values are rejected.
func (c *Cart) UpdateWeight(index int, weight float64) error {
	if index < 0 || index >= len(c.Items) {
		return ErrIndexOutOfRange
	}
	if weight <= 0 || math.IsNaN(weight) {
		return ErrInvalidWeight
	}
	c.Items[index].Weight = weight
	return nil
}

// UpdateUnit switches the line at index to the new unit and re-derives the
// price per unit from the catalog. The old unit's price is never carried over.
func (c *Cart) UpdateUnit(index int, unit catalog.Unit, cat *catalog.Catalog) error {
	if index < 0 || index >= len(c.Items) {
		return ErrIndexOutOfRange
	}
	price, err := cat.PriceFor(c.Items[index].ProductID, unit)
	if err != nil {
		return err
	}
	c.Items[index].Unit = unit
	c.Items[index].PricePerUnit = price
	return nil
}

// Total returns the exact sum of weight * price per unit over all lines.
// Rounding happens only at display or order-creation time.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += item.Subtotal()
	}
	return total
}

// NormalizeWeight maps an empty or sub-minimum weight input to 1, matching
// the floor-at-1 behavior when a weight field is left blank.
func NormalizeWeight(weight float64) float64 {
	if weight < 1 || math.IsNaN(weight) {
		return 1
	}
	return weight
}
