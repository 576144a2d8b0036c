package catalog

import "errors"

// Unit is the weight unit a product is priced in.
type Unit string

const (
	UnitKg Unit = "kg"
	UnitLb Unit = "lb"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == UnitKg || u == UnitLb
}

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidUnit     = errors.New("invalid unit")
)

// Product is a purchasable catalog entry. Stock is always denominated in
// kilograms; the unit only affects pricing and display.
type Product struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PricePerKg  float64 `json:"pricePerKg"`
	PricePerLb  float64 `json:"pricePerLb"`
	Image       string  `json:"image"`
	Category    string  `json:"category"`
	Stock       int     `json:"stock"`
}

// PriceFor returns the product's price for the given unit.
func (p Product) PriceFor(unit Unit) (float64, error) {
	switch unit {
	case UnitKg:
		return p.PricePerKg, nil
	case UnitLb:
		return p.PricePerLb, nil
	default:
		return 0, ErrInvalidUnit
	}
}

// Catalog is the static product list. The storefront sells a fixed set of
// scaffolding materials; there is no product CRUD.
type Catalog struct {
	products []Product
}

// New returns the catalog with the default product list.
func New() *Catalog {
	return &Catalog{products: defaultProducts}
}

// NewWithProducts returns a catalog backed by a custom product list.
func NewWithProducts(products []Product) *Catalog {
	return &Catalog{products: products}
}

// List returns all products.
func (c *Catalog) List() []Product {
	out := make([]Product, len(c.products))
	copy(out, c.products)
	return out
}

// GetByID returns the product with the given id.
func (c *Catalog) GetByID(id int) (Product, error) {
	for _, p := range c.products {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrProductNotFound
}

// ByCategory returns all products in the given category.
func (c *Catalog) ByCategory(category string) []Product {
	var out []Product
	for _, p := range c.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// PriceFor looks up the product and returns its price for the given unit.
func (c *Catalog) PriceFor(id int, unit Unit) (float64, error) {
	p, err := c.GetByID(id)
	if err != nil {
		return 0, err
	}
	return p.PriceFor(unit)
}

var defaultProducts = []Product{
	{
		ID:          1,
		Name:        "MS Scaffolding Pipes",
		Description: "High-quality mild steel scaffolding pipes available in various sizes - durable and corrosion resistant",
		PricePerKg:  2.50,
		PricePerLb:  1.13,
		Image:       "/images/ms-pipes.jpg",
		Category:    "Pipes",
		Stock:       5000,
	},
	{
		ID:          2,
		Name:        "Scaffold Clamps & Couplers",
		Description: "Heavy-duty scaffolding clamps and couplers - secure connections for safe construction",
		PricePerKg:  3.80,
		PricePerLb:  1.72,
		Image:       "/images/scaffold-clamps.jpg",
		Category:    "Accessories",
		Stock:       10000,
	},
	{
		ID:          3,
		Name:        "Complete Scaffold Frame System",
		Description: "Pre-assembled scaffold frame system with adjustable height - perfect for construction projects",
		PricePerKg:  2.20,
		PricePerLb:  1.00,
		Image:       "/images/scaffold-frame.jpg",
		Category:    "Systems",
		Stock:       50000,
	},
	{
		ID:          4,
		Name:        "Professional Scaffold Structure",
		Description: "Complete scaffolding structure package with pipes, clamps, and platforms - ready to install",
		PricePerKg:  2.10,
		PricePerLb:  0.95,
		Image:       "/images/scaffold-structure.jpg",
		Category:    "Systems",
		Stock:       75000,
	},
	{
		ID:          5,
		Name:        "Bulk Scaffolding Materials",
		Description: "Wholesale scaffolding pipes and materials - perfect for large construction projects",
		PricePerKg:  1.90,
		PricePerLb:  0.86,
		Image:       "/images/scaffolding-yard.jpg",
		Category:    "Bulk",
		Stock:       100000,
	},
}
