package checkout

import (
	"errors"
	"fmt"
	"net/mail"

	"github.com/example/scaffold-shop/internal/payment"
)

var (
	ErrValidation = errors.New("checkout validation failed")
	ErrEmptyCart  = errors.New("cart is empty")
)

// Data is the contact and shipping capture held between checkout submission
// and payment completion.
type Data struct {
	Email           string          `json:"email"`
	ShippingAddress payment.Address `json:"shippingAddress"`
}

// Validate checks required contact and address fields.
func (d Data) Validate() error {
	if d.Email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	if _, err := mail.ParseAddress(d.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	required := map[string]string{
		"street":  d.ShippingAddress.Street,
		"city":    d.ShippingAddress.City,
		"state":   d.ShippingAddress.State,
		"zip":     d.ShippingAddress.Zip,
		"country": d.ShippingAddress.Country,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s is required", ErrValidation, field)
		}
	}
	return nil
}
