package order

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/scaffold-shop/internal/catalog"
	"github.com/google/uuid"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrDuplicateSession  = errors.New("order already exists for payment session")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid order status transition")

	// Reconciliation failure taxonomy.
	ErrSessionLookup     = errors.New("payment session lookup failed")
	ErrPaymentIncomplete = errors.New("payment is not completed")
	ErrMetadataCorrupt   = errors.New("payment session metadata is corrupt")
)

var allStatuses = map[Status]bool{
	StatusPending:    true,
	StatusPaid:       true,
	StatusProcessing: true,
	StatusShipped:    true,
	StatusDelivered:  true,
	StatusCancelled:  true,
}

// ValidStatus reports whether s is a known order status.
func ValidStatus(s Status) bool {
	return allStatuses[s]
}

// validTransitions defines allowed state transitions
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCancelled},
	StatusPaid:       {StatusProcessing, StatusShipped, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusDelivered:  {}, // terminal state
	StatusCancelled:  {}, // terminal state
}

// Item is one line of a persisted order.
type Item struct {
	ProductID    int          `json:"id"`
	Name         string       `json:"name"`
	Weight       float64      `json:"weight"`
	Unit         catalog.Unit `json:"unit"`
	PricePerUnit float64      `json:"pricePerUnit"`
}

// Address is the shipping address recorded on the order.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// PaymentInfo records how the order was paid.
type PaymentInfo struct {
	SessionID     string    `json:"sessionId"`
	PaymentStatus string    `json:"paymentStatus"`
	PaymentMethod string    `json:"paymentMethod"`
	PaidAt        time.Time `json:"paidAt"`
}

// Order is the durable order record. It is created exactly once, at
// reconciliation time, and mutated afterwards only through status updates.
type Order struct {
	OrderID         string      `json:"orderId"`
	CustomerEmail   string      `json:"customerEmail"`
	Items           []Item      `json:"items"`
	TotalAmount     float64     `json:"totalAmount"`
	Status          Status      `json:"status"`
	ShippingAddress Address     `json:"shippingAddress"`
	PaymentInfo     PaymentInfo `json:"paymentInfo"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// Total computes the sum of weight * pricePerUnit over the items, rounded to two
// decimals.
func Total(items []Item) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Weight * item.PricePerUnit
	}
	return RoundAmount(sum)
}

// RoundAmount rounds a money amount to two decimals.
func RoundAmount(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// NewOrderID generates an order id from the current timestamp plus a random
// token.
func NewOrderID() string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", time.Now().UnixMilli(), token)
}

// MatchesFilter reports whether the order matches a case-insensitive
// substring search on order id or customer email, plus an exact status
// filter. Empty search matches everything; empty or "all" status matches any
// status.
func (o *Order) MatchesFilter(search string, status Status) bool {
	if status != "" && status != "all" && o.Status != status {
		return false
	}
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(o.OrderID), needle) ||
		strings.Contains(strings.ToLower(o.CustomerEmail), needle)
}

// Filter returns the orders matching the search term and status filter.
func Filter(orders []Order, search string, status Status) []Order {
	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.MatchesFilter(search, status) {
			out = append(out, o)
		}
	}
	return out
}
