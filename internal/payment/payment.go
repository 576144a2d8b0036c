package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/example/scaffold-shop/internal/cart"
	"github.com/example/scaffold-shop/internal/catalog"
)

// PaymentStatusPaid is the provider's terminal status for a completed payment.
const PaymentStatusPaid = "paid"

var ErrEmptyItems = errors.New("payment session requires at least one item")

// Address is the shipping address snapshot attached to a session.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// LineItem is the item shape stored in session metadata. Images are stripped
// to keep the metadata under the provider's size cap.
type LineItem struct {
	ProductID    int          `json:"id"`
	Name         string       `json:"name"`
	Weight       float64      `json:"weight"`
	Unit         catalog.Unit `json:"unit"`
	PricePerUnit float64      `json:"pricePerUnit"`
}

// CreateSessionRequest carries everything the bridge needs to open a hosted
// checkout session.
type CreateSessionRequest struct {
	Items           []cart.Item
	CustomerEmail   string
	ShippingAddress Address
}

// Session is the provider session view the rest of the system works with.
type Session struct {
	ID            string
	URL           string
	CustomerEmail string
	PaymentStatus string
	AmountTotal   int64
	Metadata      map[string]string
}

// Client creates and retrieves hosted checkout sessions. Creation is not
// idempotent: repeated calls open distinct sessions, so callers must not
// blindly retry.
type Client interface {
	CreateSession(ctx context.Context, req CreateSessionRequest) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
}

// UnitAmount converts a cart line to the provider's integer minor units:
// round(weight * pricePerUnit * 100). The weight is pre-multiplied into the
// amount and quantity stays 1, so quantity never double-counts.
func UnitAmount(item cart.Item) int64 {
	return int64(math.Round(item.Weight * item.PricePerUnit * 100))
}

// Metadata is the decoded snapshot of order content carried on a session.
// Between session creation and order creation it is the only durable record
// of what was bought.
type Metadata struct {
	CustomerEmail   string
	ShippingAddress Address
	Items           []LineItem
	ItemCount       int
	OrderDate       time.Time
}

const (
	metaKeyCustomerEmail   = "customerEmail"
	metaKeyShippingAddress = "shippingAddress"
	metaKeyItems           = "items"
	metaKeyItemCount       = "itemCount"
	metaKeyOrderDate       = "orderDate"
)

// BuildMetadata serializes the order snapshot for session creation. Item
// images are dropped here.
func BuildMetadata(req CreateSessionRequest, now time.Time) (map[string]string, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}

	stripped := make([]LineItem, len(req.Items))
	for i, item := range req.Items {
		stripped[i] = LineItem{
			ProductID:    item.ProductID,
			Name:         item.Name,
			Weight:       item.Weight,
			Unit:         item.Unit,
			PricePerUnit: item.PricePerUnit,
		}
	}

	itemsJSON, err := json.Marshal(stripped)
	if err != nil {
		return nil, fmt.Errorf("marshal items: %w", err)
	}
	addressJSON, err := json.Marshal(req.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("marshal shipping address: %w", err)
	}

	return map[string]string{
		metaKeyCustomerEmail:   req.CustomerEmail,
		metaKeyShippingAddress: string(addressJSON),
		metaKeyItems:           string(itemsJSON),
		metaKeyItemCount:       strconv.Itoa(len(req.Items)),
		metaKeyOrderDate:       now.UTC().Format(time.RFC3339),
	}, nil
}

// ParseMetadata decodes the snapshot back out of a retrieved session.
func ParseMetadata(meta map[string]string) (*Metadata, error) {
	if meta == nil {
		return nil, errors.New("session has no metadata")
	}

	var items []LineItem
	if err := json.Unmarshal([]byte(meta[metaKeyItems]), &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	if len(items) == 0 {
		return nil, errors.New("metadata contains no items")
	}

	var address Address
	if err := json.Unmarshal([]byte(meta[metaKeyShippingAddress]), &address); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}

	email := meta[metaKeyCustomerEmail]
	if email == "" {
		return nil, errors.New("metadata missing customer email")
	}

	out := &Metadata{
		CustomerEmail:   email,
		ShippingAddress: address,
		Items:           items,
	}
	if raw := meta[metaKeyItemCount]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			out.ItemCount = n
		}
	}
	if raw := meta[metaKeyOrderDate]; raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			out.OrderDate = ts
		}
	}
	return out, nil
}
