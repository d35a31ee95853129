package domain

import "time"

// User identifies the authenticated owner of the inventory. All records below
// are scoped to a single user by the remote service.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type Item struct {
	ID          string    `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	LocationID  string    `json:"locationId"`
	Quantity    int       `json:"quantity"`
	MinStock    int       `json:"minStock"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"imageUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// LowStock reports whether the item is at or below its restock threshold.
func (i Item) LowStock() bool {
	return i.Quantity <= i.MinStock
}

type Location struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Transaction struct {
	ID             string          `json:"id"`
	ItemID         string          `json:"itemId"`
	Type           TransactionType `json:"type"`
	QuantityChange int             `json:"quantityChange"`
	Notes          string          `json:"notes,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

// TransactionType is the closed set of stock movement kinds.
type TransactionType string

const (
	TransactionInbound    TransactionType = "INBOUND"
	TransactionOutbound   TransactionType = "OUTBOUND"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionInbound, TransactionOutbound, TransactionAdjustment:
		return true
	}
	return false
}

// Label returns the human-readable name used in activity views.
func (t TransactionType) Label() string {
	switch t {
	case TransactionInbound:
		return "Inbound"
	case TransactionOutbound:
		return "Outbound"
	case TransactionAdjustment:
		return "Adjustment"
	default:
		return "Unknown"
	}
}

// Sign returns the expected sign convention for the type's quantity change:
// +1 for inbound, -1 for outbound, 0 for adjustment (either sign allowed).
func (t TransactionType) Sign() int {
	switch t {
	case TransactionInbound:
		return 1
	case TransactionOutbound:
		return -1
	default:
		return 0
	}
}
