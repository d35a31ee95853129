package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ErrInvalidInput wraps all client-side validation failures so callers can
// distinguish them from remote errors without string matching.
var ErrInvalidInput = errors.New("invalid input")

// ItemInput is the caller-supplied payload for creating or updating an item.
// Server-assigned fields (id, timestamps) are never part of the input.
type ItemInput struct {
	SKU         string `json:"sku" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Category    string `json:"category" validate:"required"`
	LocationID  string `json:"locationId" validate:"required"`
	Quantity    int    `json:"quantity" validate:"min=0"`
	MinStock    int    `json:"minStock" validate:"min=0"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

func (in ItemInput) Validate() error {
	return checkStruct(in)
}

// TransactionInput is the payload for recording a stock movement. The server
// assigns the id; the timestamp is set by the caller when the movement is
// committed so the audit ordering matches the ledger's view.
type TransactionInput struct {
	ItemID         string          `json:"itemId" validate:"required"`
	Type           TransactionType `json:"type" validate:"required"`
	QuantityChange int             `json:"quantityChange"`
	Notes          string          `json:"notes,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

func (in TransactionInput) Validate() error {
	if err := checkStruct(in); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", ErrInvalidInput, in.Type)
	}
	return nil
}

type LocationInput struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description,omitempty"`
}

func (in LocationInput) Validate() error {
	return checkStruct(in)
}

func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields = append(fields, fmt.Sprintf("%s is required", fieldName(fe.Field())))
		case "min":
			fields = append(fields, fmt.Sprintf("%s must be at least %s", fieldName(fe.Field()), fe.Param()))
		default:
			fields = append(fields, fmt.Sprintf("%s is invalid", fieldName(fe.Field())))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(fields, ", "))
}

// fieldName lowercases the leading rune so messages read like form labels
// ("sku is required"), not Go identifiers.
func fieldName(s string) string {
	if s == "" {
		return s
	}
	if s == "SKU" {
		return "sku"
	}
	return strings.ToLower(s[:1]) + s[1:]
}
