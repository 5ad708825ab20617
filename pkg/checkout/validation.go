// Package checkout holds request-independent checks shared by the checkout
// flow and its HTTP layer.
package checkout

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/stylebazaar/stylebazaar-backend/pkg/errors"
)

// StockValidationInput describes one cart line to check against stock.
type StockValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Available   int
	Quantity    int
}

// StockShortfall is returned to callers for each line that cannot be filled.
type StockShortfall struct {
	ProductID    uuid.UUID `json:"product_id"`
	ProductName  string    `json:"product_name,omitempty"`
	Available    int       `json:"available"`
	RequestedQty int       `json:"requested_qty"`
}

// ValidateStock reports every line whose quantity exceeds the available stock.
// It is a fast pre-check; the conditional decrement in the order transaction
// remains the authority under concurrency.
func ValidateStock(items []StockValidationInput) error {
	var shortfalls []StockShortfall
	for _, item := range items {
		if item.Quantity <= item.Available {
			continue
		}
		shortfalls = append(shortfalls, StockShortfall{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Available:    item.Available,
			RequestedQty: item.Quantity,
		})
	}
	if len(shortfalls) == 0 {
		return nil
	}
	message := fmt.Sprintf("Not enough stock for %d item(s) in your cart.", len(shortfalls))
	if len(shortfalls) == 1 {
		s := shortfalls[0]
		message = fmt.Sprintf("Only %d of %s left in stock.", s.Available, s.ProductName)
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, message).WithDetails(map[string]any{
		"shortfalls": shortfalls,
	})
}

// DeliveryInput is the buyer-supplied shipping block of a checkout.
type DeliveryInput struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	City     string
}

// ValidateDelivery lists missing shipping fields in one validation error.
func ValidateDelivery(input DeliveryInput) error {
	fields := map[string]string{
		"full_name": input.FullName,
		"email":     input.Email,
		"phone":     input.Phone,
		"address":   input.Address,
		"city":      input.City,
	}
	missing := make([]string, 0)
	for _, name := range []string{"full_name", "email", "phone", "address", "city"} {
		if fields[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "Please fill in all delivery details.").WithDetails(map[string]any{
		"missing": missing,
	})
}
