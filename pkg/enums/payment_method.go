package enums

import "fmt"

// PaymentMethod describes how a buyer settles an order.
type PaymentMethod string

const (
	PaymentMethodAirtelMoney PaymentMethod = "airtelmoney"
	PaymentMethodMTN         PaymentMethod = "mtn"
	PaymentMethodZamtel      PaymentMethod = "zamtel"
	PaymentMethodCash        PaymentMethod = "cash"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodAirtelMoney,
	PaymentMethodMTN,
	PaymentMethodZamtel,
	PaymentMethodCash,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsMobileMoney reports whether the method is settled through a mobile wallet.
func (p PaymentMethod) IsMobileMoney() bool {
	return p == PaymentMethodAirtelMoney || p == PaymentMethodMTN || p == PaymentMethodZamtel
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
