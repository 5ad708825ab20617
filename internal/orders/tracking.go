package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewTrackingNumber builds a buyer-facing order reference such as
// "SB-20261017-3F9A0C1D". The date is the UTC placement date.
func NewTrackingNumber(now time.Time) string {
	return fmt.Sprintf("SB-%s-%s", now.UTC().Format("20060102"), randomSuffix(8))
}

// NewPaymentReference builds the reference recorded for a simulated payment.
func NewPaymentReference() string {
	return "PAY-" + randomSuffix(12)
}

func randomSuffix(n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:n])
}
