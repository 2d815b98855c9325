package reconcile

import "strings"

// billPaymentPatterns are the description substrings that mark a bank
// transaction as a credit-card statement payment. Matching is
// case-insensitive.
var billPaymentPatterns = []string{
	"pagamento de fatura",
	"pagamento fatura",
	"pgto fatura",
	"bill payment",
	"card statement",
	"credit card payment",
}

// LooksLikeBillPayment reports whether a transaction description matches the
// bill payment heuristic used by the creation hook.
func LooksLikeBillPayment(description string) bool {
	lower := strings.ToLower(description)
	for _, pattern := range billPaymentPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
