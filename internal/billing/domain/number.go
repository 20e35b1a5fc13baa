package billing

import "fmt"

// DefaultInvoicePrefix applies when a team has not configured its own prefix.
const DefaultInvoicePrefix = "INV"

// FormatInvoiceNumber renders a team-scoped sequential invoice number, e.g.
// "INV-2024-007". The sequence is derived from a live count of the team's
// invoices; concurrent generators for different reading groups can observe
// the same count, so the number is a display sequence, not a unique key.
func FormatInvoiceNumber(prefix string, issueYear, sequence int) string {
	if prefix == "" {
		prefix = DefaultInvoicePrefix
	}
	return fmt.Sprintf("%s-%d-%03d", prefix, issueYear, sequence)
}
