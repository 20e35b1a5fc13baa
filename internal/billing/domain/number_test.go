package billing

import "testing"

func TestFormatInvoiceNumber(t *testing.T) {
	tests := []struct {
		prefix   string
		year     int
		sequence int
		want     string
	}{
		{"INV", 2024, 1, "INV-2024-001"},
		{"BILL", 2024, 42, "BILL-2024-042"},
		{"INV", 2025, 1000, "INV-2025-1000"},
		{"", 2024, 7, "INV-2024-007"},
	}

	for _, tc := range tests {
		if got := FormatInvoiceNumber(tc.prefix, tc.year, tc.sequence); got != tc.want {
			t.Errorf("FormatInvoiceNumber(%q, %d, %d) = %q, want %q", tc.prefix, tc.year, tc.sequence, got, tc.want)
		}
	}
}
