// =============================================================================
// Load Export - IIF Writer (Format A)
// =============================================================================
//
// This module renders priced invoices as a QuickBooks Desktop IIF document.
// Numbering, batching and pricing happen upstream in the converter; this
// writer only lays out rows.
//
// IIF STRUCTURE:
//   !TRNS   TRNSTYPE DATE ACCNT NAME CLASS AMOUNT DOCNUM MEMO CLEAR TOPRINT TERMS
//   !SPL    TRNSTYPE DATE ACCNT NAME CLASS AMOUNT DOCNUM MEMO QNTY PRICE INVITEM
//   !ENDTRNS
//   TRNS    ... one per invoice, positive total
//   SPL     ... one per load, negated amount (income is a credit)
//   ENDTRNS
//
// Fields are tab-separated and every row, including the last, ends in CRLF.
//
// =============================================================================

package iifwriter

import (
	"bufio"
	"io"
	"strings"

	"github.com/ginjaninja78/loadexport/internal/converter"
)

// =============================================================================
// SETTINGS
// =============================================================================

// Settings holds the account and item names written on every invoice.
type Settings struct {
	// ReceivableAccount is debited by each TRNS row.
	ReceivableAccount string

	// IncomeAccount is credited by each SPL row.
	IncomeAccount string

	// Terms is the payment terms name.
	Terms string

	// ServiceItem is the item every load is billed as.
	ServiceItem string

	// MemoPrefix starts the TRNS memo; the invoice date is appended.
	MemoPrefix string
}

// DefaultSettings returns the standard account layout.
func DefaultSettings() Settings {
	return Settings{
		ReceivableAccount: "Accounts Receivable",
		IncomeAccount:     "C&D Disposal Income",
		Terms:             "Net 30",
		ServiceItem:       "C&D Disposal",
		MemoPrefix:        "C&D disposal loads",
	}
}

const (
	lineEnd   = "\r\n"
	separator = "\t"
)

var headerRows = [][]string{
	{"!TRNS", "TRNSTYPE", "DATE", "ACCNT", "NAME", "CLASS", "AMOUNT", "DOCNUM", "MEMO", "CLEAR", "TOPRINT", "TERMS"},
	{"!SPL", "TRNSTYPE", "DATE", "ACCNT", "NAME", "CLASS", "AMOUNT", "DOCNUM", "MEMO", "QNTY", "PRICE", "INVITEM"},
	{"!ENDTRNS"},
}

// =============================================================================
// RENDERING
// =============================================================================

// Render returns the complete IIF document for invoices.
func Render(invoices []converter.Invoice, s Settings) string {
	var b strings.Builder
	// strings.Builder never returns a write error.
	_ = Write(&b, invoices, s)
	return b.String()
}

// Write streams the IIF document for invoices to w.
//
// PARAMETERS:
//   - w: The destination.
//   - invoices: Priced invoices from converter.Run.
//   - s: Account and item names.
//
// RETURNS:
//   - The first write error, if any.
func Write(w io.Writer, invoices []converter.Invoice, s Settings) error {
	bw := bufio.NewWriter(w)

	for _, row := range headerRows {
		writeRow(bw, row...)
	}

	for _, inv := range invoices {
		writeRow(bw,
			"TRNS",
			"INVOICE",
			inv.Date,
			clean(s.ReceivableAccount),
			clean(inv.Customer),
			clean(inv.Class),
			inv.Total.StringFixed(2),
			inv.Number,
			clean(s.MemoPrefix+" "+inv.Date),
			"N",
			"Y",
			clean(s.Terms),
		)

		for _, line := range inv.Lines {
			writeRow(bw,
				"SPL",
				"INVOICE",
				inv.Date,
				clean(s.IncomeAccount),
				clean(inv.Customer),
				clean(inv.Class),
				line.Amount.Neg().StringFixed(2),
				inv.Number,
				clean(converter.Narrative(line.Load, true)),
				line.Quantity.StringFixed(4),
				line.Rate.StringFixed(2),
				clean(s.ServiceItem),
			)
		}

		writeRow(bw, "ENDTRNS")
	}

	return bw.Flush()
}

// writeRow relies on bufio.Writer's sticky error; Flush reports it.
func writeRow(w *bufio.Writer, fields ...string) {
	w.WriteString(strings.Join(fields, separator))
	w.WriteString(lineEnd)
}

var fieldCleaner = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ")

// clean keeps free text from breaking the row structure.
func clean(s string) string {
	return fieldCleaner.Replace(s)
}
