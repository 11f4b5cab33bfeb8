// =============================================================================
// Load Export - QBO CSV Writer (Format B)
// =============================================================================
//
// This module renders priced invoices as a QuickBooks Online invoice-import
// CSV. There is no separate invoice header row: every load row repeats its
// invoice number, and the importer groups rows by it.
//
// QUOTING:
//   Every text field is wrapped in double quotes with embedded quotes doubled.
//   Numeric fields (quantity, rate, amount, CO2) are written bare. This mixed
//   rule is why encoding/csv, which only quotes when needed, is not used.
//
// Every row, including the last, ends in CRLF.
//
// =============================================================================

package qbowriter

import (
	"bufio"
	"io"
	"strings"

	"github.com/ginjaninja78/loadexport/internal/converter"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// Settings holds the fixed text written on every row.
type Settings struct {
	Terms           string
	Item            string
	ComplianceLabel string
	Memo            string
}

// DefaultSettings returns the standard row text.
func DefaultSettings() Settings {
	return Settings{
		Terms:           "Net 30",
		Item:            "C&D Disposal",
		ComplianceLabel: "C&D Diversion",
		Memo:            "Exported by loadexport",
	}
}

// Columns is the header row, in output order.
var Columns = []string{
	"InvoiceNo",
	"Customer",
	"InvoiceDate",
	"DueDate",
	"Terms",
	"Item(Product/Service)",
	"ItemDescription",
	"ItemQuantity",
	"ItemRate",
	"ItemAmount",
	"Class",
	"Memo",
	"IntegrityHash",
	"TicketNumber",
	"Material",
	"Hauler",
	"VehicleID",
	"CO2AvoidedTons",
}

const lineEnd = "\r\n"

// Render returns the complete CSV document for invoices.
func Render(invoices []converter.Invoice, s Settings) string {
	var b strings.Builder
	_ = Write(&b, invoices, s)
	return b.String()
}

// Write streams the CSV document for invoices to w.
func Write(w io.Writer, invoices []converter.Invoice, s Settings) error {
	bw := bufio.NewWriter(w)

	header := make([]string, len(Columns))
	for i, c := range Columns {
		header[i] = Quote(c)
	}
	writeRow(bw, header)

	for _, inv := range invoices {
		for _, line := range inv.Lines {
			l := line.Load
			writeRow(bw, []string{
				Quote(inv.Number),
				Quote(inv.Customer),
				Quote(inv.Date),
				Quote(inv.DueDate),
				Quote(s.Terms),
				Quote(s.Item),
				Quote(Description(s.ComplianceLabel, l)),
				line.Quantity.StringFixed(4),
				line.Rate.StringFixed(2),
				line.Amount.StringFixed(2),
				Quote(inv.Class),
				Quote(s.Memo),
				Quote(l.Hash),
				Quote(l.Reference()),
				Quote(l.Material),
				Quote(l.Hauler),
				Quote(l.VehicleID),
				l.CO2AvoidedTons.StringFixed(4),
			})
		}
	}

	return bw.Flush()
}

// Description composes the item description:
// "<label> - Load <reference> - <material>[ - <hauler>]".
func Description(label string, l types.Load) string {
	parts := []string{label, "Load " + l.Reference(), l.Material}
	if l.Hauler != "" {
		parts = append(parts, l.Hauler)
	}
	return strings.Join(parts, " - ")
}

// Quote wraps s in double quotes, doubling any quote inside it.
func Quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func writeRow(w *bufio.Writer, fields []string) {
	w.WriteString(strings.Join(fields, ","))
	w.WriteString(lineEnd)
}
