// =============================================================================
// Load Export - Invoice Stage
// =============================================================================
//
// This module contains the format-independent half of both interchange
// serializers. It turns a resolved set of raw records into numbered invoices
// with priced lines; the IIF and QBO writers only render what it produces.
//
// PIPELINE:
//   1. Group raw records by project
//   2. Normalize each group's records into canonical loads
//   3. Batch each group's loads by calendar date
//   4. Number one invoice per batch from a single per-call counter
//   5. Price every line (tons x rate, rounded to cents) and total the invoice
//      from its own line amounts
//
// CONCURRENCY:
//   A Converter holds only read-only settings. Every Run allocates its own
//   counter and slices, so concurrent runs never share mutable state.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options holds the billing constants applied to every invoice.
type Options struct {
	// Rate is the price per resolved ton.
	Rate decimal.Decimal

	// InvoicePrefix is prepended to every invoice number.
	InvoicePrefix string

	// InvoiceStart seeds the invoice counter for each run.
	InvoiceStart int

	// DueDays is added to the invoice date to produce the due date.
	DueDays int

	// Location is the time zone in which load dates are batched.
	Location *time.Location
}

// DefaultOptions returns the standard billing constants.
func DefaultOptions() Options {
	return Options{
		Rate:          decimal.RequireFromString("125.00"),
		InvoicePrefix: "INV-",
		InvoiceStart:  1001,
		DueDays:       30,
		Location:      time.Local,
	}
}

// =============================================================================
// OUTPUT STRUCTURES
// =============================================================================

// Invoice is one billing batch, numbered and priced.
type Invoice struct {
	// Number is the prefixed document number, e.g. "INV-1001".
	Number string

	// ProjectID is the grouping key of the project billed.
	ProjectID string

	// Customer is the project display name.
	Customer string

	// Class is the customer name reduced to letters, digits, spaces and hyphens.
	Class string

	// Date is the invoice date (MM/DD/YYYY).
	Date string

	// DueDate is Date plus the configured due days (MM/DD/YYYY).
	DueDate string

	// Lines holds one priced line per load, in load order.
	Lines []Line

	// Total is the exact sum of the line amounts.
	Total decimal.Decimal
}

// Line is one load priced at the per-ton rate.
type Line struct {
	Load types.Load

	// Quantity is the resolved tons.
	Quantity decimal.Decimal

	// Rate is the per-ton price the line was billed at.
	Rate decimal.Decimal

	// Amount is Quantity x Rate rounded to cents.
	Amount decimal.Decimal
}

// Document is the result of one conversion run.
type Document struct {
	// Groups are the project groups the invoices were built from.
	Groups []types.ProjectGroup

	// Invoices are ordered by project first appearance, then batch date
	// first appearance.
	Invoices []Invoice

	// LoadCount is the number of loads across all invoices.
	LoadCount int
}

// =============================================================================
// CONVERTER
// =============================================================================

// Converter builds invoices from raw records.
type Converter struct {
	opts       Options
	normalizer *normalize.Normalizer
}

// New creates a Converter. A nil normalizer uses the built-in alias table.
// The normalizer reads zoneless load dates in opts.Location, the same zone
// the batches are keyed in.
func New(n *normalize.Normalizer, opts Options) *Converter {
	if n == nil {
		n = normalize.New()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Converter{opts: opts, normalizer: n.In(opts.Location)}
}

// Options returns the billing constants the converter was built with.
func (c *Converter) Options() Options {
	return c.opts
}

// Normalizer returns the normalizer used for grouping and normalization.
func (c *Converter) Normalizer() *normalize.Normalizer {
	return c.normalizer
}

// Run groups, normalizes, batches and prices records.
//
// PARAMETERS:
//   - records: The resolved raw records for one export call.
//
// RETURNS:
//   - A Document whose invoices are numbered from Options.InvoiceStart.
func (c *Converter) Run(records []types.RawRecord) *Document {
	doc := &Document{
		Groups: GroupByProject(records, c.normalizer),
	}

	next := c.opts.InvoiceStart
	for _, g := range doc.Groups {
		loads := NormalizeGroup(g, c.normalizer)
		doc.LoadCount += len(loads)

		for _, batch := range BatchByDate(loads, c.opts.Location) {
			inv := c.buildInvoice(g, batch, next)
			doc.Invoices = append(doc.Invoices, inv)
			next++
		}
	}

	return doc
}

// buildInvoice prices one batch. The invoice total is accumulated from the
// already-rounded line amounts so header and detail rows always agree.
func (c *Converter) buildInvoice(g types.ProjectGroup, batch types.BillingBatch, number int) Invoice {
	inv := Invoice{
		Number:    fmt.Sprintf("%s%d", c.opts.InvoicePrefix, number),
		ProjectID: g.ProjectID,
		Customer:  g.ProjectName,
		Class:     ClassName(g.ProjectName),
		Date:      batch.Date,
		DueDate:   c.dueDate(batch.Date),
		Lines:     make([]Line, 0, len(batch.Loads)),
		Total:     decimal.Zero,
	}

	for _, l := range batch.Loads {
		amount := LineAmount(l.WeightTons, c.opts.Rate)
		inv.Lines = append(inv.Lines, Line{
			Load:     l,
			Quantity: l.WeightTons,
			Rate:     c.opts.Rate,
			Amount:   amount,
		})
		inv.Total = inv.Total.Add(amount)
	}

	return inv
}

func (c *Converter) dueDate(date string) string {
	d, err := time.ParseInLocation(BatchDateLayout, date, c.opts.Location)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, c.opts.DueDays).Format(BatchDateLayout)
}

// =============================================================================
// SHARED FIELD RULES
// =============================================================================

// LineAmount prices tons at rate, rounded to cents.
func LineAmount(tons, rate decimal.Decimal) decimal.Decimal {
	return tons.Mul(rate).Round(2)
}

var classStrip = regexp.MustCompile(`[^A-Za-z0-9 \-]`)

// ClassName strips everything except letters, digits, spaces and hyphens
// from a project name and trims the result.
func ClassName(projectName string) string {
	return strings.TrimSpace(classStrip.ReplaceAllString(projectName, ""))
}

// Narrative composes a detail line's text: reference, material, hauler when
// present and, when withHash is set, the first 8 characters of the integrity
// hash when present.
func Narrative(l types.Load, withHash bool) string {
	parts := make([]string, 0, 4)
	if ref := l.Reference(); ref != "" {
		parts = append(parts, ref)
	}
	parts = append(parts, l.Material)
	if l.Hauler != "" {
		parts = append(parts, l.Hauler)
	}
	if withHash && l.Hash != "" {
		parts = append(parts, ShortHash(l.Hash))
	}
	return strings.Join(parts, " - ")
}

// ShortHash returns at most the first 8 characters of h.
func ShortHash(h string) string {
	r := []rune(h)
	if len(r) > 8 {
		return string(r[:8])
	}
	return h
}
