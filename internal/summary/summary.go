// =============================================================================
// Load Export - Summary Aggregator
// =============================================================================
//
// This module computes per-project totals from grouped raw records. It runs on
// the same grouped and normalized data as the serializers but never reads
// their output, so every format reports the same totals.
//
// PER PROJECT:
//   - load count
//   - total tons (sum of resolved tons, 2 decimals)
//   - revenue (total tons x rate, currency formatted)
//   - emissions avoided (sum, 2 decimals, "tons CO2e")
//
// =============================================================================

package summary

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ginjaninja78/loadexport/internal/converter"
	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// EmissionsUnit labels the emissions-avoided figure.
const EmissionsUnit = "tons CO2e"

// ProjectSummary is the aggregate for one project. The text fields carry
// the display form; the decimal fields carry the exact values.
type ProjectSummary struct {
	ProjectID        string `json:"projectId"`
	ProjectName      string `json:"projectName"`
	LoadCount        int    `json:"loadCount"`
	TotalTons        string `json:"totalTons"`
	Revenue          string `json:"revenue"`
	EmissionsAvoided string `json:"emissionsAvoided"`

	Tons          decimal.Decimal `json:"-"`
	RevenueAmount decimal.Decimal `json:"-"`
	CO2Avoided    decimal.Decimal `json:"-"`
}

// =============================================================================
// AGGREGATION
// =============================================================================

// Aggregate computes one summary per group, in group order.
//
// PARAMETERS:
//   - groups: Project groups from converter.GroupByProject.
//   - n: The normalizer used for the groups' records.
//   - rate: Price per resolved ton.
//
// RETURNS:
//   - One ProjectSummary per group. Absent values count as zero.
func Aggregate(groups []types.ProjectGroup, n *normalize.Normalizer, rate decimal.Decimal) []ProjectSummary {
	out := make([]ProjectSummary, 0, len(groups))
	for _, g := range groups {
		tons := decimal.Zero
		co2 := decimal.Zero
		loads := converter.NormalizeGroup(g, n)
		for _, l := range loads {
			tons = tons.Add(l.WeightTons)
			co2 = co2.Add(l.CO2AvoidedTons)
		}
		out = append(out, build(g.ProjectID, g.ProjectName, len(loads), tons, co2, rate))
	}
	return out
}

// AggregateRecords groups records and aggregates them.
func AggregateRecords(records []types.RawRecord, n *normalize.Normalizer, rate decimal.Decimal) []ProjectSummary {
	return Aggregate(converter.GroupByProject(records, n), n, rate)
}

// Total folds summaries into a single row labeled "All projects".
func Total(summaries []ProjectSummary, rate decimal.Decimal) ProjectSummary {
	count := 0
	tons := decimal.Zero
	co2 := decimal.Zero
	for _, s := range summaries {
		count += s.LoadCount
		tons = tons.Add(s.Tons)
		co2 = co2.Add(s.CO2Avoided)
	}
	return build("", "All projects", count, tons, co2, rate)
}

func build(id, name string, count int, tons, co2, rate decimal.Decimal) ProjectSummary {
	revenue := tons.Mul(rate).Round(2)
	return ProjectSummary{
		ProjectID:        id,
		ProjectName:      name,
		LoadCount:        count,
		TotalTons:        tons.StringFixed(2),
		Revenue:          FormatCurrency(revenue),
		EmissionsAvoided: co2.StringFixed(2) + " " + EmissionsUnit,
		Tons:             tons,
		RevenueAmount:    revenue,
		CO2Avoided:       co2,
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders d as US dollars with thousands grouping, for
// example "$1,437.50". The integer part goes through the locale printer;
// cents are taken from the exact decimal so no float rounding applies.
func FormatCurrency(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	d = d.Round(2)
	fixed := d.StringFixed(2)
	cents := fixed[strings.LastIndexByte(fixed, '.')+1:]
	return sign + printer.Sprintf("$%d.%s", d.IntPart(), cents)
}
