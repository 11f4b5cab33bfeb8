// =============================================================================
// Load Export - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - normalize
//   - source
//   - converter
//   - iifwriter / qbowriter
//   - summary
//
// =============================================================================

package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RAW RECORDS
// =============================================================================

// RawRecord is one load record exactly as a producer wrote it. Field names
// drift between producer versions (compact-camel, underscore, legacy) and any
// field may be absent. RawRecords are read-only input.
type RawRecord map[string]any

// UnassignedProject is the project identifier used when a record carries none.
const UnassignedProject = "UNASSIGNED"

// DefaultMaterial is the material classification used when a record carries none.
const DefaultMaterial = "Mixed C&D"

// =============================================================================
// CANONICAL LOAD
// =============================================================================

// Load is the normalized representation of one transaction record.
// Loads are produced fresh per export call and never mutated afterwards.
type Load struct {
	// ID is the producer's record identifier.
	ID string

	// Date is the instant the load was recorded.
	Date time.Time

	// TicketNumber is the scale ticket printed at the receiving facility.
	TicketNumber string

	// Hauler is the trucking company that delivered the load.
	Hauler string

	// VehicleID identifies the truck.
	VehicleID string

	// WeightTons is the authoritative mass, already resolved from the tons
	// and pounds fields. Always non-negative.
	WeightTons decimal.Decimal

	// WeightLbs is informational only.
	WeightLbs decimal.Decimal

	// Material is the material classification.
	Material string

	// CO2AvoidedTons is the emissions avoided by diverting this load.
	CO2AvoidedTons decimal.Decimal

	// Hash is an opaque audit value carried through from the source record.
	Hash string

	// ProjectID is never empty; UnassignedProject when absent.
	ProjectID string

	// ProjectName is the display name of the project.
	ProjectName string

	// Notes is free text from the field crew.
	Notes string

	// Status is the producer's lifecycle status (draft, confirmed, ...).
	Status string
}

// Reference returns the ticket number, or the record ID when no ticket exists.
func (l Load) Reference() string {
	if l.TicketNumber != "" {
		return l.TicketNumber
	}
	return l.ID
}

// =============================================================================
// GROUPING TYPES
// =============================================================================

// ProjectGroup is a project paired with the raw records routed to it.
type ProjectGroup struct {
	// ProjectID is the grouping key.
	ProjectID string

	// ProjectName is taken from the first record observed for ProjectID.
	ProjectName string

	// Records are the raw records in arrival order.
	Records []RawRecord
}

// BillingBatch is the set of loads of one project sharing one invoice date.
// Each batch becomes exactly one invoice.
type BillingBatch struct {
	// Date is the batch key formatted as MM/DD/YYYY.
	Date string

	// Loads are in the order they appeared in the project group.
	Loads []Load
}
