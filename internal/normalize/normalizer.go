// Package normalize maps schema-drifted raw load records onto the canonical
// Load shape. Normalization never fails: every attribute has a defined default.
package normalize

import (
	"strings"
	"time"

	"github.com/ginjaninja78/loadexport/internal/types"
)

// Normalizer resolves raw records against an alias table.
// It is safe for concurrent use once constructed.
type Normalizer struct {
	aliases map[Field][]string
	now     func() time.Time
	loc     *time.Location
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithExtraAliases appends configured keys after the built-in aliases.
// Keys are indexed by canonical field name (e.g. "ticketNumber").
func WithExtraAliases(extra map[string][]string) Option {
	return func(n *Normalizer) {
		n.aliases = mergeAliases(extra)
	}
}

// WithClock sets the clock used for records with no usable date.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// WithLocation sets the zone for dates written without an offset.
// Default: UTC.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.loc = loc
		}
	}
}

// New creates a Normalizer with the built-in alias table.
func New(opts ...Option) *Normalizer {
	n := &Normalizer{
		aliases: mergeAliases(nil),
		now:     time.Now,
		loc:     time.UTC,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// In returns a copy of n that reads zoneless dates in loc.
func (n *Normalizer) In(loc *time.Location) *Normalizer {
	c := *n
	if loc != nil {
		c.loc = loc
	}
	return &c
}

var std = New()

// Normalize converts rec using the built-in alias table.
func Normalize(rec types.RawRecord) types.Load {
	return std.Normalize(rec)
}

// Normalize converts one raw record into a canonical Load.
func (n *Normalizer) Normalize(rec types.RawRecord) types.Load {
	tons := NonNegative(n.lookup(rec, FieldTons))
	lbs := NonNegative(n.lookup(rec, FieldLbs))

	material := String(n.lookup(rec, FieldMaterial))
	if material == "" {
		material = types.DefaultMaterial
	}

	return types.Load{
		ID:             String(n.lookup(rec, FieldID)),
		Date:           TimeIn(n.lookup(rec, FieldDate), n.now(), n.loc),
		TicketNumber:   String(n.lookup(rec, FieldTicket)),
		Hauler:         String(n.lookup(rec, FieldHauler)),
		VehicleID:      String(n.lookup(rec, FieldVehicle)),
		WeightTons:     ResolveTons(tons, lbs),
		WeightLbs:      lbs,
		Material:       material,
		CO2AvoidedTons: NonNegative(n.lookup(rec, FieldCO2)),
		Hash:           String(n.lookup(rec, FieldHash)),
		ProjectID:      n.ProjectID(rec),
		ProjectName:    String(n.lookup(rec, FieldProjectName)),
		Notes:          String(n.lookup(rec, FieldNotes)),
		Status:         String(n.lookup(rec, FieldStatus)),
	}
}

// ProjectID resolves the project identifier of rec, falling back to
// types.UnassignedProject. Grouping and normalization both use this method,
// so a record's grouping key always equals its normalized project ID.
func (n *Normalizer) ProjectID(rec types.RawRecord) string {
	if id := String(n.lookup(rec, FieldProjectID)); id != "" {
		return id
	}
	return types.UnassignedProject
}

// ProjectName resolves the display name of rec, or "" when absent.
func (n *Normalizer) ProjectName(rec types.RawRecord) string {
	return String(n.lookup(rec, FieldProjectName))
}

// Status resolves the lifecycle status of rec, or "" when absent.
func (n *Normalizer) Status(rec types.RawRecord) string {
	return String(n.lookup(rec, FieldStatus))
}

// lookup returns the value under the first alias that is present and not
// blank. It returns nil when no alias matches.
func (n *Normalizer) lookup(rec types.RawRecord, f Field) any {
	for _, key := range n.aliases[f] {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}
