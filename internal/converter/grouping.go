// =============================================================================
// Load Export - Project Grouping and Date Batching
// =============================================================================
//
// GROUPING:
//   Raw records are partitioned by project identifier. The key is resolved by
//   the same normalizer method that fills Load.ProjectID, so a record can never
//   be filed under one project and report another.
//
// BATCHING:
//   Within one project, normalized loads are partitioned by calendar date
//   formatted as MM/DD/YYYY. Each batch becomes exactly one invoice.
//
// =============================================================================

package converter

import (
	"time"

	"github.com/ginjaninja78/loadexport/internal/normalize"
	"github.com/ginjaninja78/loadexport/internal/types"
)

// BatchDateLayout is the locale-independent date layout required by both
// interchange formats.
const BatchDateLayout = "01/02/2006"

// GroupByProject partitions records by project identifier.
//
// PARAMETERS:
//   - records: The resolved raw records, in resolution order.
//   - n: The normalizer whose ProjectID resolver supplies the key.
//
// RETURNS:
//   - One ProjectGroup per distinct project, ordered by first appearance.
//     Every input record lands in exactly one group.
func GroupByProject(records []types.RawRecord, n *normalize.Normalizer) []types.ProjectGroup {
	index := make(map[string]int)
	var groups []types.ProjectGroup

	for _, rec := range records {
		id := n.ProjectID(rec)
		i, ok := index[id]
		if !ok {
			name := n.ProjectName(rec)
			if name == "" {
				name = id
			}
			index[id] = len(groups)
			groups = append(groups, types.ProjectGroup{ProjectID: id, ProjectName: name})
			i = len(groups) - 1
		}
		groups[i].Records = append(groups[i].Records, rec)
	}

	return groups
}

// NormalizeGroup normalizes every record of g, preserving order.
func NormalizeGroup(g types.ProjectGroup, n *normalize.Normalizer) []types.Load {
	loads := make([]types.Load, len(g.Records))
	for i, rec := range g.Records {
		loads[i] = n.Normalize(rec)
	}
	return loads
}

// BatchByDate partitions loads by their date formatted in loc.
// Batches are ordered by first appearance and keep load order.
func BatchByDate(loads []types.Load, loc *time.Location) []types.BillingBatch {
	if loc == nil {
		loc = time.Local
	}

	index := make(map[string]int)
	var batches []types.BillingBatch

	for _, l := range loads {
		key := l.Date.In(loc).Format(BatchDateLayout)
		i, ok := index[key]
		if !ok {
			index[key] = len(batches)
			batches = append(batches, types.BillingBatch{Date: key})
			i = len(batches) - 1
		}
		batches[i].Loads = append(batches[i].Loads, l)
	}

	return batches
}
