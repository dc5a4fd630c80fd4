// internal/intake/projection.go
package intake

import (
	"sort"

	"maintenance-intake/internal/model"
)

type pairKey struct {
	tenantID   string
	propertyID string
}

// Summarize reduces the full request list to one row per tenant/property
// pair for the admin dashboard. Input must be ordered by creation ascending;
// the first row encountered for a pair wins, so the oldest request's issue
// text and status represent the pair even when follow-ups exist. Survivors
// are re-sorted newest first for display.
func Summarize(rows []model.RequestRow) []model.RequestRow {
	seen := make(map[pairKey]bool, len(rows))
	out := make([]model.RequestRow, 0, len(rows))
	for _, row := range rows {
		key := pairKey{row.TenantID.String(), row.PropertyID.String()}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
