// internal/app/store/availability/dayview.go
package availability

import (
	"sort"

	"github.com/whosinapp/whosin/internal/domain/models"
)

// BuildDayView partitions the group into available and unavailable members
// for one date. Every profile appears in exactly one list: members with no
// recorded response default to unavailable. Each list is sorted by display
// name, then user ID for ties, so repeated builds are deterministic.
func BuildDayView(rec models.DateRecord, profiles []models.Profile) models.DayView {
	view := models.DayView{
		Date:        rec.Date,
		Available:   []models.Response{},
		Unavailable: []models.Response{},
	}

	seen := make(map[string]bool, len(profiles))
	for _, p := range profiles {
		seen[p.UserID] = true
		resp, ok := rec.Responses[p.UserID]
		if !ok {
			resp = models.Response{UserID: p.UserID, DisplayName: p.DisplayName}
		} else {
			// The profile store is the identity authority; the name
			// denormalized into the record may lag a rename.
			resp.DisplayName = p.DisplayName
		}
		if resp.Available {
			view.Available = append(view.Available, resp)
		} else {
			view.Unavailable = append(view.Unavailable, resp)
		}
	}

	// Responses from users with no surviving profile still count; keep
	// them under their recorded name.
	for _, resp := range rec.Responses {
		if seen[resp.UserID] {
			continue
		}
		if resp.Available {
			view.Available = append(view.Available, resp)
		} else {
			view.Unavailable = append(view.Unavailable, resp)
		}
	}

	sortResponses(view.Available)
	sortResponses(view.Unavailable)
	return view
}

func sortResponses(rs []models.Response) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].DisplayName != rs[j].DisplayName {
			return rs[i].DisplayName < rs[j].DisplayName
		}
		return rs[i].UserID < rs[j].UserID
	})
}
