// internal/domain/models/availability.go
package models

import "time"

// Response is one user's answer for one calendar date.
//
// DisplayName is a denormalized copy taken from the profile at write time so
// a day view renders without secondary lookups. It may drift from the
// profile's name until the next rename propagation.
//
// RespondedAt is nil only for synthesized not-responded entries in a
// DayView; a stored Response always carries the toggle timestamp.
type Response struct {
	UserID      string     `bson:"user_id" json:"user_id"`
	DisplayName string     `bson:"display_name" json:"display_name"`
	Available   bool       `bson:"available" json:"available"`
	RespondedAt *time.Time `bson:"responded_at,omitempty" json:"responded_at,omitempty"`
}

// Responded reports whether this entry is an explicit answer rather than a
// synthesized not-responded placeholder.
func (r Response) Responded() bool { return r.RespondedAt != nil }

// DateRecord holds every user's response for a single calendar date.
// Records are created lazily on the first response for a date and never
// deleted; the set of user IDs only grows, though individual responses flip.
type DateRecord struct {
	Date      string              `bson:"_id" json:"date"` // YYYY-MM-DD
	Responses map[string]Response `bson:"responses" json:"responses"`
	UpdatedAt time.Time           `bson:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy. The availability board hands snapshots across
// goroutine boundaries, so shared map state must never leak.
func (d DateRecord) Clone() DateRecord {
	out := d
	out.Responses = make(map[string]Response, len(d.Responses))
	for id, resp := range d.Responses {
		out.Responses[id] = resp
	}
	return out
}

// DayView is the derived partition of all known profiles for one date.
// Every profile appears in exactly one list: explicit available responses in
// Available; explicit unavailable responses plus synthesized not-responded
// entries in Unavailable.
type DayView struct {
	Date        string     `json:"date"`
	Available   []Response `json:"available"`
	Unavailable []Response `json:"unavailable"`
}
