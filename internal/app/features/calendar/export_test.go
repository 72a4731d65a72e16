// internal/app/features/calendar/export_test.go
package calendar

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/whosinapp/whosin/internal/domain/models"
)

func dateRecord(date string, responses ...models.Response) models.DateRecord {
	rec := models.DateRecord{Date: date, Responses: map[string]models.Response{}}
	for _, r := range responses {
		rec.Responses[r.UserID] = r
	}
	return rec
}

func TestBuildICS_OneEventPerDateWithAvailability(t *testing.T) {
	recs := []models.DateRecord{
		dateRecord("2026-03-10",
			models.Response{UserID: "u1", DisplayName: "Ada", Available: true},
			models.Response{UserID: "u2", DisplayName: "Grace", Available: true}),
		dateRecord("2026-03-11",
			models.Response{UserID: "u1", DisplayName: "Ada", Available: false}),
	}

	cal := buildICS(recs, nil, "")
	if len(cal.Children) != 1 {
		t.Fatalf("calendar has %d events, want 1 (no-availability dates skipped)", len(cal.Children))
	}

	ev := cal.Children[0]
	if got := textProp(t, ev, ical.PropSummary); got != "2 people available" {
		t.Errorf("summary = %q", got)
	}
	if got := textProp(t, ev, ical.PropDescription); !strings.Contains(got, "Ada") || !strings.Contains(got, "Grace") {
		t.Errorf("description = %q, want both names", got)
	}
	if got := textProp(t, ev, ical.PropUID); got != "2026-03-10@whosin" {
		t.Errorf("uid = %q", got)
	}
}

func TestBuildICS_AllDayBounds(t *testing.T) {
	recs := []models.DateRecord{
		dateRecord("2026-03-10",
			models.Response{UserID: "u1", DisplayName: "Ada", Available: true}),
	}

	cal := buildICS(recs, nil, "")
	ev := cal.Children[0]

	start, err := ev.Props.Get("DTSTART").DateTime(time.UTC)
	if err != nil {
		t.Fatalf("DTSTART: %v", err)
	}
	end, err := ev.Props.Get("DTEND").DateTime(time.UTC)
	if err != nil {
		t.Fatalf("DTEND: %v", err)
	}
	if got := end.Sub(start); got != 24*time.Hour {
		t.Errorf("event spans %v, want 24h", got)
	}
}

func TestBuildICS_UserFilter(t *testing.T) {
	recs := []models.DateRecord{
		dateRecord("2026-03-10",
			models.Response{UserID: "u1", DisplayName: "Ada", Available: true},
			models.Response{UserID: "u2", DisplayName: "Grace", Available: true}),
		dateRecord("2026-03-11",
			models.Response{UserID: "u2", DisplayName: "Grace", Available: true}),
	}

	cal := buildICS(recs, nil, "u1")
	if len(cal.Children) != 1 {
		t.Fatalf("calendar has %d events, want 1 (only dates u1 is available)", len(cal.Children))
	}
	if got := textProp(t, cal.Children[0], ical.PropUID); got != "2026-03-10@whosin" {
		t.Errorf("uid = %q", got)
	}
}

func textProp(t *testing.T, c *ical.Component, name string) string {
	t.Helper()
	p := c.Props.Get(name)
	if p == nil {
		t.Fatalf("missing prop %s", name)
	}
	v, err := p.Text()
	if err != nil {
		t.Fatalf("prop %s: %v", name, err)
	}
	return v
}

func TestSummaryLine(t *testing.T) {
	if got := summaryLine(1); got != "1 person available" {
		t.Errorf("summaryLine(1) = %q", got)
	}
	if got := summaryLine(3); got != "3 people available" {
		t.Errorf("summaryLine(3) = %q", got)
	}
}

func TestParseRange(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"valid", "from=2026-03-01&to=2026-03-31", false},
		{"single day", "from=2026-03-01&to=2026-03-01", false},
		{"reversed", "from=2026-03-31&to=2026-03-01", true},
		{"missing to", "from=2026-03-01", true},
		{"garbage", "from=yesterday&to=tomorrow", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/calendar/stream?"+tc.query, nil)
			_, _, err := parseRange(r)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr = %v", err, tc.wantErr)
			}
		})
	}
}
