// internal/app/store/availability/daystore_test.go
package availability_test

import (
	"errors"
	"testing"

	"github.com/whosinapp/whosin/internal/app/store/availability"
	"github.com/whosinapp/whosin/internal/testutil"
)

func TestStore_GetMissingDate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := availability.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Get(ctx, "2026-03-10")
	if !errors.Is(err, availability.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStore_ToggleCreatesAndFlips(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := availability.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec, err := store.Toggle(ctx, "u1", "Ada", "2026-03-10")
	if err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	resp := rec.Responses["u1"]
	if !resp.Available {
		t.Fatal("first toggle should be available")
	}
	if resp.RespondedAt == nil {
		t.Fatal("respondedAt not stamped")
	}

	rec, err = store.Toggle(ctx, "u1", "Ada", "2026-03-10")
	if err != nil {
		t.Fatalf("second Toggle: %v", err)
	}
	if rec.Responses["u1"].Available {
		t.Fatal("second toggle should flip to unavailable")
	}

	got, err := store.Get(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Responses["u1"].Available {
		t.Fatal("persisted record should be unavailable")
	}
}

func TestStore_ToggleKeepsOtherResponses(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := availability.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Toggle(ctx, "u1", "Ada", "2026-03-10"); err != nil {
		t.Fatalf("Toggle u1: %v", err)
	}
	rec, err := store.Toggle(ctx, "u2", "Grace", "2026-03-10")
	if err != nil {
		t.Fatalf("Toggle u2: %v", err)
	}
	if len(rec.Responses) != 2 {
		t.Fatalf("record has %d responses, want 2", len(rec.Responses))
	}
	if !rec.Responses["u1"].Available || !rec.Responses["u2"].Available {
		t.Fatalf("responses = %+v", rec.Responses)
	}
}

func TestStore_RangeBoundsInclusive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := availability.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, date := range []string{"2026-02-28", "2026-03-01", "2026-03-15", "2026-03-31", "2026-04-01"} {
		if _, err := store.Toggle(ctx, "u1", "Ada", date); err != nil {
			t.Fatalf("Toggle %s: %v", date, err)
		}
	}

	recs, err := store.Range(ctx, "2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	if recs[0].Date != "2026-03-01" || recs[2].Date != "2026-03-31" {
		t.Fatalf("range order wrong: %s .. %s", recs[0].Date, recs[2].Date)
	}
}

func TestStore_RenameUserOnlyGivenDates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := availability.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	for _, date := range []string{"2026-03-01", "2026-03-02"} {
		if _, err := store.Toggle(ctx, "u1", "Ada", date); err != nil {
			t.Fatalf("Toggle %s: %v", date, err)
		}
	}

	if err := store.RenameUser(ctx, []string{"2026-03-01"}, "u1", "Ada L."); err != nil {
		t.Fatalf("RenameUser: %v", err)
	}

	first, err := store.Get(ctx, "2026-03-01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := first.Responses["u1"].DisplayName; got != "Ada L." {
		t.Fatalf("renamed date name = %q", got)
	}
	second, err := store.Get(ctx, "2026-03-02")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := second.Responses["u1"].DisplayName; got != "Ada" {
		t.Fatalf("untouched date name = %q, want %q", got, "Ada")
	}
}
