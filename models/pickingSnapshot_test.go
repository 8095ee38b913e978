package models

import (
	"testing"
	"time"
)

func TestPickingReferenceDateKeepsLocalWallDate(t *testing.T) {
	saoPaulo := time.FixedZone("UTC-3", -3*60*60)

	// 21:30 local is already the next day in UTC; the reference date must
	// stay on the local calendar day the run happened.
	evening := time.Date(2026, 3, 10, 21, 30, 0, 0, saoPaulo)
	got := pickingReferenceDate(evening)

	if got.Format("2006-01-02") != "2026-03-10" {
		t.Fatalf("reference date = %s, want 2026-03-10", got.Format("2006-01-02"))
	}
	if got.Location() != saoPaulo {
		t.Fatalf("reference date changed location to %v", got.Location())
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 {
		t.Fatalf("reference date keeps a time of day: %v", got)
	}
}
