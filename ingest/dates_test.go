package ingest_test

import (
	"testing"
	"time"

	"bitbucket.org/camposlog/tracking_backend/ingest"
)

func TestParseDateTimeLayouts(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
	}{
		{"05/06/2025 14:30:15", time.Date(2025, 6, 5, 14, 30, 15, 0, time.Local)},
		{"05/06/2025 14:30", time.Date(2025, 6, 5, 14, 30, 0, 0, time.Local)},
		{"2025-06-05 14:30:15", time.Date(2025, 6, 5, 14, 30, 15, 0, time.Local)},
		{"05/06/2025", time.Date(2025, 6, 5, 0, 0, 0, 0, time.Local)},
		{"2025-06-05", time.Date(2025, 6, 5, 0, 0, 0, 0, time.Local)},
		{" 05/06/2025 ", time.Date(2025, 6, 5, 0, 0, 0, 0, time.Local)},
	}
	for _, tc := range cases {
		got := ingest.ParseDateTime(tc.in)
		if got == nil {
			t.Fatalf("ParseDateTime(%q) = nil", tc.in)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("ParseDateTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestParseDateTimeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "  ", "não informado", "31/02/2025", "-"} {
		if got := ingest.ParseDateTime(in); got != nil {
			t.Fatalf("ParseDateTime(%q) = %v, want nil", in, got)
		}
	}
}

func TestHasDate(t *testing.T) {
	if !ingest.HasDate("05/06/2025") {
		t.Fatal("expected true for a valid date")
	}
	if ingest.HasDate("aguardando") {
		t.Fatal("expected false for text")
	}
}
