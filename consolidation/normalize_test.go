package consolidation_test

import (
	"testing"

	"bitbucket.org/camposlog/tracking_backend/consolidation"
)

func TestNormalizeID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"123456", "123456"},
		{" 123456 ", "123456"},
		{"007", "7"},
		{"PED-12B", "12"},
		{"000", "000"},
		{"", ""},
		{"abc", ""},
		{"12.345/6", "123456"},
	}
	for _, tc := range cases {
		if got := consolidation.NormalizeID(tc.in); got != tc.want {
			t.Fatalf("NormalizeID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeIDIdempotent(t *testing.T) {
	for _, in := range []string{"007", "PED-12B", "123456", ""} {
		once := consolidation.NormalizeID(in)
		twice := consolidation.NormalizeID(once)
		if once != twice {
			t.Fatalf("NormalizeID not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	if got := consolidation.NormalizeName("  *Maria da Silva* "); got != "MARIA DA SILVA" {
		t.Fatalf("NormalizeName = %q", got)
	}
}
