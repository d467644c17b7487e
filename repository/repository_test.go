package repository

import (
	"errors"
	"testing"
	"time"
)

func TestTimeRoundTrip(t *testing.T) {
	orig := time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)

	got := parseTime(formatTime(orig))
	if !got.Equal(orig) {
		t.Fatalf("round trip = %v, want %v", got, orig)
	}
}

func TestParseTimeLayouts(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-15 10:30:45", time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)},
		{"2026-03-15T10:30:45Z", time.Date(2026, 3, 15, 10, 30, 45, 0, time.UTC)},
		{"2026-03-15", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"bozuk", time.Time{}},
	}

	for _, tc := range tests {
		if got := parseTime(tc.in); !got.Equal(tc.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSortPair(t *testing.T) {
	a1, b1 := sortPair("u1", "u2")
	a2, b2 := sortPair("u2", "u1")
	if a1 != a2 || b1 != b2 {
		t.Fatalf("sortPair argüman sırasından bağımsız olmalı: (%s,%s) vs (%s,%s)", a1, b1, a2, b2)
	}
	if a1 != "u1" || b1 != "u2" {
		t.Fatalf("sortPair = (%s,%s), want (u1,u2)", a1, b1)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: swipes.user_id, swipes.target_id (2067)")) {
		t.Fatal("UNIQUE hatası yakalanmalı")
	}
	if isUniqueViolation(errors.New("no such table: swipes")) {
		t.Fatal("başka hatalar unique sayılmamalı")
	}
	if isUniqueViolation(nil) {
		t.Fatal("nil unique sayılmamalı")
	}
}
