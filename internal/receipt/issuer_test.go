package receipt

import (
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestCandidate_Format(t *testing.T) {
	issuer := NewIssuer("DSN", 5)
	now := time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC)

	got, err := issuer.Candidate(now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pattern := regexp.MustCompile(`^DSN-20260901-[23456789ABCDEFGHJKMNPQRSTVWXYZ]{6}$`)
	if !pattern.MatchString(got) {
		t.Errorf("candidate %q does not match expected format", got)
	}
}

func TestCandidate_DatePrefixUsesUTC(t *testing.T) {
	issuer := NewIssuer("DSN", 5)

	// 23:30 in UTC-5 is already the next day in UTC.
	loc := time.FixedZone("UTC-5", -5*60*60)
	local := time.Date(2026, 9, 1, 23, 30, 0, 0, loc)

	got, err := issuer.Candidate(local)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "-20260902-") {
		t.Errorf("expected UTC date 20260902 in %q", got)
	}
}

func TestCandidate_Distinct(t *testing.T) {
	issuer := NewIssuer("DSN", 5)
	now := time.Now()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		c, err := issuer.Candidate(now)
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if seen[c] {
			t.Fatalf("iteration %d: duplicate candidate %q", i, c)
		}
		seen[c] = true
	}
}

func TestNewIssuer_ClampsMaxAttempts(t *testing.T) {
	issuer := NewIssuer("DSN", 0)
	if got := issuer.MaxAttempts(); got != 1 {
		t.Errorf("expected max attempts clamped to 1, got %d", got)
	}

	issuer = NewIssuer("DSN", 5)
	if got := issuer.MaxAttempts(); got != 5 {
		t.Errorf("expected max attempts 5, got %d", got)
	}
}
