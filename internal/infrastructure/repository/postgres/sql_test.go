package postgres

import (
	"database/sql"
	"testing"
	"time"
)

func TestTimeUnixRoundTrip(t *testing.T) {
	at := time.Date(2026, 8, 24, 9, 30, 0, 0, time.UTC)
	if got := unixToTime(timeToUnix(at)); !got.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got)
	}
}

func TestTimeToUnixZero(t *testing.T) {
	if got := timeToUnix(time.Time{}); got != 0 {
		t.Fatalf("expected 0 for zero time, got %d", got)
	}
	if got := unixToTime(0); !got.IsZero() {
		t.Fatalf("expected zero time for 0, got %v", got)
	}
}

func TestNullStringHelpers(t *testing.T) {
	t.Run("round trips a value", func(t *testing.T) {
		ns := stringToNullString("key_bronze")
		if !ns.Valid || nullStringToString(ns) != "key_bronze" {
			t.Fatalf("unexpected null string: %+v", ns)
		}
	})

	t.Run("empty maps to null", func(t *testing.T) {
		ns := stringToNullString("")
		if ns.Valid {
			t.Fatalf("expected invalid null string, got %+v", ns)
		}
		if got := nullStringToString(sql.NullString{}); got != "" {
			t.Fatalf("expected empty string, got %q", got)
		}
	})
}
