package util

import (
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	got, err := ParseTime("2026-01-02T15:04:05Z")
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	want := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseTimeUnix(t *testing.T) {
	got, err := ParseTime("1700000000")
	if err != nil {
		t.Fatalf("ParseTime: %v", err)
	}
	if got.Unix() != 1700000000 {
		t.Fatalf("got %d, want 1700000000", got.Unix())
	}
}

func TestParseTimeDefault(t *testing.T) {
	def := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := ParseTimeDefault("", def); !got.Equal(def) {
		t.Fatalf("empty input: got %v, want %v", got, def)
	}
	if got := ParseTimeDefault("not-a-time", def); !got.Equal(def) {
		t.Fatalf("invalid input: got %v, want %v", got, def)
	}
	if got := ParseTimeDefault("2026-01-02T15:04:05Z", def); got.Equal(def) {
		t.Fatalf("valid input should not return default")
	}
}

func TestAlignFromTo(t *testing.T) {
	from := time.Date(2026, 1, 2, 15, 37, 42, 0, time.UTC)
	to := time.Date(2026, 1, 2, 18, 12, 9, 0, time.UTC)

	f, o := AlignFromTo(from, to, "1m")
	if f.Second() != 0 || f.Minute() != 37 {
		t.Fatalf("1m align from: got %v", f)
	}
	if o.Second() != 0 || o.Minute() != 12 {
		t.Fatalf("1m align to: got %v", o)
	}

	f, o = AlignFromTo(from, to, "1h")
	if f.Minute() != 0 || f.Hour() != 15 {
		t.Fatalf("1h align from: got %v", f)
	}
	if o.Minute() != 0 || o.Hour() != 18 {
		t.Fatalf("1h align to: got %v", o)
	}

	f, _ = AlignFromTo(from, to, "1d")
	if f.Hour() != 0 || f.Minute() != 0 {
		t.Fatalf("1d align from: got %v", f)
	}

	f, _ = AlignFromTo(from, to, "5m")
	if f.Second() != 0 || f.Minute() != 37 {
		t.Fatalf("fallback align from: got %v", f)
	}
}
