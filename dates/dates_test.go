package dates

import (
	"testing"
	"time"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestParser() Parser {
	return NewParserWithClock(func() time.Time { return fixedNow })
}

func TestParse(t *testing.T) {
	p := newTestParser()

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "rfc3339 utc",
			raw:  "2024-01-15T10:30:00Z",
			want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "offset converted to utc",
			raw:  "2024-01-15T10:30:00+02:00",
			want: time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC),
		},
		{
			name: "offset-free treated as utc",
			raw:  "2024-01-15 10:30:00",
			want: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "rfc1123z feed style",
			raw:  "Mon, 15 Jan 2024 10:30:00 -0500",
			want: time.Date(2024, 1, 15, 15, 30, 0, 0, time.UTC),
		},
		{
			name: "date only",
			raw:  "2024-01-15",
			want: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Parse(tt.raw)
			if !got.Equal(tt.want) {
				t.Errorf("Parse(%q) = %v, want %v", tt.raw, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("Parse(%q) returned non-UTC location %v", tt.raw, got.Location())
			}
		})
	}
}

func TestParse_EmptyFallsBack(t *testing.T) {
	p := newTestParser()
	got := p.Parse("")
	if !got.Equal(fixedNow) {
		t.Errorf("Parse(\"\") = %v, want fallback %v", got, fixedNow)
	}
}

func TestParse_GarbageFallsBack(t *testing.T) {
	p := newTestParser()
	got := p.Parse("not a date at all")
	if !got.Equal(fixedNow) {
		t.Errorf("Parse(garbage) = %v, want fallback %v", got, fixedNow)
	}
}

func TestParse_RealClockFallback(t *testing.T) {
	p := NewParser()
	before := time.Now().UTC()
	got := p.Parse("")
	after := time.Now().UTC()
	if got.Before(before) || got.After(after) {
		t.Errorf("fallback %v outside [%v, %v]", got, before, after)
	}
}
