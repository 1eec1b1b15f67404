package hours

import (
	"testing"
	"time"
)

// at builds a time on the given weekday at hh:mm in UTC. Jan 4 2026 is a
// Sunday, so offsetting by the weekday lands on the right day.
func at(day time.Weekday, hh, mm int) time.Time {
	base := time.Date(2026, time.January, 4, 0, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, int(day)).Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "unknown day", text: "Xyz 09:00-17:00"},
		{name: "missing dash", text: "Mon 09:00 17:00"},
		{name: "bad hour", text: "Mon 25:00-26:00"},
		{name: "bad minute", text: "Mon 09:61-17:00"},
		{name: "empty window", text: "Mon 09:00-09:00"},
		{name: "missing windows", text: "Mon "},
		{name: "word salad", text: "Mon whenever"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(tt.text); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", tt.text)
			}
		})
	}
}

func TestOpenAt(t *testing.T) {
	tests := []struct {
		name string
		text string
		when time.Time
		want bool
	}{
		{
			name: "inside simple window",
			text: "Mon 11:00-22:00",
			when: at(time.Monday, 12, 30),
			want: true,
		},
		{
			name: "before opening",
			text: "Mon 11:00-22:00",
			when: at(time.Monday, 10, 59),
			want: false,
		},
		{
			name: "exactly at close is closed",
			text: "Mon 11:00-22:00",
			when: at(time.Monday, 22, 0),
			want: false,
		},
		{
			name: "exactly at open is open",
			text: "Mon 11:00-22:00",
			when: at(time.Monday, 11, 0),
			want: true,
		},
		{
			name: "wrong day",
			text: "Mon 11:00-22:00",
			when: at(time.Tuesday, 12, 0),
			want: false,
		},
		{
			name: "day range covers wednesday",
			text: "Mon-Thu 11:00-22:00",
			when: at(time.Wednesday, 12, 0),
			want: true,
		},
		{
			name: "day range excludes friday",
			text: "Mon-Thu 11:00-22:00",
			when: at(time.Friday, 12, 0),
			want: false,
		},
		{
			name: "wrapping day range",
			text: "Sat-Mon 10:00-14:00",
			when: at(time.Sunday, 11, 0),
			want: true,
		},
		{
			name: "second window after the first",
			text: "Mon 11:00-14:00, 17:00-22:00",
			when: at(time.Monday, 18, 0),
			want: true,
		},
		{
			name: "gap between windows",
			text: "Mon 11:00-14:00, 17:00-22:00",
			when: at(time.Monday, 15, 0),
			want: false,
		},
		{
			name: "overnight window, evening side",
			text: "Sat 20:00-01:30",
			when: at(time.Saturday, 23, 0),
			want: true,
		},
		{
			name: "overnight window, morning spillover",
			text: "Sat 20:00-01:30",
			when: at(time.Sunday, 1, 0),
			want: true,
		},
		{
			name: "overnight window, after spillover ends",
			text: "Sat 20:00-01:30",
			when: at(time.Sunday, 1, 30),
			want: false,
		},
		{
			name: "closed keyword",
			text: "Sat closed\nSun 10:00-16:00",
			when: at(time.Saturday, 12, 0),
			want: false,
		},
		{
			name: "24 hours",
			text: "Fri 24 hours",
			when: at(time.Friday, 3, 0),
			want: true,
		},
		{
			name: "semicolon separated lines",
			text: "Mon 09:00-17:00; Tue 09:00-17:00",
			when: at(time.Tuesday, 10, 0),
			want: true,
		},
		{
			name: "empty schedule is closed",
			text: "",
			when: at(time.Monday, 12, 0),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := Parse(tt.text)
			if err != nil {
				t.Fatalf("Parse(%q) failed: %v", tt.text, err)
			}
			if got := w.OpenAt(tt.when); got != tt.want {
				t.Errorf("OpenAt(%v) = %v, want %v", tt.when, got, tt.want)
			}
		})
	}
}

func TestOpenNowUsesLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	// 18:00 UTC on a January Monday is 13:00 in New York.
	now := at(time.Monday, 18, 0)

	open, err := OpenNow("Mon 11:00-14:00", ny, now)
	if err != nil {
		t.Fatalf("OpenNow failed: %v", err)
	}
	if !open {
		t.Error("expected open at 13:00 New York time")
	}

	open, err = OpenNow("Mon 17:00-22:00", ny, now)
	if err != nil {
		t.Fatalf("OpenNow failed: %v", err)
	}
	if open {
		t.Error("expected closed at 13:00 New York time")
	}
}

func TestEmpty(t *testing.T) {
	w, err := Parse("Sun closed")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !w.Empty() {
		t.Error("schedule with only closed days should be Empty")
	}

	w, err = Parse("Sun 10:00-12:00")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if w.Empty() {
		t.Error("schedule with a window should not be Empty")
	}
}
