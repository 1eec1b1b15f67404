// Package hours parses weekly opening-hours text and answers open-now
// queries against it.
//
// The canonical format is one entry per line (or semicolon-separated):
//
//	Sun 11:00-22:00
//	Mon-Thu 11:00-22:00, 23:00-01:30
//	Fri 10:00-15:00
//	Sat closed
//	Sat 24 hours
//
// Windows ending at or before their start spill past midnight into the next
// day, so "Sat 20:00-01:30" keeps a venue open early Sunday morning.
package hours

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// Window is a single opening window in minutes since midnight. End <= Start
// means the window crosses midnight.
type Window struct {
	Start int
	End   int
}

// crossesMidnight reports whether the window spills into the next day.
func (w Window) crossesMidnight() bool { return w.End <= w.Start }

// Weekly holds opening windows per weekday, indexed by time.Weekday
// (0 = Sunday).
type Weekly struct {
	days [7][]Window
}

// dayNames maps lowercase 3-letter prefixes to weekday indexes.
var dayNames = map[string]time.Weekday{
	"sun": time.Sunday,
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
	"sat": time.Saturday,
}

// Parse reads canonical weekly-hours text. Empty input yields an empty
// schedule (always closed); malformed input is an error so callers can
// distinguish "closed" from "unknown".
func Parse(text string) (*Weekly, error) {
	w := &Weekly{}

	text = strings.ReplaceAll(text, ";", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		daySpec, rest, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("hours: malformed line %q", line)
		}
		days, err := parseDaySpec(daySpec)
		if err != nil {
			return nil, err
		}

		rest = strings.TrimSpace(rest)
		switch {
		case strings.EqualFold(rest, "closed"):
			// No windows for these days.
		case strings.EqualFold(rest, "24 hours"):
			for _, d := range days {
				w.days[d] = append(w.days[d], Window{Start: 0, End: minutesPerDay})
			}
		default:
			windows, err := parseWindows(rest)
			if err != nil {
				return nil, fmt.Errorf("hours: line %q: %w", line, err)
			}
			for _, d := range days {
				w.days[d] = append(w.days[d], windows...)
			}
		}
	}

	return w, nil
}

// parseDaySpec handles "Mon" and "Mon-Thu"; ranges may wrap the week
// ("Sat-Mon" means Sat, Sun, Mon).
func parseDaySpec(spec string) ([]time.Weekday, error) {
	from, to, isRange := strings.Cut(spec, "-")
	start, ok := lookupDay(from)
	if !ok {
		return nil, fmt.Errorf("hours: unknown day %q", from)
	}
	if !isRange {
		return []time.Weekday{start}, nil
	}
	end, ok := lookupDay(to)
	if !ok {
		return nil, fmt.Errorf("hours: unknown day %q", to)
	}

	days := []time.Weekday{start}
	for d := start; d != end; {
		d = (d + 1) % 7
		days = append(days, d)
		if len(days) > 7 {
			break
		}
	}
	return days, nil
}

func lookupDay(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 3 {
		return 0, false
	}
	d, ok := dayNames[s[:3]]
	return d, ok
}

func parseWindows(s string) ([]Window, error) {
	var windows []Window
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		open, close, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("window %q missing '-'", part)
		}
		start, err := parseClock(open)
		if err != nil {
			return nil, err
		}
		end, err := parseClock(close)
		if err != nil {
			return nil, err
		}
		if start == end {
			return nil, fmt.Errorf("window %q is empty", part)
		}
		windows = append(windows, Window{Start: start, End: end})
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("no windows in %q", s)
	}
	return windows, nil
}

// parseClock reads "15:04" (or "9:30") into minutes since midnight.
func parseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("bad time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	total := h*60 + m
	if total > minutesPerDay {
		return 0, fmt.Errorf("time %q past midnight", s)
	}
	return total, nil
}

// OpenAt reports whether the schedule is open at t. The caller is
// responsible for converting t into the venue's timezone first.
func (w *Weekly) OpenAt(t time.Time) bool {
	day := t.Weekday()
	minute := t.Hour()*60 + t.Minute()

	for _, win := range w.days[day] {
		if win.crossesMidnight() {
			if minute >= win.Start {
				return true
			}
		} else if minute >= win.Start && minute < win.End {
			return true
		}
	}

	// A window that started yesterday may still be running this morning.
	yesterday := (day + 6) % 7
	for _, win := range w.days[yesterday] {
		if win.crossesMidnight() && minute < win.End {
			return true
		}
	}

	return false
}

// Empty reports whether the schedule has no windows at all.
func (w *Weekly) Empty() bool {
	for _, d := range w.days {
		if len(d) > 0 {
			return false
		}
	}
	return true
}

// OpenNow is the one-call helper used by list filters: parse text, shift
// now into loc, evaluate. Unparseable text returns the error so callers can
// treat the venue's hours as unknown rather than closed.
func OpenNow(text string, loc *time.Location, now time.Time) (bool, error) {
	w, err := Parse(text)
	if err != nil {
		return false, err
	}
	return w.OpenAt(now.In(loc)), nil
}
