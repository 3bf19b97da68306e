package report

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Granularity is the precision timestamps are cut to when they are part of
// the display key.
type Granularity int

const (
	GranularityNone Granularity = iota
	GranularityMonth
	GranularityDay
	GranularityHour
	GranularityMinute
	GranularitySecond
)

var granularityNames = []string{
	"-", "Month-by-Month", "Day-by-Day", "Hour-by-Hour", "Minute-by-Minute", "Second-by-Second",
}

// String returns the menu label of g.
func (g Granularity) String() string {
	if g < 0 || int(g) >= len(granularityNames) {
		return granularityNames[0]
	}

	return granularityNames[g]
}

// ParseGranularity accepts a menu label ("Hour-by-Hour") or a unit
// ("hour"). Anything else means no timestamp column.
func ParseGranularity(s string) Granularity {
	s = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "*")))

	for i, name := range granularityNames {
		if i == 0 {
			continue
		}

		unit := strings.ToLower(strings.SplitN(name, "-", 2)[0])
		if s == strings.ToLower(name) || s == unit {
			return Granularity(i)
		}
	}

	return GranularityNone
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var pastWindow = regexp.MustCompile(`^past\s+(?:(\w+)\s+)?(day|week|month)s?$`)

// DateWindowStart resolves a date keyword against now. It returns false
// for "All" and for keywords it does not know.
//
//	Today            midnight of now
//	Since Yesterday  midnight of the day before now
//	Past N Days      now minus N days (also weeks and months)
func DateWindowStart(keyword string, now time.Time) (time.Time, bool) {
	s := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(keyword, "*")))
	s = strings.Join(strings.Fields(s), " ")

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch s {
	case "", "all":
		return time.Time{}, false
	case "today":
		return midnight, true
	case "yesterday", "since yesterday":
		return midnight.AddDate(0, 0, -1), true
	}

	m := pastWindow.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	n := 1

	if m[1] != "" {
		if v, ok := numberWords[m[1]]; ok {
			n = v
		} else if v, err := strconv.Atoi(m[1]); err == nil && v > 0 {
			n = v
		} else {
			return time.Time{}, false
		}
	}

	switch m[2] {
	case "day":
		return now.AddDate(0, 0, -n), true
	case "week":
		return now.AddDate(0, 0, -7*n), true
	default:
		return now.AddDate(0, -n, 0), true
	}
}

// DateOptions lists the date keywords offered by the query screen.
func DateOptions() []string {
	words := []string{"Two", "Three", "Four", "Five", "Six", "Seven"}

	opts := make([]string, 0, 2+len(words)*3)
	opts = append(opts, "Today", "Since Yesterday")

	for _, unit := range []string{"Days", "Weeks", "Months"} {
		n := len(words)
		if unit == "Months" {
			n--
		}

		for _, w := range words[:n] {
			opts = append(opts, "Past "+w+" "+unit)
		}
	}

	return append(opts, "All")
}
