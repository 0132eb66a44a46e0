package etl

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// day-first layouts tried before any locale-specific form
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"2.1.2006",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006 15:04:05",
	"2006-01-02 15:04:05",
	"2 January 2006",
	"02 January 2006",
}

// month names and abbreviations as they appear in French exports,
// accent-folded and lowercased
var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"janv":      time.January,
	"jan":       time.January,
	"fevrier":   time.February,
	"fevr":      time.February,
	"fev":       time.February,
	"mars":      time.March,
	"avril":     time.April,
	"avr":       time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"juil":      time.July,
	"aout":      time.August,
	"septembre": time.September,
	"sept":      time.September,
	"sep":       time.September,
	"octobre":   time.October,
	"oct":       time.October,
	"novembre":  time.November,
	"nov":       time.November,
	"decembre":  time.December,
	"dec":       time.December,
}

// ParseFlexibleDate parses the date formats seen in exports. Numeric forms
// are read day-first ("05/03/2024" is 5 March), then the French long form
// ("15 janvier 2024", "15 janv. 2024") is tried.
func ParseFlexibleDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" || IsNA(value) {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}

	if t, ok := parseFrenchDate(value); ok {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

func parseFrenchDate(value string) (time.Time, bool) {
	parts := strings.Fields(FoldAccents(strings.ToLower(value)))
	if len(parts) != 3 {
		return time.Time{}, false
	}

	day, err := strconv.Atoi(strings.TrimSuffix(parts[0], "er"))
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	month, ok := frenchMonths[strings.TrimSuffix(parts[1], ".")]
	if !ok {
		return time.Time{}, false
	}

	year, err := strconv.Atoi(parts[2])
	if err != nil || len(parts[2]) != 4 {
		return time.Time{}, false
	}

	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// reject impossible dates like 31 February
	if t.Day() != day || t.Month() != month {
		return time.Time{}, false
	}
	return t, true
}

// LooksLikeDate reports whether the cell parses as a date at all. The
// pivot reshaper uses it to tell date rows apart from label rows.
func LooksLikeDate(raw string) bool {
	_, err := ParseFlexibleDate(raw)
	return err == nil
}
