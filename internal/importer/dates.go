package importer

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// serialEpochOffset is the spreadsheet serial number of 1970-01-01.
	serialEpochOffset = 25569
	// serialMax is the serial number of 9999-12-31.
	serialMax = 2958465
)

// isoLayouts are tried last, in order. Any time of day is dropped.
var isoLayouts = []string{"2006-01-02", "2006-01-02 15:04:05", time.RFC3339}

var (
	slashDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2}|\d{4})$`)
	monthDate = regexp.MustCompile(`^(\d{1,2})[-\s]([[:alpha:]]{3})[[:alpha:]]*\.?(?:[-\s](\d{2}|\d{4}))?$`)
)

// months maps Spanish and English three-letter abbreviations to months.
var months = map[string]time.Month{
	"ene": time.January, "jan": time.January,
	"feb": time.February,
	"mar": time.March,
	"abr": time.April, "apr": time.April,
	"may": time.May,
	"jun": time.June,
	"jul": time.July,
	"ago": time.August, "aug": time.August,
	"sep": time.September, "set": time.September,
	"oct": time.October,
	"nov": time.November,
	"dic": time.December, "dec": time.December,
}

// decodeDate resolves a date cell under every supported encoding. The result
// is always UTC midnight.
func decodeDate(cell any, ref time.Time) (time.Time, bool) {
	switch v := cell.(type) {
	case float64:
		return fromSerial(v)
	case int:
		return fromSerial(float64(v))
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC), true
	case string:
		return decodeDateString(strings.TrimSpace(v), ref)
	}
	return time.Time{}, false
}

// fromSerial converts a spreadsheet serial date. The extra day compensates the
// spreadsheet epoch's off-by-one.
func fromSerial(v float64) (time.Time, bool) {
	if math.IsNaN(v) || v <= 0 || v > serialMax {
		return time.Time{}, false
	}
	days := int(math.Floor(v)) - serialEpochOffset
	return time.Unix(0, 0).UTC().AddDate(0, 0, days+1), true
}

func decodeDateString(s string, ref time.Time) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}

	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return fromSerial(v)
	}

	if m := slashDate.FindStringSubmatch(s); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return makeDate(expandYear(m[3]), time.Month(month), day)
	}

	if m := monthDate.FindStringSubmatch(s); m != nil {
		month, ok := months[strings.ToLower(m[2])]
		if !ok {
			return time.Time{}, false
		}
		day, _ := strconv.Atoi(m[1])
		if m[3] != "" {
			return makeDate(expandYear(m[3]), month, day)
		}
		return yearless(month, day, ref)
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// yearless places a day and month in ref's year, or the year before when that
// would put the date after ref.
func yearless(month time.Month, day int, ref time.Time) (time.Time, bool) {
	if ref.IsZero() {
		return time.Time{}, false
	}
	t, ok := makeDate(ref.Year(), month, day)
	if !ok {
		return t, false
	}
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	if t.After(refDay) {
		return makeDate(ref.Year()-1, month, day)
	}
	return t, true
}

// expandYear reads a two or four digit year; two digits are 2000-based.
func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) == 2 {
		y += 2000
	}
	return y
}

// makeDate builds a UTC date, rejecting components time.Date would normalize.
func makeDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
