// Package dateutil parses HL7 timestamps and renders them as ISO dates.
package dateutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimestamp indicates a value that is not an HL7 timestamp.
var ErrInvalidTimestamp = errors.New("invalid HL7 timestamp")

// MaxTimestampLength limits input length before any parsing.
const MaxTimestampLength = 40

// ISODateLayout is the output layout for performance period dates.
const ISODateLayout = "2006-01-02"

// hl7Layouts maps HL7 TS precisions to Go layouts, keyed by digit count.
var hl7Layouts = map[int]string{
	4:  "2006",
	6:  "200601",
	8:  "20060102",
	10: "2006010215",
	12: "200601021504",
	14: "20060102150405",
}

// ParseHL7 parses an HL7 TS value such as "20170101",
// "20170101123000" or "20170101123000.123-0500". Fractional seconds are
// dropped. Without a zone offset the result is UTC.
func ParseHL7(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	if len(ts) > MaxTimestampLength {
		return time.Time{}, fmt.Errorf("%w: exceeds %d characters", ErrInvalidTimestamp, MaxTimestampLength)
	}

	digits, zone := ts, ""
	if i := strings.IndexAny(ts, "+-"); i >= 0 {
		digits, zone = ts[:i], ts[i:]
	}
	if i := strings.IndexByte(digits, '.'); i >= 0 {
		digits = digits[:i]
	}

	layout, ok := hl7Layouts[len(digits)]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
	}
	if zone != "" {
		if len(zone) != 5 {
			return time.Time{}, fmt.Errorf("%w: bad zone in %q", ErrInvalidTimestamp, ts)
		}
		t, err := time.Parse(layout+"-0700", digits+zone)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
		}
		return t, nil
	}
	t, err := time.Parse(layout, digits)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
	}
	return t, nil
}

// ISODate converts an HL7 timestamp to YYYY-MM-DD, keeping the calendar
// date written in the document.
func ISODate(ts string) (string, error) {
	t, err := ParseHL7(ts)
	if err != nil {
		return "", err
	}
	return t.Format(ISODateLayout), nil
}
