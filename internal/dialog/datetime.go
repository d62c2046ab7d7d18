package dialog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DateTimeLayout is the only accepted manual due-time format (DD.MM.YYYY HH:MM).
const DateTimeLayout = "02.01.2006 15:04"

// MinuteStep is the granularity of the minute picker.
const MinuteStep = 5

var (
	ErrDateTimeFormat = errors.New("due time must look like DD.MM.YYYY HH:MM")

	// time.Parse accepts a single-digit hour for "15"; the pattern enforces
	// zero padding on every field.
	dateTimePattern = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}$`)
)

// ParseDateTime parses a manual due time in loc.
func ParseDateTime(text string, loc *time.Location) (time.Time, error) {
	text = strings.TrimSpace(text)
	if !dateTimePattern.MatchString(text) {
		return time.Time{}, ErrDateTimeFormat
	}
	t, err := time.ParseInLocation(DateTimeLayout, text, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrDateTimeFormat, err)
	}
	return t, nil
}

// FormatDateTime renders t in loc using DateTimeLayout.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DateTimeLayout)
}
