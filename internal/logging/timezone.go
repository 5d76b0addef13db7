package logging

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
)

// offsetPattern matches "+09:00", "-0500", "+5", "UTC+9", "GMT-03:30".
var offsetPattern = regexp.MustCompile(`^(?i:UTC|GMT)?([+-])(\d{1,2})(?::?(\d{2}))?$`)

// maxOffset is the widest offset in use anywhere (UTC+14).
const maxOffset = 14 * time.Hour

// DefaultLocation returns the fixed +09:00 zone used by default.
func DefaultLocation() *time.Location {
	return time.FixedZone(DefaultTimezone, 9*60*60)
}

// ParseTimezone resolves a timezone setting. Empty means DefaultTimezone.
// Malformed values return a configuration error.
func ParseTimezone(value string) (*time.Location, error) {
	tz := strings.TrimSpace(value)
	switch strings.ToUpper(tz) {
	case "":
		return DefaultLocation(), nil
	case "Z", "UTC", "GMT":
		return time.UTC, nil
	}

	if m := offsetPattern.FindStringSubmatch(tz); m != nil {
		hours, _ := strconv.Atoi(m[2])
		minutes := 0
		if m[3] != "" {
			minutes, _ = strconv.Atoi(m[3])
		}
		offset := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute
		if minutes >= 60 || offset > maxOffset {
			return nil, invalidTimezone(value, fmt.Errorf("offset %s out of range", tz))
		}
		if m[1] == "-" {
			offset = -offset
		}
		return FixedOffset(offset), nil
	}

	if strings.ContainsAny(tz, " \t") {
		return nil, invalidTimezone(value, nil)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, invalidTimezone(value, err)
	}
	return loc, nil
}

// FixedOffset returns a zone named after its offset, e.g. "-05:00".
func FixedOffset(offset time.Duration) *time.Location {
	return time.FixedZone(formatOffset(int(offset/time.Second)), int(offset/time.Second))
}

// formatOffset renders seconds east of UTC as ±hh:mm.
func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("%c%02d:%02d", sign, seconds/3600, seconds%3600/60)
}

// OffsetString returns the ±hh:mm offset of loc at t.
func OffsetString(loc *time.Location, t time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	_, seconds := t.In(loc).Zone()
	return formatOffset(seconds)
}

func invalidTimezone(value string, cause error) error {
	return lerrors.New(lerrors.ErrCodeTimezoneInvalid, fmt.Sprintf("invalid timezone %q", value), cause).
		WithSuggestion(`Use an offset such as "+09:00" or "-05:00", or a zone name such as "Asia/Tokyo"`)
}
