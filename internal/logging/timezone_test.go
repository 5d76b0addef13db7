package logging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lerrors "github.com/hasegama/simple-global-logging/internal/errors"
)

func TestParseTimezone_Offsets(t *testing.T) {
	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		input  string
		offset string
	}{
		{"", "+09:00"},
		{"+09:00", "+09:00"},
		{"-05:00", "-05:00"},
		{"-0500", "-05:00"},
		{"+5", "+05:00"},
		{"+05:30", "+05:30"},
		{"UTC+9", "+09:00"},
		{"gmt-03:30", "-03:30"},
		{"Z", "+00:00"},
		{"utc", "+00:00"},
		{"+14:00", "+14:00"},
		{"-12:00", "-12:00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			loc, err := ParseTimezone(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.offset, OffsetString(loc, at))
		})
	}
}

func TestParseTimezone_ZoneName(t *testing.T) {
	loc, err := ParseTimezone("UTC")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	// Zone database lookups depend on the host; only assert when available.
	if _, err := time.LoadLocation("Asia/Tokyo"); err == nil {
		loc, err := ParseTimezone("Asia/Tokyo")
		require.NoError(t, err)
		assert.Equal(t, "+09:00", OffsetString(loc, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)))
	}
}

func TestParseTimezone_Invalid(t *testing.T) {
	for _, input := range []string{
		"not-a-zone",
		"+25:00",
		"+09:75",
		"+15",
		"09:00",
		"Mars/Olympus",
		"Asia /Tokyo",
	} {
		t.Run(input, func(t *testing.T) {
			loc, err := ParseTimezone(input)
			require.Error(t, err)
			assert.Nil(t, loc)
			assert.True(t, lerrors.IsConfig(err), "want config error, got %v", err)
			assert.Equal(t, lerrors.ErrCodeTimezoneInvalid, lerrors.GetCode(err))
		})
	}
}

func TestFixedOffset_Name(t *testing.T) {
	loc := FixedOffset(-5 * time.Hour)
	name, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, "-05:00", name)
	assert.Equal(t, -5*60*60, offset)
}

func TestDefaultLocation(t *testing.T) {
	_, offset := time.Now().In(DefaultLocation()).Zone()
	assert.Equal(t, 9*60*60, offset)
}
