package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeDuration(t *testing.T) {
	assert.Equal(t, "5s", FormatTimeDuration(5.4))
	assert.Equal(t, "2m 5s", FormatTimeDuration(125))
	assert.Equal(t, "1h 0m 1s", FormatTimeDuration(3601))
}

func TestFormatHMS(t *testing.T) {
	tests := []struct {
		seconds  float64
		omitHour bool
		want     string
	}{
		{0, false, "0:00:00.000"},
		{1.5, true, "0:01.500"},
		{61.25, true, "1:01.250"},
		{3725.5, true, "1:02:05.500"},
		{59.9996, false, "0:01:00.000"},
		{-1, true, "0:00.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatHMS(tt.seconds, tt.omitHour), "seconds=%v", tt.seconds)
	}
}

func TestFormatSRTTime(t *testing.T) {
	assert.Equal(t, "0:00:01,234", FormatSRTTime(1.234))
	assert.Equal(t, "1:00:00,000", FormatSRTTime(3600))
}

func TestParseHMS(t *testing.T) {
	tests := map[string]float64{
		"1.5":         1.5,
		"0:01.500":    1.5,
		"1:01.250":    61.25,
		"1:02:05,500": 3725.5,
	}

	for input, want := range tests {
		got, err := ParseHMS(input)
		require.NoError(t, err, input)
		assert.InDelta(t, want, got, 1e-9, input)
	}

	for _, bad := range []string{"", "abc", "1:2:3:4", "-1"} {
		_, err := ParseHMS(bad)
		assert.ErrorIs(t, err, ErrInvalidInput, bad)
	}

	// 格式化与解析互逆
	got, err := ParseHMS(FormatHMS(12.345, true))
	require.NoError(t, err)
	assert.InDelta(t, 12.345, got, 1e-9)
}
