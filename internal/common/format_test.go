package common

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.000"},
		{12.5, "$12.500"},
		{1234.5678, "$1,234.568"},
		{-1234567.1, "-$1,234,567.100"},
		{999.9996, "$1,000.000"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatMoney(tt.in))
		})
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "20.000%", FormatPercent(20))
	assert.Equal(t, "-3.125%", FormatPercent(-3.125))
}

func TestFormat_NonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, "-", FormatMoney(v))
		assert.Equal(t, "-", FormatPercent(v))
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-31", "01-31-2024", "01/31/2024", "2024/01/31"} {
		got, err := ParseDate(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), in)
	}

	_, err := ParseDate("31st Jan")
	assert.Error(t, err)
}

func TestMonthBoundaries(t *testing.T) {
	d := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-31", FormatDate(MonthEnd(d)))
	assert.Equal(t, "2024-02-29", FormatDate(PreviousMonthEnd(d)))
	assert.Equal(t, "2023-12-31", FormatDate(PreviousMonthEnd(time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC))))
	assert.Equal(t, "", FormatDate(time.Time{}))
}
