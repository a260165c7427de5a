package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScanText(t *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "Plain code", raw: "1604761D", expected: "1604761D"},
		{name: "Surrounding whitespace", raw: "  Z-1 \n", expected: "Z-1"},
		{name: "Zero width and BOM", raw: "\ufeffZ\u200b-1", expected: "Z-1"},
		{name: "Control characters", raw: "\x02Z-1\x03", expected: "Z-1"},
		{name: "Inner newline becomes space", raw: "A\nB", expected: "A B"},
		{name: "Only whitespace", raw: " \t\r\n ", expected: ""},
		{name: "Chinese text", raw: " 一级减压阀 ", expected: "一级减压阀"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ScanText(tc.raw))
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, "100!%", EscapeLike("100%"))
	assert.Equal(t, "a!_b", EscapeLike("a_b"))
	assert.Equal(t, "!!x", EscapeLike("!x"))
	assert.Equal(t, "A101", EscapeLike("A101"))
}

func TestAmount(t *testing.T) {
	testCases := []struct {
		name      string
		raw       string
		expected  string
		expectErr bool
	}{
		{name: "Integer", raw: "890", expected: "890.00"},
		{name: "One decimal", raw: "12.5", expected: "12.50"},
		{name: "Two decimals", raw: "0.10", expected: "0.10"},
		{name: "Rounds half away from zero", raw: "1.005", expected: "1.01"},
		{name: "Thousands separator", raw: "1,234.5", expected: "1234.50"},
		{name: "Trailing dot", raw: "7.", expected: "7.00"},
		{name: "Large value keeps precision", raw: "123456789012.34", expected: "123456789012.34"},
		{name: "Exponent rejected", raw: "1e3", expectErr: true},
		{name: "Fraction rejected", raw: "1/3", expectErr: true},
		{name: "Letters rejected", raw: "abc", expectErr: true},
		{name: "Empty rejected", raw: "", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Amount(tc.raw)
			if tc.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, got)
			}
		})
	}
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0.00", FormatAmount(""))
	assert.Equal(t, "890.00", FormatAmount("890"))
	assert.Equal(t, "n/a", FormatAmount("n/a"))
}

func TestDate(t *testing.T) {
	d, err := Date("2024-03-05")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = Date("2024-03-05T23:10:00+08:00")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	_, err = Date("05/03/2024")
	assert.Error(t, err)
}
