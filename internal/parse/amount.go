package parse

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

var amountRe = regexp.MustCompile(`^[+-]?\d+(\.\d*)?$`)

// Amount validates a currency amount and renders it with exactly two
// fractional digits. Values are handled as exact decimals and never pass
// through float64. Thousands separators are accepted and removed.
func Amount(raw string) (string, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if !amountRe.MatchString(s) {
		return "", fmt.Errorf("invalid amount %q", raw)
	}
	r, ok := new(big.Rat).SetString(strings.TrimSuffix(s, "."))
	if !ok {
		return "", fmt.Errorf("invalid amount %q", raw)
	}
	return r.FloatString(2), nil
}

// FormatAmount renders a stored amount with two fractional digits. Values
// that do not parse are returned unchanged; an empty value renders as 0.00.
func FormatAmount(stored string) string {
	if strings.TrimSpace(stored) == "" {
		return "0.00"
	}
	formatted, err := Amount(stored)
	if err != nil {
		return stored
	}
	return formatted
}
