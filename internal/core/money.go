package core

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Money is a positive monetary amount in whole cents.
type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// SplitEqual divides the amount into n equal parts, truncating to whole
// cents. The remainder is not redistributed: every part is identical, so n
// parts may sum to up to n-1 cents less than the original amount.
func (m Money) SplitEqual(n int) Money {
	if n <= 1 {
		return m
	}
	return Money{Cents: m.Cents / int64(n)}
}

// Reais returns the amount as a float64 for display.
// Use cents for any arithmetic.
func (m Money) Reais() float64 {
	return float64(m.Cents) / 100.0
}

// String formats the amount as Brazilian currency, e.g. "R$ 12,34".
func (m Money) String() string {
	return fmt.Sprintf("R$ %d,%02d", m.Cents/100, m.Cents%100)
}

// ParseDecimalToCents converts a decimal string to cents. Both comma and dot
// decimal separators are accepted; the third decimal digit rounds half-up.
// Signs are rejected, amounts are always positive.
//
//	ParseDecimalToCents("12,34")  -> 1234
//	ParseDecimalToCents("12.345") -> 1234
//	ParseDecimalToCents("12.346") -> 1235
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}

	cents := iv*100 + frac
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}
