package core

import (
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in integer cents. Amounts cross the wire as decimal
// JSON numbers; internally everything is cents to keep arithmetic exact.
type Money struct {
	Cents int64
}

// Validate enforces the strictly-positive amount rule for persisted records.
func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Units returns the decimal value for display and wire encoding.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Units(), 'f', -1, 64)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if strings.HasPrefix(s, `"`) {
		return ErrInvalidAmount
	}
	cents, err := ParseAmount(s)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

// ParseAmount converts a decimal string to cents with half-up rounding on
// the third decimal place. Both dot and comma separators are accepted.
// Zero, negative, and non-numeric inputs are rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
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
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseAmountValue converts a decoded JSON value into cents. Only JSON
// numbers are accepted; a quoted "12.34" is an invalid amount, not a
// convenience.
func ParseAmountValue(v any) (int64, error) {
	switch a := v.(type) {
	case float64:
		return ParseAmount(strconv.FormatFloat(a, 'f', -1, 64))
	default:
		return 0, ErrInvalidAmount
	}
}
