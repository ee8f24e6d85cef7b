package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidMoney is returned when a decimal amount cannot be parsed.
var ErrInvalidMoney = errors.New("invalid money amount")

// Cents is an amount of money in the currency's minor unit.
// All arithmetic happens on Cents; the decimal form only appears at the
// storage, JSON and provider boundaries.
type Cents int64

// ParseCents parses a decimal string such as "450", "450.5" or "450.00".
func ParseCents(s string) (Cents, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMoney
	}

	negative := false
	if s[0] == '-' {
		negative = true
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > 2 {
		// NUMERIC(10,2) never yields more than two digits; anything
		// beyond that must be zeros to be representable.
		if strings.Trim(frac[2:], "0") != "" {
			return 0, fmt.Errorf("%w: %q has sub-cent precision", ErrInvalidMoney, s)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if strings.Trim(whole+frac, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}

	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, s)
	}

	c := Cents(w*100 + f)
	if negative {
		c = -c
	}
	return c, nil
}

// MustParseCents is ParseCents for constants and tests.
func MustParseCents(s string) Cents {
	c, err := ParseCents(s)
	if err != nil {
		panic(err)
	}
	return c
}

// CentsFromFloat converts a provider-reported decimal amount into cents.
func CentsFromFloat(amount float64) Cents {
	return Cents(math.Round(amount * 100))
}

// Float returns the amount as a decimal float, for SDKs that require one.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String formats the amount with exactly two decimals, e.g. "150.00".
func (c Cents) String() string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a decimal string to avoid float drift in clients.
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts either a decimal string or a JSON number.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	parsed, err := ParseCents(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Value implements driver.Valuer; amounts are stored as NUMERIC(10,2).
func (c Cents) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner for NUMERIC columns.
func (c *Cents) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = 0
		return nil
	case []byte:
		parsed, err := ParseCents(string(v))
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case string:
		parsed, err := ParseCents(v)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	case int64:
		*c = Cents(v * 100)
		return nil
	case float64:
		*c = CentsFromFloat(v)
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidMoney, src)
	}
}
