package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxPrice is the largest price a numeric(5,2) column can hold.
const MaxPrice Price = 99999

// ErrInvalidPrice is returned when a price cannot be parsed as a decimal
// with at most two fractional digits.
var ErrInvalidPrice = errors.New("invalid price")

// Price is a decimal amount with two fractional digits, stored in cents.
type Price int64

// ParsePrice parses strings such as "5", "5.5" and "12.99".
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidPrice
	}

	negative := false
	if s[0] == '-' || s[0] == '+' {
		negative = s[0] == '-'
		s = s[1:]
	}

	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, ErrInvalidPrice
	}
	if len(frac) > 2 || !digitsOnly(whole) || !digitsOnly(frac) {
		return 0, ErrInvalidPrice
	}
	if len(whole) > 15 {
		return 0, ErrInvalidPrice
	}

	var units int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil {
			return 0, ErrInvalidPrice
		}
		units = v
	}

	var cents int64
	switch len(frac) {
	case 1:
		cents = int64(frac[0]-'0') * 10
	case 2:
		cents = int64(frac[0]-'0')*10 + int64(frac[1]-'0')
	}

	p := Price(units*100 + cents)
	if negative {
		p = -p
	}
	return p, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// String formats the price with exactly two decimals.
func (p Price) String() string {
	sign := ""
	v := int64(p)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON renders the price as a fixed two-decimal string.
func (p Price) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts both JSON numbers and numeric strings.
func (p *Price) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return ErrInvalidPrice
	}
	if strings.HasPrefix(raw, `"`) {
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return ErrInvalidPrice
		}
		raw = unquoted
	}
	parsed, err := ParsePrice(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Value implements the driver.Valuer interface
func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface
func (p *Price) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = 0
		return nil
	case int64:
		*p = Price(v * 100)
		return nil
	case float64:
		*p = Price(math.Round(v * 100))
		return nil
	case []byte:
		return p.scanString(string(v))
	case string:
		return p.scanString(v)
	default:
		return fmt.Errorf("unsupported price type %T", value)
	}
}

func (p *Price) scanString(s string) error {
	parsed, err := ParsePrice(s)
	if err != nil {
		// numeric columns may come back with more precision than we store
		f, ferr := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if ferr != nil {
			return fmt.Errorf("scan price %q: %w", s, err)
		}
		parsed = Price(math.Round(f * 100))
	}
	*p = parsed
	return nil
}
