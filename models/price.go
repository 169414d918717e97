package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	priceMaxDigits     = 5
	priceDecimalPlaces = 2
)

var (
	ErrPriceFormat      = errors.New("a valid number is required")
	ErrPriceDigits      = fmt.Errorf("ensure that there are no more than %d digits in total", priceMaxDigits)
	ErrPricePlaces      = fmt.Errorf("ensure that there are no more than %d decimal places", priceDecimalPlaces)
	ErrPriceWholeDigits = fmt.Errorf("ensure that there are no more than %d digits before the decimal point", priceMaxDigits-priceDecimalPlaces)
	ErrPriceNegative    = errors.New("ensure this value is greater than or equal to 0")
	errPriceScanInput   = errors.New("unsupported price column type")
)

// Price is a non-negative fixed-point amount stored in hundredths.
// It is written to JSON as a decimal string ("5.99").
type Price int64

// ParsePrice parses a decimal string with at most five digits, two of them
// after the point. Total digits are checked first, then decimal places,
// then digits before the point.
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	if negative || strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return 0, ErrPriceFormat
	}
	for _, part := range []string{whole, frac} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return 0, ErrPriceFormat
			}
		}
	}

	whole = strings.TrimLeft(whole, "0")
	switch {
	case len(whole)+len(frac) > priceMaxDigits:
		return 0, ErrPriceDigits
	case len(frac) > priceDecimalPlaces:
		return 0, ErrPricePlaces
	case len(whole) > priceMaxDigits-priceDecimalPlaces:
		return 0, ErrPriceWholeDigits
	}

	frac += strings.Repeat("0", priceDecimalPlaces-len(frac))
	var cents int64
	for _, c := range whole + frac {
		cents = cents*10 + int64(c-'0')
	}
	if negative && cents != 0 {
		return 0, ErrPriceNegative
	}
	return Price(cents), nil
}

// MustParsePrice is ParsePrice for literals known to be valid.
func MustParsePrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Price) String() string {
	return fmt.Sprintf("%d.%02d", int64(p)/100, int64(p)%100)
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts both "5.99" and 5.99.
func (p *Price) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return ErrPriceFormat
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ErrPriceFormat
		}
		raw = s
	}
	v, err := ParsePrice(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Value stores the price as a NUMERIC literal.
func (p Price) Value() (driver.Value, error) {
	return p.String(), nil
}

func (p *Price) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*p = 0
		return nil
	case []byte:
		return p.scanString(string(v))
	case string:
		return p.scanString(v)
	case int64:
		*p = Price(v * 100)
		return nil
	case float64:
		return p.scanString(strconv.FormatFloat(v, 'f', priceDecimalPlaces, 64))
	}
	return fmt.Errorf("%w: %T", errPriceScanInput, src)
}

func (p *Price) scanString(s string) error {
	v, err := ParsePrice(s)
	if err != nil {
		return fmt.Errorf("scan price %q: %w", s, err)
	}
	*p = v
	return nil
}

// IsPriceError reports whether err is one of the price validation errors.
func IsPriceError(err error) bool {
	for _, target := range []error{ErrPriceFormat, ErrPriceDigits, ErrPricePlaces, ErrPriceWholeDigits, ErrPriceNegative} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
