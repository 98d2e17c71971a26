package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor currency units (cents).
// JSON uses a decimal number (500, 12.5); storage uses the integer.
type Money int64

// MaxMoney is the largest amount accepted from input. Larger values are
// clamped so that cents never overflow int64.
const MaxMoney = Money(math.MaxInt64 / 100)

// ParseMoney coerces loosely typed form input into Money.
// Unparseable, negative and non-finite values become 0; amounts above
// MaxMoney become MaxMoney.
func ParseMoney(v interface{}) Money {
	var f float64
	switch val := v.(type) {
	case nil:
		return 0
	case Money:
		if val < 0 {
			return 0
		}
		if val > MaxMoney {
			return MaxMoney
		}
		return val
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0
		}
		f = parsed
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(val, ",", ""))
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	cents := math.Round(f * 100)
	if cents >= float64(MaxMoney) {
		return MaxMoney
	}
	return Money(cents)
}

// Add sums two amounts, saturating at MaxMoney.
func (m Money) Add(other Money) Money {
	if other > 0 && m > MaxMoney-other {
		return MaxMoney
	}
	return m + other
}

// MoneyPtr returns a pointer to m, for optional amounts in input forms
func MoneyPtr(m Money) *Money {
	return &m
}

// Float returns the amount in major units.
func (m Money) Float() float64 {
	return float64(m) / 100
}

// String formats the amount with two decimals, e.g. "500.00".
func (m Money) String() string {
	return strconv.FormatFloat(m.Float(), 'f', 2, 64)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Float(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else decodes to 0
// rather than failing the whole request body.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*m = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*m = 0
			return nil
		}
		*m = ParseMoney(s)
		return nil
	}
	*m = ParseMoney(json.Number(data))
	return nil
}
