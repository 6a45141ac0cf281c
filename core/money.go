package core

import (
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Money is an amount in cents, exposed as decimal reais in JSON.
type Money int64

func MoneyFromReais(v float64) Money {
	return Money(math.Round(v * 100))
}

func (m Money) Reais() float64 { return float64(m) / 100 }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Reais(), 'f', 2, 64)), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if l := len(s); l >= 2 && s[0] == '"' && s[l-1] == '"' {
		s = s[1 : l-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrap(err, "parsing amount")
	}
	*m = MoneyFromReais(v)
	return nil
}
