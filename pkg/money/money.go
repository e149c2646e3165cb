// Package money accumulates and formats monetary amounts in Brazilian reais.
package money

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the ISO code every amount is expressed in.
const Currency = gomoney.BRL

// Sum accumulates float amounts without binary rounding drift.
type Sum struct {
	total decimal.Decimal
}

// Add adds amount to the sum.
func (s *Sum) Add(amount float64) {
	s.total = s.total.Add(decimal.NewFromFloat(amount))
}

// AddTimes adds amount multiplied by quantity.
func (s *Sum) AddTimes(amount float64, quantity int) {
	s.total = s.total.Add(decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(int64(quantity))))
}

// Float returns the sum as a float64.
func (s Sum) Float() float64 {
	return s.total.InexactFloat64()
}

// Decimal returns the exact sum.
func (s Sum) Decimal() decimal.Decimal {
	return s.total
}

// Round rounds amount to cents, half away from zero.
func Round(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// Format renders amount as a BRL string, e.g. "R$1.234,56".
func Format(amount float64) string {
	return gomoney.NewFromFloat(amount, Currency).Display()
}
