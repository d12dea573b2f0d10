// Package pricing применяет торговую надбавку к цене карточки.
package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Markup надбавка с округлением вверх до шага Increment.
// Increment <= 0 отключает округление.
type Markup struct {
	Increment decimal.Decimal
}

// NewMarkup создает надбавку с шагом округления
func NewMarkup(increment decimal.Decimal) Markup {
	return Markup{Increment: increment}
}

// Apply возвращает base + base*percent/100, округленное вверх до шага.
// false означает, что цена не задана и карточка не готова к выгрузке.
func (m Markup) Apply(base, percent decimal.Decimal) (decimal.Decimal, bool) {
	if !base.IsPositive() {
		return decimal.Zero, false
	}

	price := base
	if percent.IsPositive() {
		price = base.Add(base.Mul(percent).Div(hundred))
	}

	return m.round(price), true
}

// round округляет вверх, чтобы результат не оказался ниже цены с надбавкой
func (m Markup) round(price decimal.Decimal) decimal.Decimal {
	if !m.Increment.IsPositive() {
		return price
	}
	// Целочисленное деление без округления частного
	q, r := price.QuoRem(m.Increment, 0)
	if r.IsPositive() {
		q = q.Add(decimal.NewFromInt(1))
	}
	return q.Mul(m.Increment)
}
