package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty"`
}

// ZeroMoney returns a zero amount in the given ISO currency, or without currency when unit is not recognized.
func ZeroMoney(unit string) Money {
	parsed, err := currency.ParseISO(unit)
	if err != nil {
		return Money{Amount: decimal.Zero}
	}
	return Money{Amount: decimal.Zero, Currency: parsed}
}

func NewMoney(amount string, unit string) (Money, error) {
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("amount[%s] is not valid: %w", amount, err)
	}

	parsedCurrency, err := currency.ParseISO(unit)
	if err != nil {
		return Money{}, fmt.Errorf("currency[%s] is not valid: %w", unit, err)
	}

	return Money{Amount: parsedAmount, Currency: parsedCurrency}, nil
}

func (m Money) String() string {
	if m.Currency == (currency.Unit{}) {
		return m.Amount.StringFixed(2)
	}
	return m.Currency.String() + " " + m.Amount.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	out := moneyJSON{Amount: m.Amount}
	if m.Currency != (currency.Unit{}) {
		out.Currency = m.Currency.String()
	}
	return json.Marshal(out)
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var in moneyJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	m.Amount = in.Amount
	m.Currency = currency.Unit{}

	if in.Currency == "" {
		return nil
	}

	parsed, err := currency.ParseISO(in.Currency)
	if err != nil {
		return fmt.Errorf("currency[%s] is not valid: %w", in.Currency, err)
	}
	m.Currency = parsed

	return nil
}
