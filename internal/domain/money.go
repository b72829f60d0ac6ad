package domain

// Money is a value object: an amount in a currency. Two Money values with
// the same currency and amount are equal, and operations return new values.
type Money struct {
	Currency string
	Amount   int
}

func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, CurrencyError{Left: m.Currency, Right: other.Currency}
	}
	return Money{Currency: m.Currency, Amount: m.Amount + other.Amount}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, CurrencyError{Left: m.Currency, Right: other.Currency}
	}
	return Money{Currency: m.Currency, Amount: m.Amount - other.Amount}, nil
}

func (m Money) Mul(factor int) Money {
	return Money{Currency: m.Currency, Amount: m.Amount * factor}
}
