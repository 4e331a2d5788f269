// README: Common money value object used across modules.
package types

// Money holds an amount in whole currency units. Per-seat prices and fares
// in this system are whole units (no cents), matching the stored schema.
type Money struct {
	Amount   int64
	Currency string
}

// Times returns the money multiplied by n (e.g. per-seat price times seats).
func (m Money) Times(n int64) Money {
	return Money{Amount: m.Amount * n, Currency: m.Currency}
}
