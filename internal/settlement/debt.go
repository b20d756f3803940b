// Package settlement implements the debt-simplification engine: pairwise
// netting of mutual obligations and a greedy min-cash-flow optimizer that
// collapses per-user balances into a small set of transfers. All functions
// are pure; they never touch storage.
package settlement

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// Epsilon is the tolerance under which an amount is treated as zero.
	// Differences below it are floating-point noise, not money.
	Epsilon = 0.01

	// MinTransfer is the smallest transfer worth emitting (one cent).
	MinTransfer = 0.01
)

var (
	// ErrMissingCurrency reports a debt with no currency code. Currencies
	// are never defaulted; a missing one is bad input.
	ErrMissingCurrency = errors.New("debt is missing a currency")

	// ErrMissingUser reports a debt with an empty user reference.
	ErrMissingUser = errors.New("debt is missing a user reference")

	// ErrNegativeAmount reports a debt with a negative amount. Direction is
	// carried by from/to, never by sign.
	ErrNegativeAmount = errors.New("debt amount is negative")

	// ErrSelfDebt reports a debt from a user to themselves.
	ErrSelfDebt = errors.New("debt from a user to themselves")
)

// Debt is one directional obligation: FromUserID owes ToUserID Amount in
// Currency. Multiple debts may exist between the same pair.
type Debt struct {
	FromUserID string
	ToUserID   string
	Amount     float64
	Currency   string
}

// NewDebt builds a validated Debt.
func NewDebt(fromUserID, toUserID string, amount float64, currency string) (Debt, error) {
	d := Debt{FromUserID: fromUserID, ToUserID: toUserID, Amount: amount, Currency: currency}
	if err := d.validate(); err != nil {
		return Debt{}, err
	}
	return d, nil
}

func (d Debt) validate() error {
	if d.FromUserID == "" || d.ToUserID == "" {
		return ErrMissingUser
	}
	if d.FromUserID == d.ToUserID {
		return fmt.Errorf("%w: %s", ErrSelfDebt, d.FromUserID)
	}
	if d.Currency == "" {
		return fmt.Errorf("%w: %s -> %s", ErrMissingCurrency, d.FromUserID, d.ToUserID)
	}
	if d.Amount < 0 {
		return fmt.Errorf("%w: %.2f (%s -> %s)", ErrNegativeAmount, d.Amount, d.FromUserID, d.ToUserID)
	}
	return nil
}

// Validate checks every debt in the slice, failing fast on the first bad
// record. Malformed input never yields a partial computation.
func Validate(debts []Debt) error {
	for _, d := range debts {
		if err := d.validate(); err != nil {
			return err
		}
	}
	return nil
}

// RoundCents rounds half-up to two fraction digits.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// pairKey identifies an unordered user pair within one currency. Users are
// stored in lexical order so both directions hit the same key.
type pairKey struct {
	low, high string
	currency  string
}

// Net collapses mutual obligations per unordered pair and currency. For
// each pair the result carries at most one directional net debt: the sum of
// A->B minus the sum of B->A, rounded to cents, dropped entirely when the
// difference is within Epsilon. Netting an already-netted set is a no-op.
func Net(debts []Debt) ([]Debt, error) {
	if err := Validate(debts); err != nil {
		return nil, err
	}

	sums := make(map[pairKey]float64)
	for _, d := range debts {
		key := pairKey{low: d.FromUserID, high: d.ToUserID, currency: d.Currency}
		signed := d.Amount
		if key.low > key.high {
			key.low, key.high = key.high, key.low
			signed = -signed
		}
		sums[key] += signed
	}

	keys := make([]pairKey, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.currency != b.currency {
			return a.currency < b.currency
		}
		if a.low != b.low {
			return a.low < b.low
		}
		return a.high < b.high
	})

	netted := make([]Debt, 0, len(keys))
	for _, k := range keys {
		switch net := sums[k]; {
		case net > Epsilon:
			netted = append(netted, Debt{FromUserID: k.low, ToUserID: k.high, Amount: RoundCents(net), Currency: k.currency})
		case net < -Epsilon:
			netted = append(netted, Debt{FromUserID: k.high, ToUserID: k.low, Amount: RoundCents(-net), Currency: k.currency})
		}
	}
	return netted, nil
}

// Balances returns each user's signed net position per currency: positive
// means the user is owed money, negative means they owe. Within a closed
// group the positions in one currency sum to zero.
func Balances(debts []Debt) map[string]map[string]float64 {
	balances := make(map[string]map[string]float64)
	for _, d := range debts {
		byUser := balances[d.Currency]
		if byUser == nil {
			byUser = make(map[string]float64)
			balances[d.Currency] = byUser
		}
		byUser[d.FromUserID] -= d.Amount
		byUser[d.ToUserID] += d.Amount
	}
	return balances
}
