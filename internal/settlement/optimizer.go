package settlement

import (
	"math"
	"sort"
)

// Transfer is one proposed payment that reduces outstanding balances.
type Transfer struct {
	FromUserID string
	ToUserID   string
	Amount     float64
	Currency   string
}

// Stats summarizes how much the optimizer reduced the transaction count
// relative to the raw net debts.
type Stats struct {
	OriginalCount    int
	OptimizedCount   int
	ReductionPercent float64
}

// Plan is the settlement plan for one group. Optimized is true only when
// balance-based matching produced strictly fewer transfers than the net
// debts themselves; otherwise Transfers carries the net debts directly.
type Plan struct {
	Transfers []Transfer
	Optimized bool
	Stats     Stats
}

// party is a working entry in the creditor or debtor queue. Amounts are
// kept positive for both sides.
type party struct {
	userID string
	amount float64
}

// Optimize nets the given debts and computes a minimum-transaction
// settlement plan, one independent pass per currency. The greedy
// largest-creditor/largest-debtor matching is a standard approximation: not
// guaranteed globally optimal, but deterministic (ties broken by user ID)
// and never worse than paying each net debt individually.
//
// Empty input yields an empty plan, not an error.
func Optimize(debts []Debt) (Plan, error) {
	netted, err := Net(debts)
	if err != nil {
		return Plan{}, err
	}
	if len(netted) == 0 {
		return Plan{Transfers: []Transfer{}}, nil
	}

	balances := Balances(netted)
	currencies := make([]string, 0, len(balances))
	for cur := range balances {
		currencies = append(currencies, cur)
	}
	sort.Strings(currencies)

	optimized := make([]Transfer, 0, len(netted))
	for _, cur := range currencies {
		optimized = append(optimized, settleCurrency(cur, balances[cur])...)
	}

	stats := Stats{OriginalCount: len(netted), OptimizedCount: len(optimized)}
	stats.ReductionPercent = RoundCents(float64(stats.OriginalCount-stats.OptimizedCount) / float64(stats.OriginalCount) * 100)

	if len(optimized) < len(netted) {
		return Plan{Transfers: optimized, Optimized: true, Stats: stats}, nil
	}

	// Optimization bought nothing; fall back to the net debts.
	transfers := make([]Transfer, len(netted))
	for i, d := range netted {
		transfers[i] = Transfer{FromUserID: d.FromUserID, ToUserID: d.ToUserID, Amount: d.Amount, Currency: d.Currency}
	}
	return Plan{
		Transfers: transfers,
		Optimized: false,
		Stats:     Stats{OriginalCount: len(netted), OptimizedCount: len(netted)},
	}, nil
}

// settleCurrency matches debtors against creditors for one currency.
// Both queues are sorted descending by amount; the largest debtor pays the
// largest creditor min(debt, credit) until one side empties. Parties within
// Epsilon of zero never enter a queue, so every emitted transfer is at
// least a cent and the loop always advances.
func settleCurrency(currency string, balances map[string]float64) []Transfer {
	users := make([]string, 0, len(balances))
	for userID := range balances {
		users = append(users, userID)
	}
	sort.Strings(users)

	var creditors, debtors []party
	for _, userID := range users {
		switch b := balances[userID]; {
		case b > Epsilon:
			creditors = append(creditors, party{userID: userID, amount: b})
		case b < -Epsilon:
			debtors = append(debtors, party{userID: userID, amount: -b})
		}
	}

	// Stable sort on top of the user-ID ordering keeps ties deterministic.
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].amount > creditors[j].amount })
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].amount > debtors[j].amount })

	var transfers []Transfer
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := RoundCents(math.Min(debtors[i].amount, creditors[j].amount))
		if amount >= MinTransfer {
			transfers = append(transfers, Transfer{
				FromUserID: debtors[i].userID,
				ToUserID:   creditors[j].userID,
				Amount:     amount,
				Currency:   currency,
			})
		}
		debtors[i].amount -= amount
		creditors[j].amount -= amount
		if debtors[i].amount < Epsilon {
			i++
		}
		if creditors[j].amount < Epsilon {
			j++
		}
	}
	return transfers
}
