package core

import "sort"

// Aggregates are derived from the current collections on every call.
// Nothing here is cached or incrementally maintained.

// TotalIncome sums the amounts of the given income records.
func TotalIncome(incomes []Transaction) Money {
	return sum(incomes)
}

// TotalExpenses sums the amounts of the given expense records.
func TotalExpenses(expenses []Transaction) Money {
	return sum(expenses)
}

// TotalBalance is total income minus total expenses. May be negative.
func TotalBalance(incomes, expenses []Transaction) Money {
	return Money{Cents: sum(incomes).Cents - sum(expenses).Cents}
}

func sum(txs []Transaction) Money {
	var cents int64
	for _, t := range txs {
		if t.Amount.Cents > 0 {
			cents += t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// RecentTransactions merges both collections and returns the n most recent
// records ranked by effective date, newest first. Ranking by Date rather
// than CreatedAt is the contract: "recent" means recent activity as the
// user dated it. Records with equal dates keep merge order, incomes first.
func RecentTransactions(incomes, expenses []Transaction, n int) []Transaction {
	merged := make([]Transaction, 0, len(incomes)+len(expenses))
	merged = append(merged, incomes...)
	merged = append(merged, expenses...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date.Time)
	})
	if n < 0 {
		n = 0
	}
	if n > len(merged) {
		n = len(merged)
	}
	return merged[:n]
}
