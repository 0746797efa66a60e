package pricing

// Total sums every component total across all billable items.
func Total(items []BillableItem) Money {
	var total Money
	for _, item := range items {
		for _, c := range item.Components {
			total += c.Total
		}
	}
	return total
}

// Balance computes the amount still owed. Positive means the client owes,
// negative means overpayment, zero means settled.
func Balance(total, paymentReceived Money) Money {
	return total - paymentReceived
}
