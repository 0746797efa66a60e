package pricing

import "testing"

func TestTotalSumsAllComponents(t *testing.T) {
	items := []BillableItem{
		{Components: []BillableComponent{{Total: 500}, {Total: 30}}},
		{Components: []BillableComponent{{Total: 5000}}},
	}
	if got := Total(items); got != 5530 {
		t.Fatalf("Total = %d, want 5530", got)
	}
	if got := Total(nil); got != 0 {
		t.Fatalf("Total(nil) = %d, want 0", got)
	}
}

func TestBalance(t *testing.T) {
	cases := []struct {
		total, paid, want Money
	}{
		{5530, 0, 5530},
		{5530, 2000, 3530},
		{5530, 5530, 0},
		{5530, 6000, -470}, // overpayment shows as credit
	}
	for _, tc := range cases {
		if got := Balance(tc.total, tc.paid); got != tc.want {
			t.Fatalf("Balance(%d, %d) = %d, want %d", tc.total, tc.paid, got, tc.want)
		}
	}
}
