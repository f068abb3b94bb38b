package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCounts(t *testing.T) {
	a := Counts{Debts: 2, DebtPayments: 1, Incomes: 3}
	b := Counts{Debts: 1, Expenses: 4, Maintenance: 1}

	sum := a.Add(b)

	assert.Equal(t, Counts{Debts: 3, DebtPayments: 1, Incomes: 3, Expenses: 4, Maintenance: 1}, sum)
	assert.Equal(t, 12, sum.Total())
	assert.Zero(t, Counts{}.Total())
}

func TestSummary(t *testing.T) {
	t.Run("outstanding and balance", func(t *testing.T) {
		s := Summary{DebtTotal: 1000, DebtPaid: 400, ReceivableTotal: 500, ReceivablePaid: 100, IncomeTotal: 300, ExpenseTotal: 450}

		assert.Equal(t, int64(600), s.DebtOutstanding())
		assert.Equal(t, int64(400), s.ReceivableOutstanding())
		assert.Equal(t, int64(-150), s.Balance())
	})

	t.Run("overpaid clamps to zero", func(t *testing.T) {
		s := Summary{DebtTotal: 100, DebtPaid: 150, ReceivableTotal: 10, ReceivablePaid: 20}

		assert.Zero(t, s.DebtOutstanding())
		assert.Zero(t, s.ReceivableOutstanding())
	})
}
