package storage

import (
	"context"
	"sync"

	"github.com/catatkeu/catatkeu/internal/types"
)

// Memory keeps records in slices. IDs start at 1 per collection.
type Memory struct {
	mu sync.RWMutex

	debts              []types.Debt
	debtPayments       []types.DebtPayment
	receivables        []types.Receivable
	receivablePayments []types.ReceivablePayment
	incomes            []types.Income
	expenses           []types.Expense
	maintenance        []types.MaintenanceLog
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) AddDebt(_ context.Context, d *types.Debt) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = int64(len(m.debts) + 1)
	m.debts = append(m.debts, *d)
	return d.ID, nil
}

func (m *Memory) AddDebtPayment(_ context.Context, p *types.DebtPayment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.debtPayments) + 1)
	m.debtPayments = append(m.debtPayments, *p)
	return p.ID, nil
}

func (m *Memory) AddReceivable(_ context.Context, r *types.Receivable) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.ID = int64(len(m.receivables) + 1)
	m.receivables = append(m.receivables, *r)
	return r.ID, nil
}

func (m *Memory) AddReceivablePayment(_ context.Context, p *types.ReceivablePayment) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.receivablePayments) + 1)
	m.receivablePayments = append(m.receivablePayments, *p)
	return p.ID, nil
}

func (m *Memory) AddIncome(_ context.Context, in *types.Income) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	in.ID = int64(len(m.incomes) + 1)
	m.incomes = append(m.incomes, *in)
	return in.ID, nil
}

func (m *Memory) AddExpense(_ context.Context, e *types.Expense) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = int64(len(m.expenses) + 1)
	m.expenses = append(m.expenses, *e)
	return e.ID, nil
}

func (m *Memory) AddMaintenance(_ context.Context, l *types.MaintenanceLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.maintenance) + 1)
	m.maintenance = append(m.maintenance, *l)
	return l.ID, nil
}

// Debts returns a copy of the stored debts in insertion order.
func (m *Memory) Debts() []types.Debt {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Debt(nil), m.debts...)
}

func (m *Memory) DebtPayments() []types.DebtPayment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.DebtPayment(nil), m.debtPayments...)
}

func (m *Memory) Receivables() []types.Receivable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Receivable(nil), m.receivables...)
}

func (m *Memory) ReceivablePayments() []types.ReceivablePayment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.ReceivablePayment(nil), m.receivablePayments...)
}

func (m *Memory) Incomes() []types.Income {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Income(nil), m.incomes...)
}

func (m *Memory) Expenses() []types.Expense {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.Expense(nil), m.expenses...)
}

func (m *Memory) MaintenanceLogs() []types.MaintenanceLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.MaintenanceLog(nil), m.maintenance...)
}

// Summary computes the dashboard totals.
func (m *Memory) Summary(_ context.Context) (types.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s types.Summary
	for _, d := range m.debts {
		s.DebtCount++
		s.DebtTotal += d.TotalAmount
	}
	for _, p := range m.debtPayments {
		s.DebtPaid += p.Amount
	}
	for _, r := range m.receivables {
		s.ReceivableCount++
		s.ReceivableTotal += r.TotalAmount
	}
	for _, p := range m.receivablePayments {
		s.ReceivablePaid += p.Amount
	}
	for _, in := range m.incomes {
		s.IncomeTotal += in.Amount
	}
	for _, e := range m.expenses {
		s.ExpenseTotal += e.Amount
	}

	var latest *types.MaintenanceLog
	for i := range m.maintenance {
		l := &m.maintenance[i]
		s.MaintenanceCount++
		if latest == nil || l.Date > latest.Date || (l.Date == latest.Date && l.ID > latest.ID) {
			latest = l
		}
	}
	if latest != nil {
		s.NextServiceOdometer = latest.NextOdometer
	}

	return s, nil
}

// Close is a no-op.
func (m *Memory) Close() error { return nil }
