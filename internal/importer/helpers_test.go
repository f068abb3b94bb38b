package importer

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/catatkeu/catatkeu/internal/storage"
	"github.com/catatkeu/catatkeu/internal/types"
	"github.com/catatkeu/catatkeu/internal/xlsxparser"
)

var fixedNow = time.Date(2026, time.October, 19, 9, 30, 0, 0, time.UTC)

const today = "2026-10-19"

var errDiskFull = errors.New("disk full")

func newTestImporter(t *testing.T, store Store, opts ...Option) *Importer {
	t.Helper()
	base := []Option{
		WithLogger(log.New(io.Discard)),
		WithClock(func() time.Time { return fixedNow }),
	}
	return New(store, append(base, opts...)...)
}

// workbook builds a parsed workbook from header-keyed rows. Row numbers start
// at 2, below the header row.
func workbook(sheets map[string][]map[string]any) *xlsxparser.Workbook {
	wb := &xlsxparser.Workbook{Sheets: make(map[string]*xlsxparser.Sheet)}
	for name, rows := range sheets {
		s := &xlsxparser.Sheet{Name: name}
		for i, cells := range rows {
			s.Rows = append(s.Rows, xlsxparser.Row{Number: i + 2, Cells: cells})
		}
		wb.Sheets[name] = s
		wb.Order = append(wb.Order, name)
	}
	return wb
}

// failingStore delegates to a memory store and fails the failAt-th insert
// (1-based, across all kinds).
type failingStore struct {
	*storage.Memory
	failAt int
	calls  int
}

func newFailingStore(failAt int) *failingStore {
	return &failingStore{Memory: storage.NewMemory(), failAt: failAt}
}

func (s *failingStore) fail() bool {
	s.calls++
	return s.calls == s.failAt
}

func (s *failingStore) AddDebt(ctx context.Context, d *types.Debt) (int64, error) {
	if s.fail() {
		return 0, errDiskFull
	}
	return s.Memory.AddDebt(ctx, d)
}

func (s *failingStore) AddDebtPayment(ctx context.Context, p *types.DebtPayment) (int64, error) {
	if s.fail() {
		return 0, errDiskFull
	}
	return s.Memory.AddDebtPayment(ctx, p)
}

func (s *failingStore) AddReceivable(ctx context.Context, r *types.Receivable) (int64, error) {
	if s.fail() {
		return 0, errDiskFull
	}
	return s.Memory.AddReceivable(ctx, r)
}

func (s *failingStore) AddReceivablePayment(ctx context.Context, p *types.ReceivablePayment) (int64, error) {
	if s.fail() {
		return 0, errDiskFull
	}
	return s.Memory.AddReceivablePayment(ctx, p)
}

func (s *failingStore) AddIncome(ctx context.Context, in *types.Income) (int64, error) {
	if s.fail() {
		return 0, errDiskFull
	}
	return s.Memory.AddIncome(ctx, in)
}

func (s *failingStore) AddExpense(ctx context.Context, e *types.Expense) (int64, error) {
	if s.fail() {
		return 0, errDiskFull
	}
	return s.Memory.AddExpense(ctx, e)
}

func (s *failingStore) AddMaintenance(ctx context.Context, m *types.MaintenanceLog) (int64, error) {
	if s.fail() {
		return 0, errDiskFull
	}
	return s.Memory.AddMaintenance(ctx, m)
}
