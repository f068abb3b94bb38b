// Package storage persists imported records.
//
// Two backends implement the same method set:
//
//	Memory     in-process, used by tests and `import --dry-run`
//	GormStore  sqlite or postgres through gorm
//
// Every Add method inserts one record, assigns its ID and returns it. Stores
// never update or delete.
package storage

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/catatkeu/catatkeu/internal/config"
	"github.com/catatkeu/catatkeu/internal/types"
)

// Backend is the method set shared by Memory and GormStore.
type Backend interface {
	AddDebt(ctx context.Context, d *types.Debt) (int64, error)
	AddDebtPayment(ctx context.Context, p *types.DebtPayment) (int64, error)
	AddReceivable(ctx context.Context, r *types.Receivable) (int64, error)
	AddReceivablePayment(ctx context.Context, p *types.ReceivablePayment) (int64, error)
	AddIncome(ctx context.Context, in *types.Income) (int64, error)
	AddExpense(ctx context.Context, e *types.Expense) (int64, error)
	AddMaintenance(ctx context.Context, m *types.MaintenanceLog) (int64, error)

	Summary(ctx context.Context) (types.Summary, error)
	Close() error
}

// New opens the backend selected by cfg.Driver.
func New(cfg config.Database, logger *log.Logger) (Backend, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return NewMemory(), nil
	case config.DriverSQLite, config.DriverPostgres:
		store, err := Open(cfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
}
