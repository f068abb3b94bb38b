package storage

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/catatkeu/catatkeu/internal/config"
	"github.com/catatkeu/catatkeu/internal/types"
)

// GormStore persists records in sqlite or postgres.
type GormStore struct {
	db     *gorm.DB
	logger *log.Logger
}

// Open connects to the configured database and, unless disabled, migrates
// every table. A failing table migration is logged and skipped so the others
// still get created.
func Open(cfg config.Database, logger *log.Logger) (*GormStore, error) {
	if logger == nil {
		logger = log.Default()
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DSN)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported gorm driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == config.DriverSQLite {
		// One connection keeps ":memory:" databases shared and writes ordered.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sqlite handle: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	store := &GormStore{db: db, logger: logger}
	if cfg.ShouldMigrate() {
		store.migrate()
	}
	return store, nil
}

func (s *GormStore) migrate() {
	for _, model := range types.AllModels() {
		if err := s.db.AutoMigrate(model); err != nil {
			s.logger.Warn("migration failed", "model", fmt.Sprintf("%T", model), "err", err)
		}
	}
}

// Close releases the database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) AddDebt(ctx context.Context, d *types.Debt) (int64, error) {
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return 0, err
	}
	return d.ID, nil
}

func (s *GormStore) AddDebtPayment(ctx context.Context, p *types.DebtPayment) (int64, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *GormStore) AddReceivable(ctx context.Context, r *types.Receivable) (int64, error) {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (s *GormStore) AddReceivablePayment(ctx context.Context, p *types.ReceivablePayment) (int64, error) {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return 0, err
	}
	return p.ID, nil
}

func (s *GormStore) AddIncome(ctx context.Context, in *types.Income) (int64, error) {
	if err := s.db.WithContext(ctx).Create(in).Error; err != nil {
		return 0, err
	}
	return in.ID, nil
}

func (s *GormStore) AddExpense(ctx context.Context, e *types.Expense) (int64, error) {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return 0, err
	}
	return e.ID, nil
}

func (s *GormStore) AddMaintenance(ctx context.Context, m *types.MaintenanceLog) (int64, error) {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return 0, err
	}
	return m.ID, nil
}

// Summary computes the dashboard totals with aggregate queries.
func (s *GormStore) Summary(ctx context.Context) (types.Summary, error) {
	db := s.db.WithContext(ctx)
	var sum types.Summary

	queries := []struct {
		model  any
		column string
		dest   *int64
	}{
		{&types.Debt{}, "total_amount", &sum.DebtTotal},
		{&types.DebtPayment{}, "amount", &sum.DebtPaid},
		{&types.Receivable{}, "total_amount", &sum.ReceivableTotal},
		{&types.ReceivablePayment{}, "amount", &sum.ReceivablePaid},
		{&types.Income{}, "amount", &sum.IncomeTotal},
		{&types.Expense{}, "amount", &sum.ExpenseTotal},
	}
	for _, q := range queries {
		err := db.Model(q.model).
			Select(fmt.Sprintf("CAST(COALESCE(SUM(%s), 0) AS BIGINT)", q.column)).
			Scan(q.dest).Error
		if err != nil {
			return types.Summary{}, fmt.Errorf("sum %T.%s: %w", q.model, q.column, err)
		}
	}

	counts := []struct {
		model any
		dest  *int64
	}{
		{&types.Debt{}, &sum.DebtCount},
		{&types.Receivable{}, &sum.ReceivableCount},
		{&types.MaintenanceLog{}, &sum.MaintenanceCount},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return types.Summary{}, fmt.Errorf("count %T: %w", c.model, err)
		}
	}

	var latest []types.MaintenanceLog
	if err := db.Order("date DESC").Order("id DESC").Limit(1).Find(&latest).Error; err != nil {
		return types.Summary{}, fmt.Errorf("latest maintenance: %w", err)
	}
	if len(latest) > 0 {
		sum.NextServiceOdometer = latest[0].NextOdometer
	}

	return sum, nil
}
