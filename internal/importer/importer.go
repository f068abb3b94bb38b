// =============================================================================
// catatkeu - Importer Module
// =============================================================================
//
// This module turns an exported file into stored records. It orchestrates the
// whole pipeline for a single file, from reading the bytes to the last insert.
//
// IMPORT PIPELINE:
//   1. Read the whole file (no streaming)
//   2. Parse it as a workbook (xlsx / xls) or as a text export
//   3. Normalize every row or item into a record
//   4. Resolve payment rows to the parents inserted by the same call
//   5. Insert records one at a time, in source order
//
// FAILURE POLICY:
//   - Malformed fields degrade to defaults (see package normalize)
//   - Rows without their discriminating field are skipped and logged at debug
//   - An unreadable file or a failing insert aborts the call; the counts of
//     the aborted call are discarded, inserted records stay stored
//
// CONCURRENCY:
//   An Importer may be shared, but each call runs sequentially. Inserts are
//   never fanned out so a parent's ID exists before its payments are read.
//
// =============================================================================

package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/catatkeu/catatkeu/internal/config"
	"github.com/catatkeu/catatkeu/internal/types"
	"github.com/catatkeu/catatkeu/internal/xlsxparser"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnreadableFile is returned when the input cannot be read at all.
	ErrUnreadableFile = errors.New("failed to read import file")

	// ErrInvalidWorkbook is returned when the bytes are not an xlsx or xls
	// workbook.
	ErrInvalidWorkbook = xlsxparser.ErrInvalidWorkbook

	// ErrUnsupportedFormat is returned for file extensions no importer reads.
	ErrUnsupportedFormat = errors.New("unsupported import format")
)

// =============================================================================
// STORE
// =============================================================================

// Store is the storage collaborator. Each Add inserts one record and returns
// the ID it assigned. The importer never reads back.
type Store interface {
	AddDebt(ctx context.Context, d *types.Debt) (int64, error)
	AddDebtPayment(ctx context.Context, p *types.DebtPayment) (int64, error)
	AddReceivable(ctx context.Context, r *types.Receivable) (int64, error)
	AddReceivablePayment(ctx context.Context, p *types.ReceivablePayment) (int64, error)
	AddIncome(ctx context.Context, in *types.Income) (int64, error)
	AddExpense(ctx context.Context, e *types.Expense) (int64, error)
	AddMaintenance(ctx context.Context, m *types.MaintenanceLog) (int64, error)
}

// =============================================================================
// IMPORTER STRUCTURE
// =============================================================================

// Importer writes imported records into a Store.
type Importer struct {
	store  Store
	logger *log.Logger

	// defaults fill optional record fields.
	defaults config.Defaults

	// date1904 forces the 1904 workbook date system.
	date1904 bool

	// now is the clock behind the "today" date fallback.
	now func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger. Skipped rows are logged at debug level.
func WithLogger(logger *log.Logger) Option {
	return func(imp *Importer) {
		if logger != nil {
			imp.logger = logger
		}
	}
}

// WithConfig applies the import settings of cfg (record defaults and the
// workbook date system).
func WithConfig(cfg *config.MainConfig) Option {
	return func(imp *Importer) {
		if cfg == nil {
			return
		}
		imp.date1904 = cfg.Date1904
		if cfg.Defaults.DebtKind != "" {
			imp.defaults.DebtKind = cfg.Defaults.DebtKind
		}
		if cfg.Defaults.IncomeKind != "" {
			imp.defaults.IncomeKind = cfg.Defaults.IncomeKind
		}
		if cfg.Defaults.DebtTermMonths > 0 {
			imp.defaults.DebtTermMonths = cfg.Defaults.DebtTermMonths
		}
	}
}

// WithClock replaces the wall clock used for the "today" fallback.
func WithClock(now func() time.Time) Option {
	return func(imp *Importer) {
		if now != nil {
			imp.now = now
		}
	}
}

// New creates an Importer writing to store.
//
// PARAMETERS:
//   - store: The storage collaborator receiving the records.
//   - opts: Optional settings (logger, config, clock).
//
// RETURNS:
//   - A new Importer instance.
func New(store Store, opts ...Option) *Importer {
	imp := &Importer{
		store:  store,
		logger: log.Default(),
		defaults: config.Defaults{
			DebtKind:       "Lainnya",
			IncomeKind:     "Lainnya",
			DebtTermMonths: 12,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(imp)
	}
	return imp
}

// =============================================================================
// FORMATS
// =============================================================================

// Format identifies the kind of file being imported.
type Format string

const (
	FormatAuto Format = "auto"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatText Format = "txt"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatXLSX, FormatXLS, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// IsSpreadsheet reports whether f is read by the spreadsheet importer.
func (f Format) IsSpreadsheet() bool {
	return f == FormatXLSX || f == FormatXLS
}

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of importing a single file.
type Result struct {
	// RunID identifies this import in the run log.
	RunID string

	// FilePath is the path to the imported file.
	FilePath string

	// Format is the format the file was read as.
	Format Format

	// Counts holds the inserted records per kind. It is zero when the import
	// failed, even if some records were stored before the failure.
	Counts types.Counts

	// Success indicates whether the import completed.
	Success bool

	// Error contains the error if the import failed.
	Error error

	// Duration is the time taken to import the file.
	Duration time.Duration
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// ImportFile imports one file from disk.
//
// PARAMETERS:
//   - ctx: Passed to every store call.
//   - path: The file to import.
//   - format: FormatAuto to detect from the extension, or a fixed format.
//
// RETURNS:
//   - A Result describing the outcome. ImportFile itself never fails; the
//     error is carried in Result.Error.
func (imp *Importer) ImportFile(ctx context.Context, path string, format Format) (result Result) {
	start := time.Now()
	result = Result{
		RunID:    uuid.New().String(),
		FilePath: path,
		Format:   format,
	}
	defer func() { result.Duration = time.Since(start) }()

	if format == "" || format == FormatAuto {
		detected, err := DetectFormat(path)
		if err != nil {
			result.Error = err
			return result
		}
		result.Format = detected
	}

	imp.logger.Info("importing file", "path", path, "format", result.Format, "run", result.RunID)

	f, err := os.Open(path)
	if err != nil {
		result.Error = fmt.Errorf("%w: %w", ErrUnreadableFile, err)
		return result
	}
	defer f.Close()

	var counts types.Counts
	if result.Format.IsSpreadsheet() {
		counts, err = imp.ImportSpreadsheet(ctx, f)
	} else {
		counts, err = imp.ImportText(ctx, f)
	}
	if err != nil {
		result.Error = err
		imp.logger.Error("import failed", "path", path, "err", err)
		return result
	}

	result.Counts = counts
	result.Success = true
	imp.logger.Info("import complete", "path", path, "records", counts.Total())
	return result
}
