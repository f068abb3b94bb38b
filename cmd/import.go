// =============================================================================
// catatkeu - Import Command
// =============================================================================
//
// This file defines the 'import' command, the main command of the tool. It
// imports workbook and text exports into the configured database.
//
// COMMAND USAGE:
//   catatkeu import [files...] [flags]
//
// FLAGS:
//   --format   : auto (by extension), xlsx, xls or txt
//   --dry-run  : Import into an in-memory store; nothing is written
//   --inbox    : Also import every export found in the inbox directory
//   --archive  : Move successfully imported files to the archive directory
//
// PROCESSING PIPELINE:
//   1. Collect the files (arguments and, with --inbox, the inbox)
//   2. Open the database (or a memory store for --dry-run)
//   3. Import each file in turn; files never run concurrently so the
//      records of one file are stored before the next file starts
//   4. Archive imported files when enabled
//   5. Write the run log and print the totals
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/catatkeu/catatkeu/internal/importer"
	"github.com/catatkeu/catatkeu/internal/storage"
	"github.com/catatkeu/catatkeu/internal/types"
	"github.com/catatkeu/catatkeu/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	importFormat  string
	importDryRun  bool
	importInbox   bool
	importArchive bool
)

// =============================================================================
// IMPORT COMMAND DEFINITION
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import [files...]",
	Short: "Import workbook (.xlsx, .xls) and text (.txt) exports",
	Long: `The import command reads each file and stores its records.

Workbooks may hold the sheets Hutang, Pembayaran Hutang, Piutang,
Pembayaran Piutang, Pemasukan, Pengeluaran and Maintenance. Payments are
linked to the debts and receivables of the same file, by their exported ID
or, failing that, by name.

Each file is imported on its own. A failing file stops at the failing record;
records stored before it are kept and the remaining files are still imported.

On success:
  - The record counts are printed and written to the run log
  - With --archive the file is moved to the archive directory

On error:
  - The file stays where it is
  - The command exits with a non-zero status`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)

	importCmd.Flags().StringVar(&importFormat, "format", string(importer.FormatAuto),
		"File format: auto, xlsx, xls or txt")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false,
		"Import into memory only; the database is not touched")
	importCmd.Flags().BoolVar(&importInbox, "inbox", false,
		"Import every export in the inbox directory")
	importCmd.Flags().BoolVar(&importArchive, "archive", false,
		"Move imported files to the archive directory")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runImport(ctx context.Context, out io.Writer, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	format, err := importer.ParseFormat(importFormat)
	if err != nil {
		return err
	}

	fm := utils.NewFileManager(appConfig.InboxDir, appConfig.ArchiveDir, appConfig.LogDir)
	fm.ArchiveOnSuccess = (importArchive || appConfig.ArchiveOnSuccess) && !importDryRun
	fm.UseTimestampSubdirs = appConfig.ArchiveByDate

	// =========================================================================
	// STEP 1: COLLECT FILES
	// =========================================================================

	files := append([]string(nil), args...)
	if importInbox {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		found, err := fm.DiscoverInputFiles()
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to import (pass file paths or use --inbox)")
	}

	// =========================================================================
	// STEP 2: OPEN STORAGE
	// =========================================================================

	var store storage.Backend
	if importDryRun {
		store = storage.NewMemory()
		logger.Info("dry run: records are kept in memory only")
	} else {
		store, err = storage.New(appConfig.Database, logger)
		if err != nil {
			return err
		}
	}
	defer store.Close()

	imp := importer.New(store, importer.WithLogger(logger), importer.WithConfig(appConfig))

	// =========================================================================
	// STEP 3: IMPORT FILES SEQUENTIALLY
	// =========================================================================

	fmt.Fprintln(out, "=== catatkeu import ===")
	summary := utils.NewRunSummary(start, importDryRun)

	for _, path := range files {
		summary.Files = append(summary.Files, importOne(ctx, out, imp, fm, path, format))
	}

	// =========================================================================
	// STEP 4: RUN LOG AND TOTALS
	// =========================================================================

	summary.EndTime = time.Now()

	if appConfig.LogDir != "" {
		logPath, err := utils.WriteRunLog(summary, appConfig.LogDir)
		if err != nil {
			logger.Warn("failed to write run log", "err", err)
		} else {
			logger.Debug("run log written", "path", logPath)
		}
	}

	totals := summary.Totals()
	fmt.Fprintln(out, "\n=== Import Complete ===")
	fmt.Fprintf(out, "Total files:     %d\n", len(summary.Files))
	fmt.Fprintf(out, "Successful:      %d\n", summary.Succeeded())
	fmt.Fprintf(out, "Errors:          %d\n", summary.Failed())
	fmt.Fprintf(out, "Records:         %d (%s)\n", totals.Total(), formatCounts(totals))
	fmt.Fprintf(out, "Time elapsed:    %s\n", summary.EndTime.Sub(start).Round(time.Millisecond))

	if failed := summary.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed to import", failed, len(summary.Files))
	}
	return nil
}

// importOne imports a single file, prints its outcome line and archives it
// when the import succeeded and archiving is enabled.
func importOne(ctx context.Context, out io.Writer, imp *importer.Importer, fm *utils.FileManager, path string, format importer.Format) utils.FileOutcome {
	res := imp.ImportFile(ctx, path, format)

	outcome := utils.FileOutcome{
		Path:     res.FilePath,
		Format:   string(res.Format),
		Success:  res.Success,
		Counts:   res.Counts,
		Duration: res.Duration,
	}

	if !res.Success {
		outcome.Error = res.Error.Error()
		fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(path), res.Error)
		return outcome
	}

	fmt.Fprintf(out, "  ✓ %s: %s\n", filepath.Base(path), formatCounts(res.Counts))

	if fm.ArchiveOnSuccess {
		archived, err := fm.ArchiveInputFile(path)
		if err != nil {
			// The records are stored; a failed move does not fail the file.
			logger.Warn("failed to archive file", "path", path, "err", err)
		} else {
			outcome.ArchivePath = archived
		}
	}
	return outcome
}

// formatCounts renders the non-zero counts, e.g. "hutang=2 pemasukan=5".
func formatCounts(c types.Counts) string {
	parts := []struct {
		name string
		n    int
	}{
		{"hutang", c.Debts},
		{"pembayaranHutang", c.DebtPayments},
		{"piutang", c.Receivables},
		{"pembayaranPiutang", c.ReceivablePayments},
		{"pemasukan", c.Incomes},
		{"pengeluaran", c.Expenses},
		{"maintenance", c.Maintenance},
	}

	s := ""
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		if s != "" {
			s += " "
		}
		s += fmt.Sprintf("%s=%d", p.name, p.n)
	}
	if s == "" {
		return "no records"
	}
	return s
}
