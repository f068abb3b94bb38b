// =============================================================================
// catatkeu - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the import command:
//   - Inbox discovery (.xlsx, .xls and .txt exports)
//   - File archival (moving imported files)
//   - Run log generation
//
// ARCHIVAL STRATEGY:
//   - Files are moved to the archive directory after a successful import
//   - Failed files remain in the inbox so they can be fixed and retried
//   - A file already present in the archive is never overwritten
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/catatkeu/catatkeu/internal/types"
)

// ImportExtensions are the file extensions the importers understand.
var ImportExtensions = []string{".xlsx", ".xlsm", ".xls", ".txt"}

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations around an import run.
type FileManager struct {
	// InboxDir is where exports are dropped for `import --inbox`.
	InboxDir string

	// ArchiveDir receives imported files.
	ArchiveDir string

	// LogDir receives run logs.
	LogDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2026/10/19/backup.xlsx
	UseTimestampSubdirs bool

	// ArchiveOnSuccess determines whether ArchiveInputFile moves anything.
	ArchiveOnSuccess bool

	// now is the clock used for archive subdirectories and log names.
	now func() time.Time
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inboxDir, archiveDir, logDir string) *FileManager {
	return &FileManager{
		InboxDir:         inboxDir,
		ArchiveDir:       archiveDir,
		LogDir:           logDir,
		ArchiveOnSuccess: true,
		now:              time.Now,
	}
}

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectories creates all required directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InboxDir, fm.ArchiveDir, fm.LogDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles lists the inbox files with one of the given extensions
// (ImportExtensions when none are given), sorted by name. Subdirectories and
// hidden files are ignored.
//
// RETURNS:
//   - A slice of file paths.
//   - An error if the inbox cannot be read.
func (fm *FileManager) DiscoverInputFiles(extensions ...string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = ImportExtensions
	}

	entries, err := os.ReadDir(fm.InboxDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan inbox directory: %w", err)
	}

	var result []string
	for _, entry := range entries {
		if !entry.IsDir() && IsImportable(entry.Name(), extensions) {
			result = append(result, filepath.Join(fm.InboxDir, entry.Name()))
		}
	}

	sort.Strings(result)
	return result, nil
}

// IsImportable reports whether a file name looks like an export: not hidden,
// not an office lock file ("~$"), and with one of the extensions.
func IsImportable(name string, extensions []string) bool {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an imported file to the archive directory.
//
// PARAMETERS:
//   - filePath: The path to the file to archive.
//
// RETURNS:
//   - The path to the archived file (filePath itself when archiving is off).
//   - An error if archival fails.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if !fm.ArchiveOnSuccess {
		return filePath, nil
	}

	archivePath := fm.getArchivePath(filePath)

	if err := os.MkdirAll(filepath.Dir(archivePath), 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// If rename fails (e.g., cross-device), try copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// getArchivePath constructs the archive path for a file. A name already taken
// in the archive gets a short unique suffix.
func (fm *FileManager) getArchivePath(filePath string) string {
	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		now := fm.clock()
		dir = filepath.Join(
			dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	fileName := filepath.Base(filePath)
	path := filepath.Join(dir, fileName)
	if !FileExists(path) {
		return path
	}

	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	return filepath.Join(dir, fmt.Sprintf("%s_%s%s", stem, uuid.New().String()[:8], ext))
}

func (fm *FileManager) clock() time.Time {
	if fm.now == nil {
		return time.Now()
	}
	return fm.now()
}

// =============================================================================
// RUN LOG
// =============================================================================

// RunSummary describes one `catatkeu import` invocation.
type RunSummary struct {
	RunID     string
	StartTime time.Time
	EndTime   time.Time
	DryRun    bool
	Files     []FileOutcome
}

// FileOutcome is the result of importing one file.
type FileOutcome struct {
	Path        string
	Format      string
	Success     bool
	Error       string
	Counts      types.Counts
	ArchivePath string
	Duration    time.Duration
}

// NewRunSummary starts a summary with a fresh run ID.
func NewRunSummary(start time.Time, dryRun bool) *RunSummary {
	return &RunSummary{
		RunID:     uuid.New().String(),
		StartTime: start,
		DryRun:    dryRun,
	}
}

// Succeeded returns the number of files imported successfully.
func (s *RunSummary) Succeeded() int {
	n := 0
	for _, f := range s.Files {
		if f.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of files that failed.
func (s *RunSummary) Failed() int {
	return len(s.Files) - s.Succeeded()
}

// Totals sums the record counts of the successful files.
func (s *RunSummary) Totals() types.Counts {
	var total types.Counts
	for _, f := range s.Files {
		if f.Success {
			total = total.Add(f.Counts)
		}
	}
	return total
}

// WriteRunLog writes a run summary to a log file in dir.
//
// PARAMETERS:
//   - summary: The run summary.
//   - dir: The directory to write the log file.
//
// RETURNS:
//   - The path to the log file.
//   - An error if writing fails.
func WriteRunLog(summary *RunSummary, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	runID := summary.RunID
	if len(runID) > 8 {
		runID = runID[:8]
	}
	logFileName := fmt.Sprintf("import_%s_%s.log", summary.StartTime.Format("20060102_150405"), runID)
	logPath := filepath.Join(dir, logFileName)

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create run log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	totals := summary.Totals()

	fmt.Fprintf(writer, "catatkeu - Import Run\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Dry Run:        %t\n\n"+
		"Statistics:\n"+
		"  Total Files:    %d\n"+
		"  Successful:     %d\n"+
		"  Failed:         %d\n"+
		"  Records:        %d\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Sub(summary.StartTime).String(),
		summary.DryRun,
		len(summary.Files),
		summary.Succeeded(),
		summary.Failed(),
		totals.Total())

	for _, f := range summary.Files {
		status := "OK"
		if !f.Success {
			status = "FAILED"
		}
		fmt.Fprintf(writer, "[%s] %s (%s, %s)\n", status, f.Path, f.Format, f.Duration)
		if f.Error != "" {
			fmt.Fprintf(writer, "  Error:          %s\n", f.Error)
		}
		if f.Success {
			writeCounts(writer, f.Counts)
		}
		if f.ArchivePath != "" {
			fmt.Fprintf(writer, "  Archived to:    %s\n", f.ArchivePath)
		}
		writer.WriteString("\n")
	}

	writer.WriteString("================================================================================\n" +
		"End of Run Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush run log: %w", err)
	}

	return logPath, nil
}

func writeCounts(w io.Writer, c types.Counts) {
	fmt.Fprintf(w, "  Hutang:              %d\n", c.Debts)
	fmt.Fprintf(w, "  Pembayaran Hutang:   %d\n", c.DebtPayments)
	fmt.Fprintf(w, "  Piutang:             %d\n", c.Receivables)
	fmt.Fprintf(w, "  Pembayaran Piutang:  %d\n", c.ReceivablePayments)
	fmt.Fprintf(w, "  Pemasukan:           %d\n", c.Incomes)
	fmt.Fprintf(w, "  Pengeluaran:         %d\n", c.Expenses)
	fmt.Fprintf(w, "  Maintenance:         %d\n", c.Maintenance)
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
