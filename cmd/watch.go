// =============================================================================
// catatkeu - Watch Command
// =============================================================================
//
// This file defines the 'watch' command. It keeps running, watches the inbox
// directory and imports every export dropped into it.
//
// COMMAND USAGE:
//   catatkeu watch [--archive]
//
// Files are imported one at a time in the order they settle. Each imported
// file gets its own run log. Stop with Ctrl+C.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/catatkeu/catatkeu/internal/importer"
	"github.com/catatkeu/catatkeu/internal/storage"
	"github.com/catatkeu/catatkeu/pkg/utils"
)

var watchArchive bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox directory and import new exports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runWatch(ctx, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchArchive, "archive", false,
		"Move imported files to the archive directory")
}

// runWatch imports inbox files as they appear until ctx is done.
func runWatch(ctx context.Context, out io.Writer) error {
	fm := utils.NewFileManager(appConfig.InboxDir, appConfig.ArchiveDir, appConfig.LogDir)
	fm.ArchiveOnSuccess = watchArchive || appConfig.ArchiveOnSuccess
	fm.UseTimestampSubdirs = appConfig.ArchiveByDate
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}

	store, err := storage.New(appConfig.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	imp := importer.New(store, importer.WithLogger(logger), importer.WithConfig(appConfig))

	w := &utils.InboxWatcher{Dir: fm.InboxDir, Logger: logger}
	fmt.Fprintf(out, "=== catatkeu watch: %s ===\n", fm.InboxDir)

	return w.Run(ctx, func(path string) {
		summary := utils.NewRunSummary(time.Now(), false)
		summary.Files = append(summary.Files, importOne(ctx, out, imp, fm, path, importer.FormatAuto))
		summary.EndTime = time.Now()

		if appConfig.LogDir == "" {
			return
		}
		if _, err := utils.WriteRunLog(summary, appConfig.LogDir); err != nil {
			logger.Warn("failed to write run log", "err", err)
		}
	})
}
