package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/render"
	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

var (
	watchDebounce time.Duration
	watchNoSync   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep the collection in sync with a directory",
	Long: `Adds every supported document under the directory, then watches it and
re-indexes files as they change. A changed file replaces all of its previous
chunks; a deleted file has its chunks removed.

Runs until interrupted with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond,
		"wait this long for a file to settle before re-indexing it")
	watchCmd.Flags().BoolVar(&watchNoSync, "no-sync", false, "skip the initial pass over existing files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	if err := requireIndex(); err != nil {
		return err
	}
	styles := render.ForTerminal(isTerminal(cmd.OutOrStdout()))

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := filesystem.New(dir,
		filesystem.WithExtensions(documentExtensions()...),
		filesystem.WithDebounce(watchDebounce),
		filesystem.WithLogger(logger.Default()),
	)
	defer watcher.Close()

	// Start watching before the sync so edits made during it are not lost.
	changes, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	if !watchNoSync {
		files, err := watcher.Files(ctx)
		if err != nil {
			return err
		}
		synced := 0
		for _, file := range files {
			if ctx.Err() != nil {
				break
			}
			if applyChange(ctx, cmd, styles, domain.FileChange{Type: domain.ChangeCreated, Path: file}) {
				synced++
			}
		}
		cmd.Println(styles.Success.Render(fmt.Sprintf("Synced %d of %d documents", synced, len(files))))
	}

	cmd.Println(styles.Label.Render("Watching: ") + styles.Title.Render(dir) + styles.Muted.Render(" (Ctrl-C to stop)"))
	for change := range changes {
		applyChange(ctx, cmd, styles, change)
	}
	cmd.Println(styles.Muted.Render("Stopped watching."))
	return nil
}

// applyChange mirrors one file change into the collection and reports it.
// Failures are printed, not returned, so one bad file does not stop the
// watch.
func applyChange(ctx context.Context, cmd *cobra.Command, styles *render.Styles, change domain.FileChange) bool {
	docID := change.DocumentID()

	if change.Type == domain.ChangeDeleted {
		removed, err := ingestService.RemoveDocument(ctx, docID)
		if err != nil {
			cmd.Println(styles.Error.Render(fmt.Sprintf("x %s: %v", change.Path, err)))
			return false
		}
		cmd.Printf("- %s (%d chunks removed)\n", change.Path, removed)
		return true
	}

	result, err := ingestService.ReplaceDocument(ctx, change.Path, docID)
	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		// Removed again before it could be read; a delete event follows.
		return false
	case err != nil:
		cmd.Println(styles.Error.Render(fmt.Sprintf("x %s: %v", change.Path, err)))
		return false
	}
	cmd.Printf("+ %s %s (%d chunks)\n", change.Type, change.Path, result.ChunksIndexed)
	return true
}
