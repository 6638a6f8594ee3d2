package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/render"
	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/normalisers"
)

var (
	addDocID string
	addClean bool
)

var addCmd = &cobra.Command{
	Use:   "add [file|directory]",
	Short: "Add a document or a directory of documents to the collection",
	Long: `Splits the file into overlapping chunks, embeds every chunk and writes the
vectors to the collection in batches. Chunks that fail to embed are skipped.

Markdown, HTML and DOCX files are converted to text first; anything else is
read as plain text.

Given a directory, every supported file below it is added under its file
name. Hidden files and directories are skipped. A file that fails is
reported and the rest are still added.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addDocID, "id", "", "document id (default: file name without extension)")
	addCmd.Flags().BoolVar(&addClean, "clean", false, "delete all chunks in the collection before adding")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := requireIndex(); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	tty := isTerminal(cmd.OutOrStdout())
	styles := render.ForTerminal(tty)

	info, statErr := os.Stat(path)
	isDir := statErr == nil && info.IsDir()
	if isDir && addDocID != "" {
		return fmt.Errorf("%w: --id cannot be used with a directory", domain.ErrInvalidInput)
	}

	if addClean {
		if err := collectionService.Reset(ctx); err != nil {
			if !errors.Is(err, domain.ErrResetFailed) {
				return fmt.Errorf("reset failed: %w", err)
			}
			cmd.Println(styles.Error.Render(fmt.Sprintf("Error resetting collection: %v", err)))
		} else {
			cmd.Println(styles.Warning.Render("Collection has been reset."))
		}
	}

	if isDir {
		return addDirectory(ctx, cmd, styles, path)
	}

	preview, err := ingestService.Preview(path)
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotFound) {
			return fmt.Errorf("file not found: %s", path)
		}
		return err
	}
	printPreview(cmd, styles, preview)

	progress := render.NewProgress(styles, 0)
	ingestService.SetProgressFunc(func(p domain.IngestProgress) {
		if tty {
			cmd.Print("\r" + progress.Line(p))
			return
		}
		cmd.Println(progress.Line(p))
	})
	defer ingestService.SetProgressFunc(nil)

	result, err := ingestService.AddDocument(ctx, path, addDocID)
	if tty && result.Batches > 0 {
		cmd.Println()
	}
	if err != nil {
		return fmt.Errorf("add failed after %d chunks: %w", result.ChunksIndexed, err)
	}

	cmd.Println(styles.Success.Render(
		fmt.Sprintf("Successfully added %d chunks from %s", result.ChunksIndexed, result.DocumentID)))
	if result.ChunksFailed > 0 {
		cmd.Println(styles.Warning.Render(
			fmt.Sprintf("%d of %d chunks could not be embedded and were skipped",
				result.ChunksFailed, result.ChunksProduced)))
	}

	cmd.Println(styles.Label.Render("Database size: ") + databaseSize())
	return nil
}

// addDirectory adds every supported file under dir, continuing past
// failures, and returns an error when any file failed.
func addDirectory(ctx context.Context, cmd *cobra.Command, styles *render.Styles, dir string) error {
	files, err := filesystem.New(dir, filesystem.WithExtensions(documentExtensions()...)).Files(ctx)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		cmd.Println(styles.Warning.Render("No supported documents found in " + dir))
		return nil
	}

	cmd.Println(styles.Label.Render("Adding documents from: ") + styles.Title.Render(dir))
	var chunks, failed, dropped int
	for _, file := range files {
		result, err := ingestService.AddDocument(ctx, file, "")
		if err != nil {
			failed++
			cmd.Println(styles.Error.Render(fmt.Sprintf("   x %s: %v", file, err)))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		chunks += result.ChunksIndexed
		dropped += result.ChunksFailed
		cmd.Printf("   - %s (%d chunks)\n", file, result.ChunksIndexed)
	}

	added := len(files) - failed
	cmd.Println(styles.Success.Render(
		fmt.Sprintf("Added %d chunks from %d of %d documents", chunks, added, len(files))))
	if dropped > 0 {
		cmd.Println(styles.Warning.Render(
			fmt.Sprintf("%d chunks could not be embedded and were skipped", dropped)))
	}
	cmd.Println(styles.Label.Render("Database size: ") + databaseSize())

	if failed > 0 {
		return fmt.Errorf("%d of %d documents could not be added", failed, len(files))
	}
	return nil
}

// documentExtensions lists the file extensions add and watch pick up.
func documentExtensions() []string {
	exts := slices.Clone(filesystem.PlainTextExtensions)
	exts = append(exts, normalisers.NewDefaultRegistry().Extensions()...)
	return exts
}

func printPreview(cmd *cobra.Command, styles *render.Styles, p domain.DocumentPreview) {
	cmd.Println(styles.Label.Render("Processing document: ") + styles.Title.Render(p.Name))
	cmd.Printf("   - %s %s\n", styles.Label.Render("Word Count:"), humanize.Comma(int64(p.WordCount)))
	cmd.Printf("   - %s %d characters\n", styles.Label.Render("Chunk Size:"), p.ChunkSize)
	cmd.Printf("   - %s %d characters\n", styles.Label.Render("Overlap:"), p.Overlap)
	if p.EstimatedChunks > 0 {
		cmd.Printf("   - %s ~%d\n", styles.Label.Render("Est. Chunks:"), p.EstimatedChunks)
	}
}

// databaseSize formats the storage directory size for display.
func databaseSize() string {
	size, err := collectionService.DiskUsage()
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "Database directory not found."
	case err != nil:
		return fmt.Sprintf("Error calculating size: %v", err)
	default:
		return humanize.Bytes(uint64(size)) //nolint:gosec // G115: size is never negative
	}
}
