package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/render"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete the entire index",
	Long: `Deletes every collection and removes the index storage directory.
This ignores --collection: all collections are removed.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, _ []string) error {
	if err := requireIndex(); err != nil {
		return err
	}
	styles := render.ForTerminal(isTerminal(cmd.OutOrStdout()))

	if err := collectionService.Clean(commandContext(cmd)); err != nil {
		return fmt.Errorf("clean failed: %w", err)
	}
	// Clean closes the store itself; the clients are still released on exit.
	closeStore = nil

	cmd.Println(styles.Success.Render("Index deleted."))
	return nil
}
