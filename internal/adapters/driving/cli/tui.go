package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui"
)

var errNotTerminal = errors.New("tui requires an interactive terminal; use 'docrag search' instead")

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Search the collection interactively",
	Long: `Open a full-screen search screen. Type a query and press enter, move
through results with j/k and press enter to read a whole chunk.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	tuiCmd.Flags().IntP("results", "n", tui.DefaultResults, "Number of results per query")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal(cmd.OutOrStdout()) {
		return errNotTerminal
	}
	k, err := cmd.Flags().GetInt("results")
	if err != nil {
		return fmt.Errorf("getting results flag: %w", err)
	}
	if err := requireIndex(); err != nil {
		return err
	}

	app, err := tui.NewApp(&tui.Ports{
		Search:     searchService,
		Collection: collectionService,
	}, k)
	if err != nil {
		return err
	}
	return app.WithContext(commandContext(cmd)).Run()
}
