package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/render"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	searchResults int
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the collection",
	Long: `Embeds the query and returns the nearest chunks in the collection,
most relevant first. Relevance is 1 minus the vector distance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchResults, "results", "n", domain.DefaultSearchResults, "number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]
	if err := requireIndex(); err != nil {
		return err
	}

	results, err := searchService.Search(commandContext(cmd), query, searchResults)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, query, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	if results == nil {
		results = []domain.SearchResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, query string, results []domain.SearchResult) error {
	styles := render.ForTerminal(isTerminal(cmd.OutOrStdout()))
	if len(results) == 0 {
		cmd.Println(styles.Error.Render("No results found."))
		return nil
	}

	cmd.Println()
	cmd.Println(styles.Title.Render(fmt.Sprintf("Results for: '%s'", query)))
	cmd.Println(render.ResultsTable(results, styles))
	return nil
}
