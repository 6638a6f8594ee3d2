package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/render"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	askResults int
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the collection",
	Long: `Retrieves the chunks nearest to the question and asks the configured
language model to answer using only those passages. The passages are listed
after the answer.

A language model must be configured first, for example:

  docrag settings set llm.provider ollama
  docrag settings set llm.model llama3.2`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askResults, "results", "n", domain.DefaultSearchResults, "number of passages to retrieve")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireIndex(); err != nil {
		return err
	}
	if answerService == nil {
		if answerErr != nil {
			return answerErr
		}
		return fmt.Errorf("%w: run 'docrag settings set llm.provider ollama'", domain.ErrLLMUnavailable)
	}

	answer, err := answerService.Ask(commandContext(cmd), args[0], askResults)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		if answer.Sources == nil {
			answer.Sources = []domain.SearchResult{}
		}
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	styles := render.ForTerminal(isTerminal(cmd.OutOrStdout()))
	if !answer.HasContext() {
		cmd.Println(styles.Error.Render("No relevant passages found."))
		return nil
	}

	cmd.Println()
	cmd.Println(styles.Title.Render("Answer"))
	cmd.Println(answer.Text)
	cmd.Println()
	cmd.Println(styles.Title.Render("Sources") + " " + styles.Muted.Render("("+answer.Model+")"))
	cmd.Println(render.ResultsTable(answer.Sources, styles))
	return nil
}
