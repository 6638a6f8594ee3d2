package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/render"
)

var infoAll bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show collection information",
	Long:  `Shows the active collection, its chunk count and the size of the index on disk.`,
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().BoolVar(&infoAll, "all", false, "also list every collection in the index")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, _ []string) error {
	if err := requireIndex(); err != nil {
		return err
	}
	ctx := commandContext(cmd)
	styles := render.ForTerminal(isTerminal(cmd.OutOrStdout()))

	info, err := collectionService.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to get collection info: %w", err)
	}

	cmd.Printf("%s %s\n", styles.Label.Render("Collection:"), info.Name)
	cmd.Printf("%s %d\n", styles.Label.Render("Total chunks:"), info.TotalChunks)
	cmd.Printf("%s %s\n", styles.Label.Render("Distance:"), info.Distance)
	if info.Dimension > 0 {
		cmd.Printf("%s %d\n", styles.Label.Render("Dimension:"), info.Dimension)
	}
	if !info.CreatedAt.IsZero() {
		cmd.Printf("%s %s\n", styles.Label.Render("Created:"), info.CreatedAt.Local().Format(time.DateTime))
	}
	cmd.Printf("%s %s\n", styles.Label.Render("Database size:"), databaseSize())

	if !infoAll {
		return nil
	}

	collections, err := collectionService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	cmd.Println()
	cmd.Println(styles.Title.Render("Collections"))
	for _, c := range collections {
		cmd.Printf("  %s %s\n", c.Name, styles.Muted.Render(fmt.Sprintf("(%s, dim %d)", c.Distance, c.Dimension)))
	}
	return nil
}
