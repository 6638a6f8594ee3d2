package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change embedding, chunking and index settings.

Effective settings combine built-in defaults, the config file, a .env file
and environment variables, in that order.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Persist a setting to the config file",
	Long: `Validates and saves a single setting, for example:

  docrag settings set chunking.chunk_size 800
  docrag settings set embedding.model mxbai-embed-large

Run 'docrag settings keys' for the full list.`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	Args:  cobra.NoArgs,
	RunE:  runSettingsKeys,
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configured providers are reachable",
	Args:  cobra.NoArgs,
	RunE:  runSettingsCheck,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if collectionName != "" {
		settings.Index.Collection = collectionName
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	cmd.Printf("  Timeout: %s\n", settings.Embedding.Timeout)
	if settings.Embedding.RateLimit > 0 {
		cmd.Printf("  Rate Limit: %g requests/s\n", settings.Embedding.RateLimit)
	} else {
		cmd.Printf("  Rate Limit: unlimited\n")
	}
	cmd.Println()

	cmd.Println("[LLM]")
	if settings.LLM.IsEnabled() {
		cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
		cmd.Printf("  Model: %s\n", orDefault(settings.LLM.Model))
		cmd.Printf("  Base URL: %s\n", orDefault(settings.LLM.BaseURL))
		if settings.LLM.Provider.RequiresAPIKey() {
			if settings.LLM.APIKey != "" {
				cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
			} else {
				cmd.Printf("  API Key: (not set)\n")
			}
		}
		cmd.Printf("  Timeout: %s\n", settings.LLM.Timeout)
	} else {
		cmd.Println("  Provider: (disabled)")
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Strategy: %s\n", settings.Chunking.Strategy)
	cmd.Printf("  Chunk Size: %d characters\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d characters\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Index]")
	cmd.Printf("  Path: %s\n", settings.Index.Path)
	cmd.Printf("  Distance: %s\n", settings.Index.Distance)
	cmd.Printf("  Collection: %s\n", settings.Index.Collection)
	cmd.Printf("  Batch Size: %d\n", settings.Ingest.BatchSize)
	cmd.Println()

	if err := settings.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'docrag settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	key, value := args[0], args[1]
	if err := svc.Set(key, value); err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidChunkConfig) ||
			errors.Is(err, domain.ErrUnsupportedType) {
			return fmt.Errorf("invalid setting: %w", err)
		}
		return fmt.Errorf("failed to save setting: %w", err)
	}

	if key == "embedding.api_key" || key == "llm.api_key" {
		value = maskAPIKey(value)
	}
	cmd.Printf("Set %s = %s\n", key, value)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}
	for _, key := range svc.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsCheck(cmd *cobra.Command, _ []string) error {
	svc, err := requireSettings()
	if err != nil {
		return err
	}

	if err := svc.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := svc.ValidateEmbeddingConfig(); err != nil {
		return fmt.Errorf("embedding provider check failed: %w", err)
	}
	cmd.Println("Embedding provider is reachable.")

	settings, err := svc.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !settings.LLM.IsEnabled() {
		return nil
	}
	if err := svc.ValidateLLMConfig(); err != nil {
		return fmt.Errorf("language model check failed: %w", err)
	}
	cmd.Println("Language model is reachable.")
	return nil
}

func orDefault(v string) string {
	if v == "" {
		return "(provider default)"
	}
	return v
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
