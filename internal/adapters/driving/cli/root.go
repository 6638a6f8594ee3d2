// Package cli provides the docrag command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

var version = "dev"

// Global flag values.
var (
	collectionName string
	configDir      string
	verbose        bool
)

// Services driven by the commands. Tests assign these directly.
var (
	settingsService   driving.SettingsService
	collectionService driving.CollectionService
	ingestService     driving.IngestService
	searchService     driving.SearchService
	answerService     driving.AnswerService
	answerErr         error
	closeClients      func() error
	closeStore        func() error
)

// Options are the global flag values needed to build services.
type Options struct {
	// ConfigDir overrides the config directory (default ~/.docrag).
	ConfigDir string

	// Collection overrides the configured collection name when non-empty.
	Collection string

	// Verbose enables debug logging.
	Verbose bool
}

// IndexServices are the services that need the vector index.
type IndexServices struct {
	Collection driving.CollectionService
	Ingest     driving.IngestService
	Search     driving.SearchService

	// Answer is nil when no language model is configured; AnswerErr then
	// says why.
	Answer    driving.AnswerService
	AnswerErr error

	// CloseClients releases the embedding and language-model clients.
	// May be nil.
	CloseClients func() error

	// CloseStore closes the vector store. May be nil.
	CloseStore func() error
}

// Wiring builds services on demand. Settings is built for every command
// that needs it; Index only for commands that touch the vector index.
type Wiring interface {
	Settings(opts Options) (driving.SettingsService, error)
	Index(opts Options, settings *domain.AppSettings) (*IndexServices, error)
}

var wiring Wiring

// SetWiring registers the service builder used by Execute.
func SetWiring(w Wiring) {
	wiring = w
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Chunk, embed and search local documents",
	Long: `docrag splits documents into overlapping chunks, embeds each chunk with a
local Ollama model (or OpenAI) and stores the vectors in a local index so the
most relevant passages can be retrieved for a question.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Default().SetVerbose(verbose)
	},
	PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
		return releaseIndex()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&collectionName, "collection", "",
		"collection name (default from settings, then \"documents\")")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "config directory (default ~/.docrag)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	defer releaseIndex() //nolint:errcheck
	return rootCmd.Execute()
}

func options() Options {
	return Options{
		ConfigDir:  configDir,
		Collection: collectionName,
		Verbose:    verbose,
	}
}

// requireSettings returns the settings service, building it when needed.
func requireSettings() (driving.SettingsService, error) {
	if settingsService != nil {
		return settingsService, nil
	}
	if wiring == nil {
		return nil, errors.New("settings service not configured")
	}
	svc, err := wiring.Settings(options())
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	settingsService = svc
	return svc, nil
}

// requireIndex makes sure the index services exist, building them from
// the effective settings when needed.
func requireIndex() error {
	if collectionService != nil && ingestService != nil && searchService != nil {
		return nil
	}
	if wiring == nil {
		return errors.New("index services not configured")
	}

	settings, err := requireSettings()
	if err != nil {
		return err
	}
	effective, err := settings.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if collectionName != "" {
		effective.Index.Collection = collectionName
	}

	index, err := wiring.Index(options(), effective)
	if err != nil {
		return err
	}
	collectionService = index.Collection
	ingestService = index.Ingest
	searchService = index.Search
	answerService = index.Answer
	answerErr = index.AnswerErr
	closeClients = index.CloseClients
	closeStore = index.CloseStore
	return nil
}

// releaseIndex closes whatever this process opened: the clients first,
// then the store. Each is closed at most once.
func releaseIndex() error {
	var errs []error
	for _, fn := range []*func() error{&closeClients, &closeStore} {
		if *fn == nil {
			continue
		}
		closeFn := *fn
		*fn = nil
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// commandContext returns the command's context, or Background when the
// command was executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}
