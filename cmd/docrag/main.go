// Command docrag indexes local documents into a vector collection and
// searches them by meaning.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/env"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/normalisers"
	"github.com/custodia-labs/docrag/internal/postprocessors"
)

// Set by the release build.
var version = "dev"

// wiring builds the concrete adapters behind the CLI.
type wiring struct{}

var _ cli.Wiring = wiring{}

func (wiring) Settings(opts cli.Options) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	if err := env.LoadDotEnv(); err != nil {
		return nil, err
	}
	return services.NewSettingsService(store, ai.Validator{}, env.NewOverlay()), nil
}

func (wiring) Index(_ cli.Options, settings *domain.AppSettings) (*cli.IndexServices, error) {
	log := logger.Default()

	chunker, err := postprocessors.NewDefaultRegistry().Build(
		string(settings.Chunking.Strategy),
		postprocessors.ConfigFromSettings(settings.Chunking),
	)
	if err != nil {
		return nil, err
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(settings.Index.Path)
	if err != nil {
		_ = embedder.Close()
		return nil, fmt.Errorf("opening index at %s: %w", settings.Index.Path, err)
	}

	collections := services.NewCollectionService(store, settings.Index.Collection, settings.Index.Distance, log)
	ingest := services.NewIngestService(collections, embedder, chunker, settings.Ingest.BatchSize, log)
	ingest.SetNormalisers(normalisers.NewDefaultRegistry())

	search := services.NewSearchService(collections, embedder, log)
	index := &cli.IndexServices{
		Collection:   collections,
		Ingest:       ingest,
		Search:       search,
		CloseClients: embedder.Close,
		CloseStore:   store.Close,
	}

	// A missing or broken language model only affects ask.
	llm, err := ai.CreateLLMService(&settings.LLM)
	if err != nil {
		index.AnswerErr = err
		return index, nil
	}
	index.Answer = services.NewAnswerService(search, llm, log)
	index.CloseClients = func() error {
		return errors.Join(llm.Close(), embedder.Close())
	}
	return index, nil
}

func main() {
	cli.SetVersion(version)
	cli.SetWiring(wiring{})

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
