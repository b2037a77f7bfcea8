package main

import (
	"fmt"
	"os"

	"github.com/kailas-cloud/docqa/internal/cli"
	"github.com/kailas-cloud/docqa/internal/config"
	"github.com/kailas-cloud/docqa/internal/domain/chunk"
	"github.com/kailas-cloud/docqa/internal/domain/source"
	"github.com/kailas-cloud/docqa/internal/extract"
	"github.com/kailas-cloud/docqa/internal/extract/docx"
	"github.com/kailas-cloud/docqa/internal/extract/pdf"
	logpkg "github.com/kailas-cloud/docqa/internal/logger"
	"github.com/kailas-cloud/docqa/internal/repository/chunkstore"
	openaiProv "github.com/kailas-cloud/docqa/internal/transport/openai"
	answeruc "github.com/kailas-cloud/docqa/internal/usecase/answer"
	embeddinguc "github.com/kailas-cloud/docqa/internal/usecase/embedding"
	generationuc "github.com/kailas-cloud/docqa/internal/usecase/generation"
	ingestuc "github.com/kailas-cloud/docqa/internal/usecase/ingest"
	modulesuc "github.com/kailas-cloud/docqa/internal/usecase/modules"
)

func main() {
	cli.SetBootstrap(bootstrap)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// bootstrap wires the local pipeline: filesystem chunk store plus the
// configured providers. The chat store and embedding cache are server-only.
func bootstrap(configPath string) (cli.Services, error) {
	env := config.GetEnv()

	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return cli.Services{}, err
	}

	// Only warnings reach the terminal; command output goes to stdout.
	logger, err := logpkg.NewLogger(env, "warn")
	if err != nil {
		return cli.Services{}, fmt.Errorf("failed to create logger: %w", err)
	}

	ec := cfg.Embedding
	embedder := embeddinguc.NewInstrumentedEmbedder(
		openaiProv.NewEmbedder(&openaiProv.Config{
			APIKey:     ec.APIKey,
			BaseURL:    ec.BaseURL,
			Model:      ec.Model,
			Dimensions: ec.Dimensions,
			Provider:   ec.Provider,
			Logger:     logger,
		}),
		ec.Provider, ec.Model,
		embeddinguc.Options{BatchSize: ec.BatchSize, Parallelism: ec.Parallelism},
		logger,
	)

	gc := cfg.Generation
	generator := generationuc.NewInstrumentedGenerator(
		openaiProv.NewGenerator(&openaiProv.GeneratorConfig{
			Config: openaiProv.Config{
				APIKey:   gc.APIKey,
				BaseURL:  gc.BaseURL,
				Model:    gc.Model,
				Provider: gc.Provider,
				Logger:   logger,
			},
			Temperature:  gc.Temperature,
			MaxTokens:    gc.MaxTokens,
			SystemPrompt: gc.SystemPrompt,
		}),
		gc.Provider, gc.Model, gc.RateLimit.RPS, gc.RateLimit.Burst, logger,
	)

	chunks := chunkstore.New(cfg.Storage.RootDir, logger)
	extractors := extract.NewRegistry()
	extractors.Register(source.PDF, pdf.New())
	extractors.Register(source.DOCX, docx.New())

	return cli.Services{
		Ingest: ingestuc.New(chunks, extractors, cfg.Storage.UploadsDir,
			chunk.Params{MaxSize: cfg.Chunking.MaxSize, Overlap: cfg.Chunking.Overlap}, logger),
		Answer:  answeruc.New(chunks, embedder, generator, logger),
		Modules: modulesuc.New(chunks),
	}, nil
}
