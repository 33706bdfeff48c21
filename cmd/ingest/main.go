package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	cfgPkg "github.com/docqa/qalocal/pkg/config"
	"github.com/docqa/qalocal/pkg/indexer"
	"github.com/docqa/qalocal/pkg/llm"
	"github.com/docqa/qalocal/pkg/loader"
	"github.com/docqa/qalocal/pkg/processor"
	"github.com/docqa/qalocal/pkg/store"
)

func main() {
	config := parseFlags()

	if errs := config.Validate(); len(errs) > 0 {
		color.Red("Invalid configuration:")
		for _, e := range errs {
			color.Red("  - %s", e.Error())
		}
		os.Exit(1)
	}

	if err := run(config); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() *cfgPkg.Config {
	var configPath, dataDir, dbURL, ollamaURL, embedModel, table string
	var chunkSize, chunkOverlap, batchSize int

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&dataDir, "data-dir", "", "Directory of documents to ingest")
	flag.StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	flag.StringVar(&ollamaURL, "ollama-url", "", "Ollama server URL")
	flag.StringVar(&embedModel, "embed-model", "", "Embedding model to use")
	flag.StringVar(&table, "table", "", "PostgreSQL table name")
	flag.IntVar(&chunkSize, "chunk-size", 0, "Size of text chunks")
	flag.IntVar(&chunkOverlap, "chunk-overlap", 0, "Overlap between consecutive chunks")
	flag.IntVar(&batchSize, "batch-size", 0, "Batch size for embedding and storage")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		color.Red("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Command line flags win over the config file
	if dataDir != "" {
		config.Loader.DataDir = dataDir
	}
	if dbURL != "" {
		config.Database.URL = dbURL
	}
	if ollamaURL != "" {
		config.LLM.BaseURL = ollamaURL
	}
	if embedModel != "" {
		config.Embedder.Model = embedModel
	}
	if table != "" {
		config.Database.TableName = table
	}
	if chunkSize > 0 {
		config.Processor.ChunkSize = chunkSize
	}
	if chunkOverlap > 0 {
		config.Processor.ChunkOverlap = chunkOverlap
	}
	if batchSize > 0 {
		config.Indexer.BatchSize = batchSize
	}

	return config
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("items"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(config *cfgPkg.Config) error {
	ctx := context.Background()

	color.Blue("\nIngesting documents from %s\n", config.Loader.DataDir)

	loadSpinner := getSpinner("Loading documents...")
	docLoader, err := loader.NewWithConfig(loader.LoaderConfig{
		DataDir: config.Loader.DataDir,
		OnProgress: func(path string) {
			loadSpinner.Add(1)
		},
	})
	if err != nil {
		return err
	}

	docs, err := docLoader.Load(ctx)
	if err != nil {
		return err
	}
	loadSpinner.Finish()

	if len(docs) == 0 {
		color.Yellow("\nNo supported documents found in %s\n", config.Loader.DataDir)
		return nil
	}
	color.Green("\n✓ Loaded %d documents\n", len(docs))

	proc, err := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:    config.Processor.ChunkSize,
		ChunkOverlap: config.Processor.ChunkOverlap,
	})
	if err != nil {
		return err
	}

	chunks, err := proc.Process(docs)
	if err != nil {
		return err
	}
	color.Green("✓ Split into %d chunks\n", len(chunks))

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.Embedder.Model,
		BaseURL: config.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: config.Database.URL,
		TableName:  config.Database.TableName,
		VectorDim:  config.Database.VectorDim,
	})
	if err != nil {
		return err
	}
	defer vectorStore.Close()

	indexingBar := getProgressBar(len(chunks), "Indexing chunks...")
	ix := indexer.NewWithConfig(indexer.IndexerConfig{
		BatchSize: config.Indexer.BatchSize,
		RateLimit: config.Indexer.RateLimit,
		OnProgress: func(indexed, total int) {
			indexingBar.Set(indexed)
		},
	}, embedder, vectorStore)

	indexed, indexErr := ix.Index(ctx, chunks)
	indexingBar.Finish()

	// Report what made it in even when a batch failed, so a rerun can
	// be judged from the numbers.
	color.Green("\n✓ Indexed %d/%d chunks\n", indexed, len(chunks))
	if total, err := vectorStore.Count(ctx); err == nil {
		color.Cyan("Collection %s now holds %d chunks\n", config.Database.TableName, total)
	}

	return indexErr
}
