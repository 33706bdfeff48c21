package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/fatih/color"

	cfgPkg "github.com/docqa/qalocal/pkg/config"
	"github.com/docqa/qalocal/pkg/llm"
	"github.com/docqa/qalocal/pkg/retriever"
	"github.com/docqa/qalocal/pkg/store"
	"github.com/docqa/qalocal/server"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if errs := config.Validate(); len(errs) > 0 {
		color.Red("Invalid configuration:")
		for _, e := range errs {
			color.Red("  - %s", e.Error())
		}
		os.Exit(1)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		Model:   config.Embedder.Model,
		BaseURL: config.LLM.BaseURL,
	})
	if err != nil {
		log.Fatal(err)
	}

	vectorStore, err := store.NewWithConfig(store.VectorStoreConfig{
		ConnString: config.Database.URL,
		TableName:  config.Database.TableName,
		VectorDim:  config.Database.VectorDim,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer vectorStore.Close()

	ret, err := retriever.NewWithConfig(retriever.RetrieverConfig{
		TopK: config.Retriever.TopK,
	}, embedder, vectorStore)
	if err != nil {
		log.Fatal(err)
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       config.LLM.Model,
		Temperature: config.LLM.Temperature,
		MaxTokens:   config.LLM.MaxTokens,
		Language:    config.LLM.Language,
		BaseURL:     config.LLM.BaseURL,
	})
	if err != nil {
		log.Fatal(err)
	}

	srv := server.New(server.Config{
		Model:      config.LLM.Model,
		Collection: config.Database.TableName,
	}, ret, chatEngine, vectorStore)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Starting server on port %s", port)
	if err := http.ListenAndServe(":"+port, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}
