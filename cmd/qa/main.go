package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	cfgPkg "github.com/docqa/qalocal/pkg/config"
	"github.com/docqa/qalocal/pkg/llm"
	"github.com/docqa/qalocal/pkg/retriever"
	"github.com/docqa/qalocal/pkg/store"
)

// contextLimit caps how much of each chunk is shown to the model in the
// terminal session, keeping prompts small for local models.
const contextLimit = 500

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

	if err := run(config); err != nil {
		log.Fatal(err)
	}
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

	ret, err := retriever.NewWithConfig(retriever.RetrieverConfig{
		TopK: config.Retriever.TopK,
	}, embedder, vectorStore)
	if err != nil {
		return err
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:        config.LLM.Model,
		Temperature:  config.LLM.Temperature,
		MaxTokens:    config.LLM.MaxTokens,
		Language:     config.LLM.Language,
		ContextLimit: contextLimit,
		BaseURL:      config.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	color.Cyan("\nPosez vos questions sur vos documents (/help pour l'aide, 'exit' pour quitter)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nVous: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.ToLower(question) == "exit" || strings.ToLower(question) == "quit" {
			break
		}

		if strings.HasPrefix(question, "/") {
			handleCommand(ctx, question, config, vectorStore)
			continue
		}

		searchSpinner := getSpinner("Recherche dans les documents...")
		docs, err := ret.Retrieve(ctx, question, 0)
		searchSpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Erreur lors de la recherche: %v\n", err)
			continue
		}

		answerSpinner := getSpinner("Génération de la réponse...")
		answer, err := chatEngine.Answer(ctx, question, docs)
		answerSpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Erreur lors de la génération: %v\n", err)
			continue
		}

		assistantPrompt("\nAssistant: %s\n", answer.Text)
		if len(answer.Sources) > 0 {
			color.Yellow("\nSources:")
			for i, src := range answer.Sources {
				color.Yellow("  %d. %s", i+1, src)
			}
		}
	}

	return scanner.Err()
}

func handleCommand(ctx context.Context, command string, config *cfgPkg.Config, vectorStore *store.VectorStore) {
	switch command {
	case "/help":
		color.Cyan("Commandes disponibles:")
		color.Cyan("  /stats  - statistiques de la collection")
		color.Cyan("  /clear  - effacer l'écran")
		color.Cyan("  /help   - afficher cette aide")
		color.Cyan("  exit    - quitter")
	case "/stats":
		count, err := vectorStore.Count(ctx)
		if err != nil {
			color.Red("Erreur: %v", err)
			return
		}
		color.Cyan("Collection: %s", config.Database.TableName)
		color.Cyan("Chunks indexés: %d", count)
		color.Cyan("Modèle LLM: %s", config.LLM.Model)
		color.Cyan("Modèle d'embedding: %s", config.Embedder.Model)
		color.Cyan("Top-k: %d", config.Retriever.TopK)
	case "/clear":
		fmt.Print("\033[H\033[2J")
	default:
		color.Red("Commande inconnue: %s (/help pour l'aide)", command)
	}
}
