package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/maktabalabs/maktaba/internal/cache"
	"github.com/maktabalabs/maktaba/internal/linkcheck"
	"github.com/maktabalabs/maktaba/internal/llm"
	"github.com/maktabalabs/maktaba/internal/model"
	"github.com/maktabalabs/maktaba/internal/search"
	"github.com/maktabalabs/maktaba/internal/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	askBooksFile string
	askProvider  string
	askModel     string
	askSearchURL string
	askSuffix    string
	askJSON      bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question against a book list",
	Long: `Ask runs the full answer flow once, without the HTTP server: build a
prompt from the given book records, call the completion provider,
validate citations, and (optionally) gather verified links.

The book list is a YAML or JSON file containing an array of records:

  - title: "The Gulf in World History"
    author: "Allen Fromherz"
    year: 2018

Example:
  maktaba ask "books about pearl diving?" --books catalog.yaml --provider openai`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVar(&askBooksFile, "books", "", "YAML or JSON file with book records (required)")
	askCmd.Flags().StringVar(&askProvider, "provider", "openai", "completion provider (openai, anthropic)")
	askCmd.Flags().StringVar(&askModel, "model", "", "model name (provider default when empty)")
	askCmd.Flags().StringVar(&askSearchURL, "search-url", "", "web search API base URL (enables link gathering)")
	askCmd.Flags().StringVar(&askSuffix, "suffix", ".ae", "allowed domain suffix for external links")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full answer as JSON")

	_ = askCmd.MarkFlagRequired("books")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(args[0])

	books, err := loadBooks(askBooksFile)
	if err != nil {
		return err
	}

	cfg := model.DefaultConfig()
	cfg.LLM.Provider = askProvider
	cfg.LLM.Model = askModel
	cfg.Verify.AllowedSuffix = askSuffix
	cfg.Output.Verbose = verbose
	if askSearchURL != "" {
		cfg.Search.BaseURL = askSearchURL
		cfg.Search.Enabled = true
	}

	if err := llm.ResolveAPIKey(&cfg.LLM); err != nil {
		return err
	}
	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("configure provider: %w", err)
	}

	store := cache.New(cfg.Cache)
	verifier := linkcheck.NewVerifier(cfg.Verify, cfg.HTTP, store, cfg.Cache.TTL)

	var searcher server.Searcher
	if cfg.Search.Enabled {
		searcher = search.NewClient(cfg.Search, cfg.HTTP.UserAgent, store, cfg.Cache.TTL)
	}

	svc := server.NewService(provider, searcher, verifier, nil, cfg)

	answer, err := svc.BuildAnswer(context.Background(), question, books)
	if err != nil {
		return err
	}

	if askJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(answer)
	}

	printAnswer(answer)
	return nil
}

// loadBooks reads a book list from a YAML or JSON file
func loadBooks(path string) ([]model.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read book file: %w", err)
	}

	var books []model.Book
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &books)
	default:
		err = yaml.Unmarshal(data, &books)
	}
	if err != nil {
		return nil, fmt.Errorf("parse book file %s: %w", path, err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("book file %s contains no records", path)
	}
	return books, nil
}

func printAnswer(answer *model.Answer) {
	fmt.Println(answer.CleanText)

	if len(answer.References) > 0 {
		fmt.Printf("\nReferences: %v\n", answer.References)
	}
	if answer.Citations.Invalid > 0 {
		fmt.Printf("Stripped %d out-of-range citation(s): %v\n",
			answer.Citations.Invalid, answer.Citations.InvalidValues)
	}
	if len(answer.Links) > 0 {
		fmt.Println("\nLinks:")
		for _, l := range answer.Links {
			marker := ""
			if l.Assumed {
				marker = " (unconfirmed)"
			}
			if l.Title != "" {
				fmt.Printf("  - %s (%s)%s\n", l.Title, l.URL, marker)
			} else {
				fmt.Printf("  - %s%s\n", l.URL, marker)
			}
		}
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "\n%s/%s, %d tokens\n", answer.Provider, answer.Model, answer.TokensUsed)
	}
}
