package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quirelabs/orderd/internal/advisor"
	"github.com/quirelabs/orderd/internal/config"
	"github.com/quirelabs/orderd/internal/embeddings"
	"github.com/quirelabs/orderd/internal/logging"
	"github.com/quirelabs/orderd/internal/page"
	"github.com/quirelabs/orderd/internal/resolver"
	"github.com/quirelabs/orderd/internal/sections"
)

var (
	noAdvisor  bool
	configPath string
)

// orderCmd runs the ordering engine locally
var orderCmd = &cobra.Command{
	Use:   "order [pages.json]",
	Short: "Reorder extracted pages locally",
	Long: `Reorder extracted pages using the configured embedding and advisor
services without going through a running daemon. Reads a JSON file (or
stdin with -) holding {"pages": [{"page_number": 1, "text": "..."}]} and
prints the ordering result as JSON.

Examples:
  # Order pages from a file
  orderctl order pages.json

  # Order pages from stdin, deterministic path only
  cat pages.json | orderctl order --no-advisor -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrder,
}

func init() {
	orderCmd.Flags().BoolVar(&noAdvisor, "no-advisor", false, "skip the advisor and use the deterministic path")
	orderCmd.Flags().StringVar(&configPath, "config", "", "path to config file")
}

// pagesFile is the accepted input document shape. A bare page array is also
// accepted.
type pagesFile struct {
	Pages []pagePayload `json:"pages"`
}

type pagePayload struct {
	PageNumber           int     `json:"page_number"`
	Text                 string  `json:"text"`
	ExtractionConfidence float64 `json:"extraction_confidence"`
}

// orderOutput is the printed result.
type orderOutput struct {
	Result *resolver.OrderingResult `json:"result"`
	TOC    []sections.TOCEntry      `json:"toc,omitempty"`
}

// runOrder handles the order command
func runOrder(cmd *cobra.Command, args []string) error {
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	payload, err := parsePages(content)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if noAdvisor {
		cfg.Advisor.Enabled = false
	}

	logger, err := logging.New("warn", "console")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	engine, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}

	pages := make([]page.Page, len(payload))
	for i, p := range payload {
		pages[i] = page.Page{
			Number:               p.PageNumber,
			Text:                 p.Text,
			ExtractionConfidence: p.ExtractionConfidence,
		}
	}
	doc, err := page.NewDocument(pages, cfg.Ordering.MinTextRunes)
	if err != nil {
		return fmt.Errorf("invalid pages: %w", err)
	}

	result, err := engine.Resolve(cmd.Context(), doc)
	if result == nil {
		return fmt.Errorf("ordering failed: %w", err)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[orderctl] degraded result: %v\n", err)
	}

	detector := sections.NewDetector(0)
	out := orderOutput{
		Result: result,
		TOC:    sections.TableOfContents(detector.Outline(doc, result.FinalOrder)),
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}

// parsePages accepts either {"pages": [...]} or a bare page array.
func parsePages(content []byte) ([]pagePayload, error) {
	var file pagesFile
	if err := json.Unmarshal(content, &file); err == nil && len(file.Pages) > 0 {
		return file.Pages, nil
	}

	var bare []pagePayload
	if err := json.Unmarshal(content, &bare); err == nil && len(bare) > 0 {
		return bare, nil
	}
	return nil, fmt.Errorf("input holds no pages")
}

// buildEngine wires the embedding indexer, the optional advisor, and the
// resolver from configuration.
func buildEngine(cfg *config.Config, logger *zap.Logger) (*resolver.Resolver, error) {
	embeddingSvc, err := embeddings.NewService(cfg.Embedding.Service)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding service: %w", err)
	}
	indexer, err := embeddings.NewIndexer(embeddingSvc, cfg.Embedding.Indexer, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer: %w", err)
	}

	var orderAdvisor resolver.OrderAdvisor
	if cfg.Advisor.Enabled {
		client, err := advisor.NewOpenAIClient(cfg.Advisor.Client)
		if err != nil {
			return nil, fmt.Errorf("failed to create advisor client: %w", err)
		}
		adv, err := advisor.New(client, cfg.Advisor.Options, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create advisor: %w", err)
		}
		orderAdvisor = adv
	}

	engine, err := resolver.New(indexer, orderAdvisor, cfg.Ordering.Resolver, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver: %w", err)
	}
	return engine, nil
}
