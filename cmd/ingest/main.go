// Package main provides the standalone batch ingestion CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/khanlabs/brofessor/internal/chunker"
	"github.com/khanlabs/brofessor/internal/config"
	"github.com/khanlabs/brofessor/internal/embedding"
	"github.com/khanlabs/brofessor/internal/ingest"
	"github.com/khanlabs/brofessor/internal/ledger"
	"github.com/khanlabs/brofessor/internal/source"
	"github.com/khanlabs/brofessor/internal/storage"
)

var rootCmd = &cobra.Command{
	Use:   "brofessor-ingest",
	Short: "RAG chatbot document ingestion tool",
	Long:  "CLI tool for managing the chatbot's document index in Qdrant",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest new documents into the vector index",
	Long: `Ingests documents not yet recorded in the ledger.

This command:
1. Connects to Qdrant and verifies health
2. Ensures the collection exists with the configured dimension
3. Lists candidate documents (local folder or GitHub repository)
4. Chunks and embeds each new document
5. Upserts the chunks and records the document in the ledger

Environment variables:
  OPENAI_API_KEY      OpenAI API key (required)
  QDRANT_HOST         Qdrant hostname (default: localhost)
  QDRANT_PORT         Qdrant gRPC port (default: 6334)
  INDEX_NAME          Collection name (default: raza)
  DATA_DIR            Local document folder (default: data)
  LEDGER_PATH         Ingestion ledger file (default: uploaded_files.json)
  DOCS_REPO_OWNER     Optional GitHub owner for a repository source
  DOCS_REPO_NAME      Optional GitHub repository name
  DOCS_REPO_PATH      Optional path within the repository
  GITHUB_TOKEN        GitHub token for higher rate limits (optional)`,
	RunE: runIngest,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the vector index and the ingestion ledger",
	Long:  "Drops all indexed entries and deletes the ledger file so the next run re-ingests everything.",
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resetCmd)
}

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	fmt.Println("Starting ingestion...")
	fmt.Println()

	fmt.Printf("Connecting to Qdrant at %s:%d...\n", cfg.QdrantHost, cfg.QdrantPort)
	idx, err := storage.NewIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.IndexName, cfg.Dimension)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer idx.Close()

	if err := idx.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}
	fmt.Printf("Collection %q ready (%d dimensions)\n", cfg.IndexName, cfg.Dimension)

	client, err := embedding.NewClient(cfg.OpenAIKey)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder := embedding.NewEmbedder(client, 0) // Use default batch size

	led, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return fmt.Errorf("invalid chunker configuration: %w", err)
	}

	src, err := buildSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to create document source: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingesting documents...")
	pipeline := ingest.NewPipeline(src, splitter, embedder, idx, led, nil, slog.Default())

	result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Println()
	fmt.Println("Ingestion complete!")
	fmt.Printf("  Candidates:  %d\n", result.Candidates)
	fmt.Printf("  Ingested:    %d\n", result.Ingested)
	fmt.Printf("  Skipped:     %d (already in ledger)\n", result.Skipped)
	fmt.Printf("  Unsupported: %d\n", result.Unsupported)
	fmt.Printf("  Chunks:      %d\n", result.ChunksWritten)
	fmt.Printf("  Duration:    %s\n", result.Duration.Round(time.Second))

	if len(result.Failed) > 0 {
		fmt.Println()
		fmt.Println("Failed documents (will retry on next run):")
		for _, failed := range result.Failed {
			fmt.Printf("  - %s: %s\n", failed.Path, failed.Reason)
		}
	}

	fmt.Println()
	fmt.Printf("Total time: %s\n", time.Since(start).Round(time.Second))

	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	idx, err := storage.NewIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.IndexName, cfg.Dimension)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer idx.Close()

	fmt.Printf("Clearing collection %q...\n", cfg.IndexName)
	if err := idx.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	if err := os.Remove(cfg.LedgerPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove ledger: %w", err)
	}

	fmt.Println("Index and ledger cleared. Run 'brofessor-ingest run' to re-ingest.")
	return nil
}

func buildSource(cfg *config.Config) (source.Source, error) {
	if cfg.UseRepoSource() {
		client, err := source.NewGitHubClient()
		if err != nil {
			return nil, err
		}
		return source.NewGitHub(client, cfg.RepoOwner, cfg.RepoName, cfg.RepoPath), nil
	}
	return source.NewFilesystem(cfg.DataDir), nil
}
