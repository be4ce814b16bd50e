// Package main provides the RAG chatbot backend server.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/khanlabs/brofessor/internal/chat"
	"github.com/khanlabs/brofessor/internal/chunker"
	"github.com/khanlabs/brofessor/internal/config"
	"github.com/khanlabs/brofessor/internal/embedding"
	"github.com/khanlabs/brofessor/internal/ingest"
	"github.com/khanlabs/brofessor/internal/ledger"
	"github.com/khanlabs/brofessor/internal/server"
	"github.com/khanlabs/brofessor/internal/source"
	"github.com/khanlabs/brofessor/internal/storage"
)

func main() {
	// Load .env file if present (local development), ignore if missing (production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Create context that cancels on SIGTERM/SIGINT
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	// Initialize the vector index
	idx, err := storage.NewIndex(cfg.QdrantHost, cfg.QdrantPort, cfg.IndexName, cfg.Dimension)
	if err != nil {
		log.Fatalf("failed to connect to Qdrant: %v", err)
	}
	defer idx.Close()

	if err := idx.EnsureCollection(ctx); err != nil {
		log.Fatalf("failed to ensure collection: %v", err)
	}

	// OpenAI client serves both embeddings and answer generation
	client, err := embedding.NewClient(cfg.OpenAIKey)
	if err != nil {
		log.Fatalf("failed to create OpenAI client: %v", err)
	}
	embedder := embedding.NewEmbedder(client, 0) // Use default batch size

	led, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		log.Fatalf("failed to open ingestion ledger: %v", err)
	}

	splitter, err := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		log.Fatalf("invalid chunker configuration: %v", err)
	}

	src, err := buildSource(cfg)
	if err != nil {
		log.Fatalf("failed to create document source: %v", err)
	}

	// Ingest new documents once at startup, then serve traffic. A failed
	// run is logged but doesn't prevent answering over the existing index.
	pipeline := ingest.NewPipeline(src, splitter, embedder, idx, led, nil, slog.Default())
	if result, err := pipeline.Run(ctx); err != nil {
		slog.Warn("Startup ingestion did not run", "error", err)
	} else {
		for _, failed := range result.Failed {
			slog.Warn("Document failed to ingest", "path", failed.Path, "reason", failed.Reason)
		}
	}

	generator := chat.NewGenerator(client.Client())
	svc := chat.NewService(embedder, idx, generator, cfg.TopK,
		time.Duration(cfg.RequestTimeoutSeconds)*time.Second)

	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: server.New(svc, cfg.AllowedOrigins, slog.Default()),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("Starting HTTP server on %s (chat at /api/chat, health at /api/health)", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("HTTP server error: %v", err)
	}
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
