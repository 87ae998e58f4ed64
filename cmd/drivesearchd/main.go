package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"drivesearch/internal/config"
	"drivesearch/internal/domain"
	"drivesearch/internal/embedding"
	"drivesearch/internal/server"
	"drivesearch/internal/service"
	"drivesearch/internal/source/drive"
	"drivesearch/internal/vectorindex/memory"
	"drivesearch/internal/vectorindex/pinecone"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "config.yaml", "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Assemble components via interfaces
	var emb domain.Embedder
	switch cfg.Embedder.Type {
	case "openai", "":
		client, err := embedding.NewOpenAIClient(embedding.OpenAIConfig{
			BaseURL:   cfg.Embedder.OpenAI.BaseURL,
			APIKeyEnv: cfg.Embedder.OpenAI.APIKeyEnv,
			Model:     cfg.Embedder.OpenAI.Model,
			Timeout:   time.Duration(cfg.Embedder.OpenAI.TimeoutSecs) * time.Second,
			Dimension: cfg.VectorIndex.Dimension,
		})
		if err != nil {
			log.Fatalf("openai embedder init failed: %v", err)
		}
		emb = client
	default:
		log.Fatalf("unknown embedder: %s", cfg.Embedder.Type)
	}

	var idx domain.VectorIndex
	switch cfg.VectorIndex.Type {
	case "memory", "":
		idx, err = memory.NewIndex(cfg.VectorIndex.Dimension)
		if err != nil {
			log.Fatalf("memory index init failed: %v", err)
		}
	case "pinecone":
		if cfg.VectorIndex.Pinecone == nil {
			log.Fatalf("pinecone config missing")
		}
		idx, err = pinecone.NewIndex(pinecone.Config{
			IndexURL:  cfg.VectorIndex.Pinecone.IndexURL,
			APIKey:    os.Getenv(cfg.VectorIndex.Pinecone.APIKeyEnv),
			Namespace: cfg.VectorIndex.Pinecone.Namespace,
			Dimension: cfg.VectorIndex.Dimension,
			Timeout:   time.Duration(cfg.VectorIndex.Pinecone.TimeoutSecs) * time.Second,
		})
		if err != nil {
			log.Fatalf("pinecone index init failed: %v", err)
		}
	default:
		log.Fatalf("unknown vector index: %s", cfg.VectorIndex.Type)
	}

	source := drive.NewSource(drive.Config{
		RequestsPerSec: cfg.Google.RequestsPerSec,
		Burst:          cfg.Google.Burst,
	})

	ingestor := service.NewIngestService(source, emb, idx, cfg.Ingest.Workers)
	searcher := service.NewSearchService(emb, idx, cfg.Search.TopK)

	clientID := os.Getenv(cfg.Google.ClientIDEnv)
	clientSecret := os.Getenv(cfg.Google.ClientSecretEnv)
	if clientID == "" || clientSecret == "" {
		log.Fatalf("google OAuth client not configured (%s / %s)", cfg.Google.ClientIDEnv, cfg.Google.ClientSecretEnv)
	}
	jwtSecret := os.Getenv(cfg.Server.JWTSecretEnv)
	if jwtSecret == "" {
		jwtSecret = "secret"
	}

	ttl := time.Duration(cfg.Server.SessionTTLMins) * time.Minute
	sessions := server.NewSessionStore(ttl)
	auth := server.NewAuthHandler(server.AuthConfig{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  cfg.Google.RedirectURL,
		Secret:       []byte(jwtSecret),
		SessionTTL:   ttl,
	}, sessions)
	handlers := server.NewHandlers(ingestor, searcher, source)

	e := server.New(cfg.Server.AllowedOrigins, auth, handlers)

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server is running at %s", cfg.Server.Listen)
		if err := e.Start(cfg.Server.Listen); err != nil {
			log.Printf("Server stopped: %v", err)
		}
	}()

	<-done
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
