package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"smart-practice/internal/adapter/generation"
	"smart-practice/internal/config"
	"smart-practice/internal/database"
	"smart-practice/internal/logger"
	"smart-practice/internal/repository"
	"smart-practice/internal/service"

	"go.uber.org/zap"
)

// Ingests a topic from a directory of .txt/.md source files and stores the
// generated knowledge tree. Fetching remote documents is out of scope; the
// corpus must already be on disk.
func main() {
	topicName := flag.String("topic", "", "topic name to ingest (required)")
	corpusDir := flag.String("dir", "", "directory of .txt/.md corpus files (required)")
	flag.Parse()

	if *topicName == "" || *corpusDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	corpus, err := loadCorpus(*corpusDir)
	if err != nil {
		appLogger.Fatal("Failed to load corpus", zap.Error(err))
	}
	appLogger.Info("Corpus loaded", zap.String("dir", *corpusDir), zap.Int("chars", len(corpus)))

	db, err := database.NewSQLXSQLiteDB(cfg.Database.Path)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := database.RunMigrations(db.DB); err != nil {
		appLogger.Fatal("Failed to run migrations", zap.Error(err))
	}

	generator, err := generation.NewGeminiGenerator(cfg.LLM, cfg.Tutor)
	if err != nil {
		appLogger.Fatal("Failed to create generation service", zap.Error(err))
	}

	topicRepository := repository.NewTopicDatabaseAdapter(db)
	ingestionService := service.NewIngestionService(topicRepository, generator, nil, cfg.Tutor)

	resp, err := ingestionService.IngestTopic(context.Background(), *topicName, corpus)
	if err != nil {
		appLogger.Fatal("Ingestion failed", zap.Error(err))
	}

	fmt.Printf("%s: %d concepts, %d leaves, %d questions\n",
		resp.Message, resp.ConceptCount, resp.LeafCount, resp.QuestionCount)
}

// loadCorpus concatenates every .txt and .md file in the directory.
func loadCorpus(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".txt") && !strings.HasSuffix(name, ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		sb.WriteString(fmt.Sprintf("\n--- FILE: %s ---\n", name))
		sb.Write(content)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no .txt or .md files found in %s", dir)
	}
	return sb.String(), nil
}
