package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/priceowl/priceowl/internal/config"
	"github.com/priceowl/priceowl/internal/extract"
	"github.com/priceowl/priceowl/internal/llm"
	"github.com/priceowl/priceowl/internal/prompt"
	"github.com/priceowl/priceowl/internal/search"
	"github.com/priceowl/priceowl/internal/storage"
)

// initStorage opens the database from config and runs migrations.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	settings := config.Load()

	dbPath := config.ExpandPath(settings.DatabasePath)
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initProvider builds the LLM client from config.
func initProvider(settings config.Settings) (llm.Client, error) {
	return llm.NewClient(llm.Config{
		Provider:    settings.Provider,
		APIKey:      settings.APIKey,
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
		RateLimit:   settings.RateLimit,
	})
}

// initSearchService wires the whole search pipeline. The returned extraction
// client must be closed by the caller.
func initSearchService(store *storage.SQLiteStorage, settings config.Settings) (*search.Service, *extract.Client, error) {
	provider, err := initProvider(settings)
	if err != nil {
		return nil, nil, err
	}

	client := extract.NewClient(provider, extract.Config{
		MaxRetries: settings.MaxRetries,
		RetryDelay: settings.RetryDelay,
		RateLimit:  settings.RateLimit,
	}, slog.Default())

	builder, err := prompt.NewBuilder(prompt.KindSearch, prompt.Options{
		Currency: settings.Currency,
	})
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	normalizer := extract.NewNormalizer(settings.Currency, slog.Default())
	svc := search.NewService(store, client, normalizer, builder, slog.Default())
	return svc, client, nil
}

// optionalString converts a possibly empty flag value into a nullable field.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
