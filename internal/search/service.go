// Package search orchestrates the full price search pipeline: prompt
// construction, provider extraction, response repair, normalization, and
// persistence.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/priceowl/priceowl/internal/common"
	"github.com/priceowl/priceowl/internal/extract"
	"github.com/priceowl/priceowl/internal/model"
	"github.com/priceowl/priceowl/internal/prompt"
	"github.com/priceowl/priceowl/internal/service"
)

// Service runs price searches end to end and keeps per-user history.
type Service struct {
	storage    service.Storage
	client     *extract.Client
	repairer   *extract.Repairer
	normalizer *extract.Normalizer
	builder    prompt.Builder
	logger     *slog.Logger
}

// NewService wires a search service from its pipeline stages.
func NewService(storage service.Storage, client *extract.Client, normalizer *extract.Normalizer, builder prompt.Builder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage:    storage,
		client:     client,
		repairer:   extract.NewRepairer(),
		normalizer: normalizer,
		builder:    builder,
		logger:     logger,
	}
}

// Run executes one price search. The search header is persisted before the
// provider call so failed searches still appear in history; extracted records
// are stored and attached once normalization succeeds.
func (s *Service) Run(ctx context.Context, intent model.SearchIntent, userID *string) (*model.Search, error) {
	if strings.TrimSpace(intent.Product) == "" {
		return nil, common.NewValidationError("product", "required")
	}
	if intent.Quantity <= 0 {
		intent.Quantity = 1
	}

	search := &model.Search{
		ID:        uuid.NewString(),
		UserID:    userID,
		Product:   intent.Product,
		Quantity:  intent.Quantity,
		Unit:      intent.Unit,
		City:      intent.City,
		Timestamp: time.Now().UTC(),
	}
	if err := s.storage.SaveSearch(ctx, search); err != nil {
		return nil, fmt.Errorf("failed to record search: %w", err)
	}

	s.logger.Info("starting price search",
		"search_id", search.ID,
		"product", intent.Product,
		"city", intent.City)

	result, err := s.client.Send(ctx, s.builder.BuildPrompt(intent))
	if err != nil {
		return nil, err
	}

	raws, err := s.repairer.ParseAndValidate(result.Text)
	if err != nil {
		return nil, common.NewUserError("could not process provider response", err)
	}

	records, dropped := s.normalizer.NormalizeBatch(raws, &search.ID)
	if dropped > 0 {
		s.logger.Warn("dropped invalid results",
			"search_id", search.ID,
			"dropped", dropped,
			"kept", len(records))
	}

	if len(records) > 0 {
		if err := s.storage.InsertRecords(ctx, records); err != nil {
			return nil, fmt.Errorf("failed to store records: %w", err)
		}
		ids := make([]int64, len(records))
		for i, r := range records {
			ids[i] = r.ID
		}
		if err := s.storage.AttachRecords(ctx, search.ID, ids); err != nil {
			return nil, fmt.Errorf("failed to attach records: %w", err)
		}
	}

	search.Results = records
	s.logger.Info("price search complete",
		"search_id", search.ID,
		"results", len(records),
		"evidence", len(result.Evidence))
	return search, nil
}

// History returns the user's most recent searches with their results.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]model.Search, error) {
	return s.storage.UserSearchHistory(ctx, userID, limit)
}

// ClearHistory removes the user's searches. Stored price records are shared
// market data and stay available to reports.
func (s *Service) ClearHistory(ctx context.Context, userID string) (int, error) {
	return s.storage.ClearUserHistory(ctx, userID)
}

// SearchesThisMonth counts the user's searches in the current calendar month.
func (s *Service) SearchesThisMonth(ctx context.Context, userID string) (int, error) {
	return s.storage.CountSearchesThisMonth(ctx, userID)
}
