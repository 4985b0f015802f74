// Package search runs server-side recipe queries and filters the loaded
// recipe list locally.
package search

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mmcdole/ladle/internal/domain"
)

// Fetcher runs server-side searches. Results carry no images.
type Fetcher struct {
	repo    domain.SearchRepository
	timeout time.Duration
	logger  *slog.Logger
}

// NewFetcher creates a new search fetcher
func NewFetcher(repo domain.SearchRepository, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		repo:    repo,
		timeout: timeout,
		logger:  logger,
	}
}

// Search returns the server's matches for query in server order. A blank
// query returns nothing without a request.
func (f *Fetcher) Search(ctx context.Context, query string) ([]domain.RecipeSummary, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.RecipeSummary{}, nil
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	f.logger.Debug("searching", "query", query)

	results, err := f.repo.Search(ctx, query)
	if err != nil {
		f.logger.Error("failed to search recipes", "query", query, "error", err)
		return nil, domain.NewFetchError("search recipes", "Failed to search recipes", err)
	}

	f.logger.Debug("search complete", "query", query, "count", len(results))
	return results, nil
}
