// Package discovery aggregates job listings from pluggable sources.
package discovery

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/applyd/applyd/store"
)

// Source fetches job listings from one origin (a board, a feed, a file).
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]store.JobListing, error)
}

// Aggregator fans out to all configured sources. One failing source is
// logged and skipped; it never takes the others down.
type Aggregator struct {
	sources []Source
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewAggregator creates an aggregator with a per-source fetch timeout
// (<= 0 means no timeout).
func NewAggregator(timeout time.Duration, logger *zap.SugaredLogger, sources ...Source) *Aggregator {
	return &Aggregator{sources: sources, timeout: timeout, logger: logger}
}

// FindJobs fetches from every source and returns the combined listings.
func (a *Aggregator) FindJobs(ctx context.Context) []store.JobListing {
	var all []store.JobListing
	for _, src := range a.sources {
		if ctx.Err() != nil {
			return all
		}

		listings, err := a.fetchOne(ctx, src)
		if err != nil {
			if a.logger != nil {
				a.logger.Warnw("Source fetch failed, skipping",
					"source", src.Name(),
					"error", err,
				)
			}
			continue
		}
		if a.logger != nil {
			a.logger.Infow("Source fetched",
				"source", src.Name(),
				"listings", len(listings),
			)
		}
		all = append(all, listings...)
	}
	return all
}

// fetchOne fetches from a single source under its own timeout context,
// released as soon as the fetch returns.
func (a *Aggregator) fetchOne(ctx context.Context, src Source) ([]store.JobListing, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return src.Fetch(ctx)
}

// ListingID builds a stable job listing id from a source name and the
// source's own identifier, so re-discovery maps onto the same row.
func ListingID(source, sourceID string) string {
	if sourceID == "" {
		return source
	}
	return fmt.Sprintf("%s:%s", source, sourceID)
}

// urlID derives a source identifier from a listing URL when a source
// has no native ids.
func urlID(url string) string {
	sum := sha1.Sum([]byte(url))
	return hex.EncodeToString(sum[:6])
}
