// Package ingest ensures a LeadSource row exists for each scrape origin,
// paces item collection to a configured rate, and transactionally inserts
// the resulting RawLead and SourceAttribution rows, grounded on the
// original scrapers (scrapers/{google_maps,linkedin,instagram}_scraper.py)
// and the teacher's per-worker rate pacing in internal/worker.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rgangen24/leadgen/internal/domain"
	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/store"
)

// Candidate is one prospective RawLead plus the attribution metadata
// naming where it came from, independent of how a Fetcher obtained it.
type Candidate struct {
	Name         string
	CompanyName  string
	Email        string
	Phone        string
	Website      string
	Industry     string
	ReferenceURL string
	Campaign     string
	RawData      interface{}
}

// Fetcher collects candidates for one ingestion cycle. Implementations
// own their own network/IO and retry policy; Ingester only paces and
// persists what they return.
type Fetcher func(ctx context.Context) ([]Candidate, error)

// Ingester runs one platform's fetch-then-persist cycle.
type Ingester struct {
	Store         store.IngestStore
	SourceName    string
	PlatformType  string
	Industry      string
	ScrapeURL     string
	Platform      string // attribution platform label, e.g. "google_maps"
	RatePerMinute int
	Fetch         Fetcher
}

// Run ensures the LeadSource exists, fetches candidates, paces them at
// 60/RatePerMinute seconds apart, and commits the batch transactionally.
// It returns the number of RawLead rows inserted.
func (g *Ingester) Run(ctx context.Context) (int, error) {
	source, err := g.Store.EnsureLeadSource(ctx, g.SourceName, g.PlatformType, g.Industry, g.ScrapeURL)
	if err != nil {
		return 0, fmt.Errorf("ensure lead source %s: %w", g.SourceName, err)
	}

	candidates, err := g.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", g.SourceName, err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	rpm := g.RatePerMinute
	if rpm <= 0 {
		rpm = 60
	}
	pace := time.Minute / time.Duration(rpm)
	now := time.Now().UTC()

	leads := make([]*domain.RawLead, 0, len(candidates))
	attributions := make([]*domain.SourceAttribution, 0, len(candidates))
	for i, c := range candidates {
		blob, err := json.Marshal(c.RawData)
		if err != nil {
			logging.Warn("ingest_marshal_raw_data_failed", "source", g.SourceName, "error", err.Error())
			blob = []byte("{}")
		}
		lead := &domain.RawLead{
			Name:        c.Name,
			CompanyName: c.CompanyName,
			Email:       c.Email,
			Phone:       c.Phone,
			Website:     c.Website,
			Industry:    c.Industry,
			SourceRef:   source.ID,
			CapturedAt:  now,
			RawDataBlob: string(blob),
		}
		leads = append(leads, lead)
		attributions = append(attributions, &domain.SourceAttribution{
			RawRef:       "", // resolved after insert assigns lead.ID
			Platform:     g.Platform,
			ReferenceURL: c.ReferenceURL,
			Campaign:     c.Campaign,
			CollectedAt:  now,
		})

		if i < len(candidates)-1 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(pace):
			}
		}
	}

	// IDs are assigned by InsertBatch if unset; pre-assign here so
	// attribution rows can reference them in the same transaction.
	for i, lead := range leads {
		if lead.ID == "" {
			lead.ID = uuid.New().String()
		}
		attributions[i].RawRef = lead.ID
	}

	if err := g.Store.InsertBatch(ctx, leads, attributions); err != nil {
		return 0, fmt.Errorf("insert batch %s: %w", g.SourceName, err)
	}
	logging.Info("ingest_cycle_complete", "source", g.SourceName, "inserted", len(leads))
	return len(leads), nil
}
