package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// socialRecord is the shape the social-platform export files use;
// mirrors the fields the original scraper read from its import_json_path.
type socialRecord struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Industry string `json:"industry"`
	Category string `json:"category"`
	Profile  string `json:"profile"`
	Campaign string `json:"campaign"`
}

// NewJSONFileFetcher reads up to limit records from an export file
// produced by an external scraping job (a LinkedIn or Instagram company
// list, for example) rather than calling a scraping API directly —
// these platforms gate programmatic access tightly enough that the
// ingestion boundary here is the export file, not a live HTTP client.
func NewJSONFileFetcher(path string, limit int) Fetcher {
	return func(ctx context.Context) ([]Candidate, error) {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read import file %s: %w", path, err)
		}
		var records []socialRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("parse import file %s: %w", path, err)
		}
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}

		candidates := make([]Candidate, 0, len(records))
		for _, r := range records {
			industry := r.Industry
			if industry == "" {
				industry = r.Category
			}
			candidates = append(candidates, Candidate{
				Name:         r.Name,
				CompanyName:  r.Name,
				Email:        r.Email,
				Phone:        r.Phone,
				Website:      r.Website,
				Industry:     industry,
				ReferenceURL: r.Profile,
				Campaign:     r.Campaign,
				RawData:      r,
			})
		}
		return candidates, nil
	}
}
