// Package enricher probes a qualified lead's website to add a content
// summary and a lightweight verified signal before delivery.
package enricher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rgangen24/leadgen/internal/domain"
)

const (
	fetchTimeout = 8 * time.Second
	maxBodyBytes = 5000
)

var probeKeywords = []string{"contact", "review", "rating", "about"}

// Enriched is the structured payload stored as QualifiedLead.EnrichedBlob.
type Enriched struct {
	SiteOK     bool     `json:"site_ok"`
	ContentLen int      `json:"content_len"`
	Keywords   []string `json:"keywords"`
}

func ensureScheme(raw string) string {
	if raw == "" {
		return ""
	}
	if p, err := url.Parse(raw); err == nil && p.Scheme != "" {
		return raw
	}
	return "http://" + raw
}

// Client is the narrow HTTP dependency Enrich needs, satisfied by
// *http.Client in production and a stub in tests.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

// Enrich probes lead.Website (if present) and returns an updated copy
// with Summary, EnrichedBlob, and Verified populated. A failed or absent
// probe is not an error — it simply yields site_ok=false.
func Enrich(ctx context.Context, client Client, lead *domain.QualifiedLead) *domain.QualifiedLead {
	out := *lead

	target := ensureScheme(lead.Website)
	var siteOK bool
	var contentLen int
	var hits []string

	if target != "" {
		siteOK, contentLen, hits = probe(ctx, client, target)
	}

	enriched := Enriched{SiteOK: siteOK, ContentLen: contentLen, Keywords: hits}
	blob, _ := json.Marshal(enriched)

	out.Summary = "site_ok=" + boolString(siteOK) + ", content_len=" + strconv.Itoa(contentLen)
	out.EnrichedBlob = string(blob)
	out.Verified = siteOK
	return &out
}

func probe(ctx context.Context, client Client, target string) (bool, int, []string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()
	req = req.WithContext(ctx)

	resp, err := client.Do(req)
	if err != nil {
		return false, 0, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, 0, nil
	}

	text := strings.ToLower(string(body))
	var hits []string
	for _, k := range probeKeywords {
		if strings.Contains(text, k) {
			hits = append(hits, k)
		}
	}
	return true, len(body), hits
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// NewHTTPClient builds the default probe client: a short-timeout
// net/http.Client matching the enrichment step's own deadline.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: fetchTimeout}
}
