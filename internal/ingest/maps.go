package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rgangen24/leadgen/internal/logging"
)

const placesBaseURL = "https://maps.googleapis.com/maps/api/place"

// MapsHTTPClient is the subset of *http.Client the fetcher needs, so
// tests can substitute a fake transport without a live network call.
type MapsHTTPClient interface {
	Get(url string) (*http.Response, error)
}

// apiGet mirrors the original scraper's _api_get: up to `retries` calls,
// 500ms apart, accepting only an OK or ZERO_RESULTS status. The final
// non-OK response is returned rather than an error so the cycle can
// still report progress on other search terms.
func apiGet(ctx context.Context, client MapsHTTPClient, path string, params url.Values, retries int, delay time.Duration) (map[string]interface{}, error) {
	reqURL := fmt.Sprintf("%s/%s/json?%s", placesBaseURL, path, params.Encode())
	var last map[string]interface{}
	for attempt := 0; attempt < retries; attempt++ {
		resp, err := client.Get(reqURL)
		if err != nil {
			logging.Warn("maps_api_get_failed", "path", path, "attempt", attempt, "error", err.Error())
			last = map[string]interface{}{"status": "ERROR"}
		} else {
			var body map[string]interface{}
			decodeErr := json.NewDecoder(resp.Body).Decode(&body)
			resp.Body.Close()
			if decodeErr != nil {
				logging.Warn("maps_api_decode_failed", "path", path, "error", decodeErr.Error())
				last = map[string]interface{}{"status": "ERROR"}
			} else {
				last = body
				status, _ := body["status"].(string)
				if status == "OK" || status == "ZERO_RESULTS" {
					return body, nil
				}
			}
		}
		if attempt < retries-1 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	if last == nil {
		last = map[string]interface{}{"status": "ERROR"}
	}
	return last, nil
}

// NewGoogleMapsFetcher builds a Fetcher that runs a textsearch for query
// (optionally scoped to location) and then a details call per result,
// capped at 50 places per cycle, matching the original scraper's limit.
func NewGoogleMapsFetcher(client MapsHTTPClient, apiKey, query, location, industry string) Fetcher {
	return func(ctx context.Context) ([]Candidate, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("google maps api key missing")
		}
		fullQuery := query
		if location != "" {
			if fullQuery != "" {
				fullQuery = fullQuery + " in " + location
			} else {
				fullQuery = location
			}
		}

		search, err := apiGet(ctx, client, "textsearch", url.Values{"query": {fullQuery}, "key": {apiKey}}, 3, 500*time.Millisecond)
		if err != nil {
			return nil, err
		}

		results, _ := search["results"].([]interface{})
		if len(results) > 50 {
			results = results[:50]
		}

		candidates := make([]Candidate, 0, len(results))
		for _, raw := range results {
			item, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			placeID, _ := item["place_id"].(string)
			if placeID == "" {
				continue
			}

			details, err := apiGet(ctx, client, "details", url.Values{
				"place_id": {placeID},
				"fields":   {"name,formatted_phone_number,website,types"},
				"key":      {apiKey},
			}, 3, 500*time.Millisecond)
			if err != nil {
				return candidates, err
			}

			result, _ := details["result"].(map[string]interface{})
			name, _ := result["name"].(string)
			phone, _ := result["formatted_phone_number"].(string)
			website, _ := result["website"].(string)

			ind := industry
			if ind == "" {
				if types, ok := result["types"].([]interface{}); ok {
					labels := make([]string, 0, len(types))
					for _, t := range types {
						if s, ok := t.(string); ok {
							labels = append(labels, s)
						}
					}
					ind = strings.Join(labels, ",")
				}
			}

			candidates = append(candidates, Candidate{
				CompanyName:  name,
				Phone:        phone,
				Website:      website,
				Industry:     ind,
				ReferenceURL: website,
				Campaign:     fullQuery,
				RawData:      map[string]interface{}{"search": item, "details": result},
			})
		}
		return candidates, nil
	}
}

// NewGoogleMapsHTTPClient returns an *http.Client with a bounded timeout
// appropriate for the Places API's per-call latency.
func NewGoogleMapsHTTPClient() *http.Client {
	return &http.Client{Timeout: 10 * time.Second}
}
