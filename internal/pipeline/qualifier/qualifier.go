// Package qualifier scores validated leads against per-industry rules and
// buckets them into hot/warm/cold categories.
package qualifier

import (
	"encoding/json"
	"strings"

	"github.com/rgangen24/leadgen/internal/domain"
)

// Weights configures the point value awarded for each signal present on
// a lead. Zero-value fields fall back to DefaultConfig's values.
type Weights struct {
	Email   int `json:"email"`
	Phone   int `json:"phone"`
	Website int `json:"website"`
	Keyword int `json:"keyword"`
}

// Thresholds configures the score cutoffs for hot/warm categorization.
type Thresholds struct {
	Hot  int `json:"hot"`
	Warm int `json:"warm"`
}

// Config is the scoring configuration for one industry, decoded from
// IndustryRule.ScoringRules JSON.
type Config struct {
	Weights    Weights  `json:"weights"`
	Thresholds Thresholds `json:"thresholds"`
	Keywords   []string `json:"keywords"`
}

// DefaultConfig mirrors the scorer's built-in fallback weights, used
// whenever an industry has no configured rule or its rule fails to parse.
var DefaultConfig = Config{
	Weights:    Weights{Email: 30, Phone: 25, Website: 20, Keyword: 5},
	Thresholds: Thresholds{Hot: 75, Warm: 50},
}

// ParseRules decodes an IndustryRule.ScoringRules JSON blob. An empty or
// malformed blob yields DefaultConfig rather than an error — scoring
// must proceed even for unconfigured industries.
func ParseRules(raw string) Config {
	if raw == "" {
		return DefaultConfig
	}
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return DefaultConfig
	}
	if cfg.Weights.Email == 0 {
		cfg.Weights.Email = DefaultConfig.Weights.Email
	}
	if cfg.Weights.Phone == 0 {
		cfg.Weights.Phone = DefaultConfig.Weights.Phone
	}
	if cfg.Weights.Website == 0 {
		cfg.Weights.Website = DefaultConfig.Weights.Website
	}
	if cfg.Weights.Keyword == 0 {
		cfg.Weights.Keyword = DefaultConfig.Weights.Keyword
	}
	if cfg.Thresholds.Hot == 0 {
		cfg.Thresholds.Hot = DefaultConfig.Thresholds.Hot
	}
	if cfg.Thresholds.Warm == 0 {
		cfg.Thresholds.Warm = DefaultConfig.Thresholds.Warm
	}
	return cfg
}

func score(lead *domain.ValidatedLead, cfg Config) (int, domain.LeadCategory) {
	s := 0
	if lead.Email != "" {
		s += cfg.Weights.Email
	}
	if lead.Phone != "" {
		s += cfg.Weights.Phone
	}
	if lead.Website != "" {
		s += cfg.Weights.Website
	}
	if len(cfg.Keywords) > 0 {
		haystack := strings.ToLower(lead.CompanyName + " " + lead.Name)
		for _, k := range cfg.Keywords {
			if k != "" && strings.Contains(haystack, strings.ToLower(k)) {
				s += cfg.Weights.Keyword
			}
		}
	}
	if s > 100 {
		s = 100
	}
	if s < 0 {
		s = 0
	}
	cat := domain.CategoryCold
	switch {
	case s >= cfg.Thresholds.Hot:
		cat = domain.CategoryHot
	case s >= cfg.Thresholds.Warm:
		cat = domain.CategoryWarm
	}
	return s, cat
}

func dedupKey(lead *domain.ValidatedLead) string {
	return strings.ToLower(strings.TrimSpace(lead.Email)) + "|" +
		strings.TrimSpace(lead.Phone) + "|" +
		strings.ToLower(strings.TrimSpace(lead.CompanyName))
}

// RuleLookup resolves the scoring configuration for an industry. The
// store adapter implements this against IndustryRuleStore.Get.
type RuleLookup func(industry string) (Config, bool)

// Qualify scores a batch of validated leads, skipping duplicates (by
// email+phone+company) within the batch and applying each lead's
// industry-specific scoring config when one is available.
func Qualify(leads []*domain.ValidatedLead, lookup RuleLookup) []*domain.QualifiedLead {
	out := make([]*domain.QualifiedLead, 0, len(leads))
	seen := make(map[string]struct{}, len(leads))

	for _, lead := range leads {
		key := dedupKey(lead)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		cfg := DefaultConfig
		if lead.Industry != "" && lookup != nil {
			if c, ok := lookup(lead.Industry); ok {
				cfg = c
			}
		}

		s, cat := score(lead, cfg)
		out = append(out, &domain.QualifiedLead{
			RawRef:      lead.RawLeadID,
			Name:        lead.Name,
			CompanyName: lead.CompanyName,
			Phone:       lead.Phone,
			Email:       lead.Email,
			Score:       s,
			Category:    cat,
			Industry:    lead.Industry,
			Website:     lead.Website,
		})
	}
	return out
}
