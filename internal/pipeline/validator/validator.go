// Package validator applies syntactic checks to raw leads, nulling
// fields that fail rather than rejecting the record outright.
package validator

import (
	"net/url"
	"regexp"

	"github.com/rgangen24/leadgen/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var digitsPattern = regexp.MustCompile(`\D`)

func isValidEmail(v string) bool {
	if v == "" {
		return false
	}
	return emailPattern.MatchString(v)
}

func isValidPhone(v string) bool {
	if v == "" {
		return false
	}
	digits := digitsPattern.ReplaceAllString(v, "")
	return len(digits) >= 7
}

func isValidURL(v string) bool {
	if v == "" {
		return false
	}
	if p, err := url.Parse(v); err == nil && p.Scheme != "" && p.Host != "" {
		return true
	}
	p, err := url.Parse("http://" + v)
	return err == nil && p.Host != ""
}

// Validate converts a batch of RawLeads into ValidatedLeads, nulling
// (empty-stringing) any field that fails its syntactic check.
func Validate(leads []*domain.RawLead) []*domain.ValidatedLead {
	out := make([]*domain.ValidatedLead, 0, len(leads))
	for _, r := range leads {
		v := &domain.ValidatedLead{
			RawLeadID:   r.ID,
			Name:        r.Name,
			CompanyName: r.CompanyName,
			Industry:    r.Industry,
		}
		if isValidPhone(r.Phone) {
			v.Phone = r.Phone
		}
		if isValidEmail(r.Email) {
			v.Email = r.Email
		}
		if isValidURL(r.Website) {
			v.Website = r.Website
		}
		out = append(out, v)
	}
	return out
}
