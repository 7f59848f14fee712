// Package pipeline runs discovered job listings through filtering,
// tailoring, submission and follow-up scheduling.
package pipeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/applyd/applyd/store"
)

// Filter decides whether a listing is worth applying to. Predicates are
// pure; persistence of the decision is the orchestrator's job.
type Filter struct {
	minSalary       int
	excludeKeywords []string
}

// NewFilter builds a filter from the configured salary floor and
// exclusion keywords. Keyword matching is case-insensitive.
func NewFilter(minSalary int, excludeKeywords []string) *Filter {
	lowered := make([]string, 0, len(excludeKeywords))
	for _, kw := range excludeKeywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Filter{minSalary: minSalary, excludeKeywords: lowered}
}

// Eligible reports whether the listing passes all filters. The reason
// is non-empty only for rejections.
func (f *Filter) Eligible(job *store.JobListing) (bool, string) {
	haystack := strings.ToLower(job.Title + " " + job.Description)
	for _, kw := range f.excludeKeywords {
		if strings.Contains(haystack, kw) {
			return false, fmt.Sprintf("excluded keyword %q", kw)
		}
	}

	if f.minSalary > 0 && job.SalaryRange != "" {
		if low, ok := rangeMinimum(job.SalaryRange); ok && low < f.minSalary {
			return false, fmt.Sprintf("salary below floor (%d < %d)", low, f.minSalary)
		}
	}

	return true, ""
}

var salaryPattern = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+|\d+(?:\.\d+)?)\s*(k)?`)

// rangeMinimum extracts the lowest figure from a salary range string; the
// range minimum is what the floor compares against. Handles
// "$80,000 - $100,000" and "80k - 100k" forms. Returns ok=false when
// nothing numeric can be found; an unparseable range never filters a
// job out.
func rangeMinimum(s string) (int, bool) {
	matches := salaryPattern.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, false
	}

	lowest := 0
	found := false
	for _, m := range matches {
		numeric := strings.ReplaceAll(m[1], ",", "")
		value, err := strconv.ParseFloat(numeric, 64)
		if err != nil {
			continue
		}
		if m[2] != "" {
			value *= 1000
		}
		if !found || int(value) < lowest {
			lowest = int(value)
		}
		found = true
	}
	return lowest, found
}
