package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/applyd/applyd/store"
)

func TestFilterExcludeKeywords(t *testing.T) {
	f := NewFilter(0, []string{"senior", "clearance"})

	cases := []struct {
		name     string
		job      store.JobListing
		eligible bool
	}{
		{"clean listing", store.JobListing{Title: "Backend Engineer", Description: "Go services"}, true},
		{"keyword in title", store.JobListing{Title: "Senior Backend Engineer"}, false},
		{"keyword in title mixed case", store.JobListing{Title: "SENIOR Engineer"}, false},
		{"keyword in description", store.JobListing{Title: "Engineer", Description: "Requires security clearance"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ok, reason := f.Eligible(&tc.job)
			assert.Equal(t, tc.eligible, ok)
			if !tc.eligible {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestFilterSalaryFloor(t *testing.T) {
	f := NewFilter(90000, nil)

	cases := []struct {
		name     string
		salary   string
		eligible bool
	}{
		{"range minimum above floor", "$95,000 - $120,000", true},
		{"range minimum below floor", "$70,000 - $100,000", false},
		{"range entirely below floor", "$60,000 - $75,000", false},
		{"k notation above", "95k - 130k", true},
		{"k notation minimum below", "80k - 100k", false},
		{"missing salary never excludes", "", true},
		{"unparseable salary never excludes", "competitive", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			job := store.JobListing{Title: "Engineer", SalaryRange: tc.salary}
			ok, _ := f.Eligible(&job)
			assert.Equal(t, tc.eligible, ok)
		})
	}
}

func TestRangeMinimumParsing(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"$80,000 - $100,000", 80000, true},
		{"80k", 80000, true},
		{"80k-120k", 80000, true},
		{"up to $95,500", 95500, true},
		{"negotiable", 0, false},
	}
	for _, tc := range cases {
		got, ok := rangeMinimum(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestFilterComparesRangeMinimum(t *testing.T) {
	f := NewFilter(80000, nil)

	// The top of the range clearing the floor is not enough
	job := store.JobListing{Title: "Engineer", SalaryRange: "$70,000 - $100,000"}
	ok, reason := f.Eligible(&job)
	assert.False(t, ok)
	assert.Contains(t, reason, "70000")
}
