package discovery

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/applyd/applyd/errors"
	"github.com/applyd/applyd/store"
)

// fileListing is the JSON shape of one listing in a batch file.
type fileListing struct {
	SourceID       string   `json:"source_id"`
	Title          string   `json:"title"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Description    string   `json:"description"`
	URL            string   `json:"url"`
	ApplicationURL string   `json:"application_url"`
	DatePosted     string   `json:"date_posted"`
	SalaryRange    string   `json:"salary_range"`
	Requirements   []string `json:"requirements"`
	Benefits       []string `json:"benefits"`
}

// FileSource reads a JSON batch of listings from disk. It is the
// simplest concrete source and the one the CLI feeds from.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a source named after the batch it reads.
func NewFileSource(name, path string) *FileSource {
	return &FileSource{name: name, path: path}
}

func (f *FileSource) Name() string {
	return f.name
}

// Fetch parses the batch file into job listings. Listings without a
// source_id get one derived from their URL so ids stay stable across
// re-reads.
func (f *FileSource) Fetch(ctx context.Context) ([]store.JobListing, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read listings file %s", f.path)
	}

	var raw []fileListing
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "parse listings file %s", f.path)
	}

	listings := make([]store.JobListing, 0, len(raw))
	for i, fl := range raw {
		if fl.Title == "" || fl.Company == "" {
			return nil, errors.Newf("listing %d in %s missing title or company", i, f.path)
		}

		sourceID := fl.SourceID
		if sourceID == "" && fl.URL != "" {
			sourceID = urlID(fl.URL)
		}

		job := store.JobListing{
			ID:             ListingID(f.name, sourceID),
			Title:          fl.Title,
			Company:        fl.Company,
			Location:       fl.Location,
			Description:    fl.Description,
			URL:            fl.URL,
			ApplicationURL: fl.ApplicationURL,
			SalaryRange:    fl.SalaryRange,
			Source:         f.name,
		}
		if fl.DatePosted != "" {
			t, err := time.Parse("2006-01-02", fl.DatePosted)
			if err != nil {
				return nil, errors.Wrapf(err, "listing %d in %s: bad date_posted", i, f.path)
			}
			job.DatePosted = &t
		}
		if len(fl.Requirements) > 0 || len(fl.Benefits) > 0 {
			job.Extras = &store.Extras{
				Requirements: fl.Requirements,
				Benefits:     fl.Benefits,
			}
		}
		listings = append(listings, job)
	}

	return listings, nil
}
