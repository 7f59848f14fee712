// Package store persists job listings, application records, follow-ups
// and daily activity counters in SQLite.
package store

import "time"

// JobStatus tracks where a listing sits in the pipeline.
type JobStatus string

const (
	StatusDiscovered  JobStatus = "discovered"
	StatusFilteredOut JobStatus = "filtered_out"
	StatusTailored    JobStatus = "tailored"
	StatusApplied     JobStatus = "applied"
)

// Extras holds listing details that don't warrant their own columns.
type Extras struct {
	Requirements   []string          `json:"requirements,omitempty"`
	Benefits       []string          `json:"benefits,omitempty"`
	CompanyDetails map[string]string `json:"company_details,omitempty"`
}

// JobListing is a discovered job posting.
// ID and DateDiscovered are immutable after the first insert.
type JobListing struct {
	ID             string
	Title          string
	Company        string
	Location       string
	Description    string
	URL            string
	ApplicationURL string
	DatePosted     *time.Time
	DateDiscovered time.Time
	SalaryRange    string
	Source         string
	Extras         *Extras
	Status         JobStatus
	UpdatedAt      time.Time
}

// ApplicationRecord is one submission attempt for a job listing.
// Records are append-only; retries after failure produce new rows.
type ApplicationRecord struct {
	ID              int64
	JobID           string
	SubmittedAt     time.Time
	Success         bool
	ConfirmationID  string
	Error           string
	Notes           string
	ResumePath      string
	CoverLetterPath string
}

// FollowUpRecord is a scheduled follow-up for a submitted application.
type FollowUpRecord struct {
	ID            int64
	ApplicationID int64
	DueDate       time.Time
	Completed     bool
	CompletedAt   *time.Time
	Notes         string
}

// FollowUpDetail joins a follow-up with its application and job listing.
type FollowUpDetail struct {
	FollowUpRecord
	JobID    string
	JobTitle string
	Company  string
}

// DailyStat is one row of the daily activity counters.
type DailyStat struct {
	Date                  string
	JobsDiscovered        int
	ApplicationsSubmitted int
	FollowUpsSent         int
	InterviewsScheduled   int
	OffersReceived        int
}

// Event is a manually recorded pipeline milestone.
type Event string

const (
	EventInterview Event = "interview"
	EventOffer     Event = "offer"
)
