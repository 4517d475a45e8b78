package distribution

import (
	"time"

	"github.com/ganot/placement-desk/internal/domain/student"
	"github.com/ganot/placement-desk/internal/repository"
)

const (
	// DefaultPacing is the pause between consecutive company writes.
	DefaultPacing = 200 * time.Millisecond
	// DefaultReviewStatus is stamped on every distributed row.
	DefaultReviewStatus = "Pending Review"
	// DefaultChunkSize bounds the rows sent per bulk import call.
	DefaultChunkSize = 100
)

// Outcome is the result of sending students to one company.
type Outcome struct {
	CompanyID string                  `json:"company_id"`
	Success   bool                    `json:"success"`
	Response  *repository.WriteResult `json:"response,omitempty"`
	Error     string                  `json:"error,omitempty"`
	At        time.Time               `json:"at"`
}

// Report aggregates the outcomes of one distribution run, in company order.
type Report struct {
	RunID               string    `json:"run_id"`
	StudentIDs          []string  `json:"student_ids"`
	Outcomes            []Outcome `json:"outcomes"`
	SuccessCount        int       `json:"success_count"`
	Total               int       `json:"total"`
	NoEligibleCompanies bool      `json:"no_eligible_companies,omitempty"`
}

// Summary renders the success tally as "<success>/<total>".
func (r *Report) Summary() string {
	return tally(r.SuccessCount, r.Total)
}

// FailureCount returns the number of companies that could not be written.
func (r *Report) FailureCount() int {
	return r.Total - r.SuccessCount
}

// ImportReport describes a bulk import. Processed counts rows written before
// any failure; Error is set when a chunk aborted the import.
type ImportReport struct {
	Total         int                 `json:"total"`
	Processed     int                 `json:"processed"`
	Calls         int                 `json:"calls"`
	Imported      []string            `json:"imported"`
	Rejected      []student.Rejection `json:"rejected,omitempty"`
	Distributions []Report            `json:"distributions,omitempty"`
	Error         string              `json:"error,omitempty"`
}

// Progress receives cumulative bulk import progress.
type Progress func(processed, total int)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Export is the set of students a company may receive.
type Export struct {
	CompanyID string            `json:"company_id"`
	MinCGPA   float64           `json:"min_cgpa"`
	Format    Format            `json:"format"`
	Filename  string            `json:"filename"`
	Students  []student.Student `json:"students,omitempty"`
	CSV       string            `json:"csv,omitempty"`
}

// Stats are cumulative counters for an orchestrator instance.
type Stats struct {
	Runs               int `json:"runs"`
	CompaniesContacted int `json:"companies_contacted"`
	Successes          int `json:"successes"`
	Failures           int `json:"failures"`
	StudentsImported   int `json:"students_imported"`
}

// Config tunes the orchestrator.
type Config struct {
	Pacing       time.Duration
	ReviewStatus string
	ChunkSize    int
}

func (c Config) withDefaults() Config {
	if c.Pacing < 0 {
		c.Pacing = DefaultPacing
	}
	if c.ReviewStatus == "" {
		c.ReviewStatus = DefaultReviewStatus
	}
	if c.ChunkSize <= 0 || c.ChunkSize > DefaultChunkSize {
		c.ChunkSize = DefaultChunkSize
	}
	return c
}

// DefaultConfig returns the production pacing and chunking.
func DefaultConfig() Config {
	return Config{Pacing: DefaultPacing, ReviewStatus: DefaultReviewStatus, ChunkSize: DefaultChunkSize}
}
