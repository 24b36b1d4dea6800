// Package history is the read side of the job collection: listing, sorting
// and offset pagination for display. It never mutates job state.
package history

import (
	"fmt"
	"sort"
	"time"

	"github.com/thermoters/jobd/internal/db"
	"github.com/thermoters/jobd/internal/db/models"
	"gorm.io/gorm"
)

// SortField selects the column the listing is ordered by.
type SortField string

const (
	SortByTitle   SortField = "title"
	SortByCreated SortField = "createdAt"
)

const (
	DirectionAsc  = "asc"
	DirectionDesc = "desc"

	DefaultPageSize = 5
)

// Query describes one history listing request.
type Query struct {
	SortField     SortField
	SortDirection string
	PageIndex     int
	PageSize      int
}

// Normalize fills defaults and rejects unknown sort parameters.
func (q *Query) Normalize() error {
	if q.SortField == "" {
		q.SortField = SortByCreated
	}
	if q.SortField != SortByTitle && q.SortField != SortByCreated {
		return fmt.Errorf("unknown sort field %q", q.SortField)
	}
	if q.SortDirection == "" {
		q.SortDirection = DirectionDesc
	}
	if q.SortDirection != DirectionAsc && q.SortDirection != DirectionDesc {
		return fmt.Errorf("unknown sort direction %q", q.SortDirection)
	}
	if q.PageIndex < 0 {
		q.PageIndex = 0
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	return nil
}

// Summary is the listing projection of a job.
type Summary struct {
	JobID        string           `json:"jobId"`
	Title        string           `json:"title"`
	Status       models.JobStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	CompletedAt  *time.Time       `json:"completedAt,omitempty"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

// Page is one slice of the sorted listing.
type Page struct {
	Jobs       []Summary `json:"jobs"`
	TotalCount int       `json:"totalCount"`
	PageIndex  int       `json:"pageIndex"`
	PageSize   int       `json:"pageSize"`
}

// List fetches all of the account's jobs, sorts them in memory and slices
// out the requested page. Ties keep their fetch order (stable sort).
func List(database *gorm.DB, accountKey string, q Query) (*Page, error) {
	if err := q.Normalize(); err != nil {
		return nil, err
	}

	jobs, err := db.ListJobs(database, accountKey)
	if err != nil {
		return nil, err
	}
	sortJobs(jobs, q)

	start := q.PageIndex * q.PageSize
	if start > len(jobs) {
		start = len(jobs)
	}
	end := start + q.PageSize
	if end > len(jobs) {
		end = len(jobs)
	}

	page := &Page{
		Jobs:       make([]Summary, 0, end-start),
		TotalCount: len(jobs),
		PageIndex:  q.PageIndex,
		PageSize:   q.PageSize,
	}
	for _, job := range jobs[start:end] {
		page.Jobs = append(page.Jobs, Summary{
			JobID:        job.ID,
			Title:        job.Title,
			Status:       job.Status,
			CreatedAt:    job.CreatedAt,
			CompletedAt:  job.CompletedAt,
			ErrorMessage: job.ErrorMessage,
		})
	}
	return page, nil
}

func sortJobs(jobs []models.Job, q Query) {
	var less func(i, j int) bool
	switch q.SortField {
	case SortByTitle:
		less = func(i, j int) bool { return jobs[i].Title < jobs[j].Title }
	default:
		less = func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) }
	}
	if q.SortDirection == DirectionDesc {
		asc := less
		less = func(i, j int) bool { return asc(j, i) }
	}
	sort.SliceStable(jobs, less)
}
