package domain

import "time"

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// searchSortColumns whitelists the sortable fields. Anything else falls
// back to departure time.
var searchSortColumns = map[string]bool{
	"departure_time": true,
	"price":          true,
	"created_at":     true,
}

// SearchQuery is the filter set for the ride search. Zero values mean
// "no filter" except where noted.
type SearchQuery struct {
	Origin      string // case-insensitive substring
	Destination string // case-insensitive substring
	DepartFrom  *time.Time
	DepartTo    *time.Time
	MaxPrice    *float64
	MinSeats    *int
	IncludeFull bool
	Statuses    []RideStatus
	IncludePast bool
	Page        int
	PageSize    int
	SortBy      string
	SortDesc    bool
}

// Normalized applies the default filters and bounds:
//   - statuses default to SCHEDULED only
//   - when past rides are excluded, the departure lower bound is raised to now
//   - page index is clamped to >= 0, page size to [1, MaxPageSize]
//   - the sort key is restricted to the whitelist
//
// The result describes the exact predicate the repository runs, for both the
// page and the total count.
func (q SearchQuery) Normalized(now time.Time) SearchQuery {
	if len(q.Statuses) == 0 {
		q.Statuses = []RideStatus{StatusScheduled}
	}

	if !q.IncludePast {
		if q.DepartFrom == nil || q.DepartFrom.Before(now) {
			t := now
			q.DepartFrom = &t
		}
		q.IncludePast = true // lower bound now encodes the exclusion
	}

	if q.Page < 0 {
		q.Page = 0
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	if q.PageSize > MaxPageSize {
		q.PageSize = MaxPageSize
	}

	if !searchSortColumns[q.SortBy] {
		q.SortBy = "departure_time"
		q.SortDesc = false
	}

	return q
}
