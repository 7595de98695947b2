package domain

import (
	"testing"
	"time"
)

func TestNormalizedDefaults(t *testing.T) {
	now := time.Now()
	q := SearchQuery{}.Normalized(now)

	if len(q.Statuses) != 1 || q.Statuses[0] != StatusScheduled {
		t.Fatalf("expected default status SCHEDULED, got %v", q.Statuses)
	}
	if q.DepartFrom == nil || !q.DepartFrom.Equal(now) {
		t.Fatalf("expected departure lower bound raised to now, got %v", q.DepartFrom)
	}
	if q.Page != 0 || q.PageSize != DefaultPageSize {
		t.Fatalf("expected page 0 size %d, got %d/%d", DefaultPageSize, q.Page, q.PageSize)
	}
	if q.SortBy != "departure_time" || q.SortDesc {
		t.Fatalf("expected default sort by departure_time asc, got %s desc=%v", q.SortBy, q.SortDesc)
	}
}

func TestNormalizedKeepsFutureLowerBound(t *testing.T) {
	now := time.Now()
	future := now.Add(3 * time.Hour)
	q := SearchQuery{DepartFrom: &future}.Normalized(now)

	if !q.DepartFrom.Equal(future) {
		t.Fatalf("future lower bound must be kept, got %v", q.DepartFrom)
	}
}

func TestNormalizedRaisesPastLowerBound(t *testing.T) {
	now := time.Now()
	past := now.Add(-3 * time.Hour)
	q := SearchQuery{DepartFrom: &past}.Normalized(now)

	if !q.DepartFrom.Equal(now) {
		t.Fatalf("past lower bound must be raised to now, got %v", q.DepartFrom)
	}
}

func TestNormalizedIncludePast(t *testing.T) {
	now := time.Now()
	past := now.Add(-3 * time.Hour)
	q := SearchQuery{DepartFrom: &past, IncludePast: true}.Normalized(now)

	if !q.DepartFrom.Equal(past) {
		t.Fatalf("include_past must keep the past lower bound, got %v", q.DepartFrom)
	}
}

func TestNormalizedClampsPaging(t *testing.T) {
	q := SearchQuery{Page: -3, PageSize: 500}.Normalized(time.Now())
	if q.Page != 0 {
		t.Fatalf("expected page clamped to 0, got %d", q.Page)
	}
	if q.PageSize != MaxPageSize {
		t.Fatalf("expected page size clamped to %d, got %d", MaxPageSize, q.PageSize)
	}
}

func TestNormalizedRejectsUnknownSortColumn(t *testing.T) {
	q := SearchQuery{SortBy: "password_hash; DROP TABLE rides", SortDesc: true}.Normalized(time.Now())
	if q.SortBy != "departure_time" || q.SortDesc {
		t.Fatalf("unknown sort column must fall back, got %s desc=%v", q.SortBy, q.SortDesc)
	}
}

func TestNormalizedKeepsExplicitStatuses(t *testing.T) {
	q := SearchQuery{Statuses: []RideStatus{StatusCompleted, StatusCancelled}}.Normalized(time.Now())
	if len(q.Statuses) != 2 {
		t.Fatalf("explicit statuses must be kept, got %v", q.Statuses)
	}
}
