// ABOUTME: Backend contract for the demo API pack and its simulated implementation.
// ABOUTME: The simulated backend returns parameter-derived canned data after an optional delay.

package demoapi

import (
	"context"
	"time"
)

// User is returned by get_user.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// SearchResult is returned by search. Category is null when not given.
type SearchResult struct {
	Query    string   `json:"query"`
	Category *string  `json:"category"`
	Results  []string `json:"results"`
	Total    int      `json:"total"`
}

// ItemPage is returned by list_items.
type ItemPage struct {
	Items    []string `json:"items"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
	Total    int      `json:"total"`
}

// SearchParams are the inputs to Backend.Search.
type SearchParams struct {
	Query    string
	Category string
	Limit    int
}

// ListParams are the inputs to Backend.ListItems.
type ListParams struct {
	Category string
	Page     int
	PageSize int
}

// Backend serves the demo tools.
type Backend interface {
	GetUser(ctx context.Context, userID string) (*User, error)
	Search(ctx context.Context, p SearchParams) (*SearchResult, error)
	ListItems(ctx context.Context, p ListParams) (*ItemPage, error)
}

// Latency holds per-operation delays for the simulated backend.
type Latency struct {
	GetUser   time.Duration
	Search    time.Duration
	ListItems time.Duration
}

// DefaultLatency mimics a remote API round trip.
var DefaultLatency = Latency{
	GetUser:   100 * time.Millisecond,
	Search:    200 * time.Millisecond,
	ListItems: 150 * time.Millisecond,
}

// Simulated is an in-process Backend with canned data.
type Simulated struct {
	Latency Latency
}

// NewSimulated returns a Simulated backend with the given latency.
func NewSimulated(latency Latency) *Simulated {
	return &Simulated{Latency: latency}
}

// GetUser returns a fixed user carrying the requested ID.
func (s *Simulated) GetUser(ctx context.Context, userID string) (*User, error) {
	if err := sleep(ctx, s.Latency.GetUser); err != nil {
		return nil, err
	}
	return &User{ID: userID, Name: "John Doe", Email: "john@example.com"}, nil
}

// Search echoes the query and category with three fixed results.
func (s *Simulated) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	if err := sleep(ctx, s.Latency.Search); err != nil {
		return nil, err
	}
	res := &SearchResult{
		Query:   p.Query,
		Results: []string{"Result 1", "Result 2", "Result 3"},
		Total:   3,
	}
	if p.Category != "" {
		category := p.Category
		res.Category = &category
	}
	return res, nil
}

// ListItems returns one fixed page from a collection of 100 items.
func (s *Simulated) ListItems(ctx context.Context, p ListParams) (*ItemPage, error) {
	if err := sleep(ctx, s.Latency.ListItems); err != nil {
		return nil, err
	}
	return &ItemPage{
		Items:    []string{"Item 1", "Item 2", "Item 3"},
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    100,
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
