package commands

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PageSize is the maximum number of history entries in a single page.
const PageSize = 5

// PageState is the navigation state of a history lookup, which round-trips
// through the value of the navigation buttons instead of being stored anywhere.
type PageState struct {
	Page    int    `json:"p"`
	Pages   int    `json:"n"`
	Query   string `json:"q,omitempty"`
	Subject string `json:"s"`
	Source  string `json:"src,omitempty"`
}

// Encode returns the JSON representation of the state, for use as a button value.
func (s PageState) Encode() string {
	b, err := json.Marshal(s)
	if err != nil {
		return "" // Unreachable: all the fields are strings and integers.
	}
	return string(b)
}

// DecodePageState parses a button value which was created with [PageState.Encode].
func DecodePageState(value string) (PageState, error) {
	var s PageState
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return PageState{}, fmt.Errorf("invalid pagination state: %w", err)
	}
	if s.Subject == "" {
		return PageState{}, errors.New("invalid pagination state: missing subject")
	}
	if _, err := ParseSource(s.Source); err != nil {
		return PageState{}, fmt.Errorf("invalid pagination state: %w", err)
	}
	return s, nil
}

// Pages returns the number of pages needed to display n items.
// The result is at least 1, even when there are no items.
func Pages(n int) int {
	return max(1, (n+PageSize-1)/PageSize)
}

// Paginate returns the items of a specific 1-based page number, and the actual page
// number after clamping it into the valid range (e.g. out-of-range pages are clamped
// to the last page, so that requesting page 5 of 12 items returns items 11-12).
func Paginate[T any](items []T, page int) ([]T, int) {
	page = min(max(page, 1), Pages(len(items)))
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(items))
	return items[start:end], page
}
