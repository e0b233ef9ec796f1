package models

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*limit inside the int range.
	MaxPage = math.MaxInt / MaxLimit
)

// Pagination is the page/limit/offset triple used to slice a listing.
type Pagination struct {
	Page   int `json:"page"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// NewPagination parses raw query values. Missing or non-numeric values fall
// back to the defaults and out-of-range values are clamped; nothing is
// rejected.
func NewPagination(page, limit string) Pagination {
	p := parseOr(page, DefaultPage)
	if p < 1 {
		p = 1
	}
	if p > MaxPage {
		p = MaxPage
	}

	l := parseOr(limit, DefaultLimit)
	if l < 1 {
		l = 1
	}
	if l > MaxLimit {
		l = MaxLimit
	}

	return Pagination{Page: p, Limit: l, Offset: (p - 1) * l}
}

// TotalPages returns the number of pages needed for total rows.
func (p Pagination) TotalPages(total int) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}

func parseOr(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
