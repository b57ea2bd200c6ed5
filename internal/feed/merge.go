// Package feed merges the two post slots into the feed and applies mutations to them.
package feed

import (
	"slices"
	"strings"
	"time"

	"smartbarangay/internal/models"

	"github.com/araddon/dateparse"
)

// EffectiveTime is the sort key of a post: createdAt when it parses, else the
// id read as Unix milliseconds, else the zero time (earliest possible).
func EffectiveTime(p models.Post) time.Time {
	if t, ok := parseCreatedAt(p.CreatedAt); ok {
		return t
	}
	if p.ID > 0 {
		return time.UnixMilli(p.ID)
	}
	return time.Time{}
}

// parseCreatedAt accepts RFC 3339 as well as browser locale strings such as
// "11/14/2023, 10:13:20 PM".
func parseCreatedAt(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := dateparse.ParseLocal(s); err == nil {
		return t, true
	}
	if i := strings.Index(s, ","); i >= 0 {
		if t, err := dateparse.ParseLocal(s[:i] + s[i+1:]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type keyed struct {
	post models.Post
	at   time.Time
}

// MergeAndSort returns the citizen and admin posts as one sequence, newest
// first. Ties keep citizen-then-admin storage order. Inputs are not modified.
func MergeAndSort(citizen, admin []models.Post) []models.Post {
	all := make([]keyed, 0, len(citizen)+len(admin))
	for _, p := range citizen {
		all = append(all, keyed{post: p, at: EffectiveTime(p)})
	}
	for _, p := range admin {
		all = append(all, keyed{post: p, at: EffectiveTime(p)})
	}

	slices.SortStableFunc(all, func(a, b keyed) int {
		return b.at.Compare(a.at)
	})

	out := make([]models.Post, len(all))
	for i, k := range all {
		out[i] = k.post
	}
	return out
}
