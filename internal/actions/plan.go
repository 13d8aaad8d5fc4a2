package actions

import (
	"slices"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// oldest returns up to n unpinned resources, least recently accessed first.
// A missing access time counts as the oldest possible.
func oldest(resources []domain.Resource, n int) []domain.Resource {
	out := unpinned(resources)
	slices.SortStableFunc(out, compareAccess)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// duplicates groups resources by normalized URL and returns everything but
// the most recently accessed member of each group. Ties keep the resource
// seen first. Resources without a URL (still loading, blank) never match.
func duplicates(resources []domain.Resource) []domain.Resource {
	groups := make(map[string][]domain.Resource)
	var order []string
	for _, r := range resources {
		if r.URL == "" {
			continue
		}
		key := domain.NormalizeURL(r.URL)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}

	var out []domain.Resource
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		slices.SortStableFunc(group, func(a, b domain.Resource) int {
			return compareAccess(b, a)
		})
		out = append(out, group[1:]...)
	}
	return out
}

// dominantDomain returns the hostname with the most resources. Ties go to
// the hostname encountered first. Resources without a parseable host are
// ignored.
func dominantDomain(resources []domain.Resource) string {
	counts := make(map[string]int)
	best, bestCount := "", 0
	for _, r := range resources {
		host, ok := domain.Hostname(r.URL)
		if !ok {
			continue
		}
		counts[host]++
		if counts[host] > bestCount {
			best, bestCount = host, counts[host]
		}
	}
	return best
}

// onDomain returns the resources whose hostname equals host, in input order.
func onDomain(resources []domain.Resource, host string) []domain.Resource {
	host = strings.ToLower(host)
	var out []domain.Resource
	for _, r := range resources {
		if h, ok := domain.Hostname(r.URL); ok && h == host {
			out = append(out, r)
		}
	}
	return out
}

// stale returns unpinned resources idle for at least maxIdle at now, oldest
// first. A missing access time counts as stale.
func stale(resources []domain.Resource, now time.Time, maxIdle time.Duration) []domain.Resource {
	var out []domain.Resource
	for _, r := range unpinned(resources) {
		if r.LastAccessed.IsZero() || now.Sub(r.LastAccessed) >= maxIdle {
			out = append(out, r)
		}
	}
	slices.SortStableFunc(out, compareAccess)
	return out
}

func unpinned(resources []domain.Resource) []domain.Resource {
	out := make([]domain.Resource, 0, len(resources))
	for _, r := range resources {
		if !r.Pinned {
			out = append(out, r)
		}
	}
	return out
}

func compareAccess(a, b domain.Resource) int {
	am, bm := a.AccessedMillis(), b.AccessedMillis()
	switch {
	case am < bm:
		return -1
	case am > bm:
		return 1
	}
	return 0
}

func resourceIDs(resources []domain.Resource) []string {
	ids := make([]string, len(resources))
	for i, r := range resources {
		ids[i] = r.ID
	}
	return ids
}
