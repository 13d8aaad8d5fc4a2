package testutil

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// StaticSource serves a fixed resource list and counts List calls.
// Set Err to make listing fail.
type StaticSource struct {
	mu        sync.Mutex
	resources []domain.Resource
	Err       error
	calls     atomic.Int64
}

func NewStaticSource(resources ...domain.Resource) *StaticSource {
	return &StaticSource{resources: resources}
}

func (s *StaticSource) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, error) {
	s.calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]domain.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Set replaces the served list.
func (s *StaticSource) Set(resources ...domain.Resource) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = resources
}

// Calls returns how many times List ran.
func (s *StaticSource) Calls() int64 { return s.calls.Load() }

// Tabs builds n unpinned resources on https://<host>/<i> in container "w1".
func Tabs(host string, n int) []domain.Resource {
	out := make([]domain.Resource, n)
	for i := range out {
		out[i] = domain.Resource{
			ID:          fmt.Sprintf("%s-%d", host, i),
			URL:         fmt.Sprintf("https://%s/%d", host, i),
			ContainerID: "w1",
			Index:       i,
		}
	}
	return out
}

// AccessedAt sets LastAccessed on a copy of r.
func AccessedAt(r domain.Resource, t time.Time) domain.Resource {
	r.LastAccessed = t
	return r
}
