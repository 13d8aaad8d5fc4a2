package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
	"github.com/MrSnakeDoc/tabguard/internal/notify"
)

// ChangeKind is the type of a change reported by the extension.
type ChangeKind string

const (
	ResourceCreated   ChangeKind = "created"
	ResourceRemoved   ChangeKind = "removed"
	ResourceUpdated   ChangeKind = "updated"
	ContainerCreated  ChangeKind = "container_created"
	ContainerRemoved  ChangeKind = "container_removed"
	ResourcesReplaced ChangeKind = "replaced"
)

// Change is one resource or container lifecycle event.
type Change struct {
	Kind        ChangeKind       `json:"kind"`
	Resource    *domain.Resource `json:"resource,omitempty"`
	ResourceID  string           `json:"resource_id,omitempty"`
	ContainerID string           `json:"container_id,omitempty"`
}

// Validate checks that the change carries what its kind needs.
func (c Change) Validate() error {
	switch c.Kind {
	case ResourceCreated, ResourceUpdated:
		if c.Resource == nil || c.Resource.ID == "" {
			return fmt.Errorf("%s change requires a resource with an id", c.Kind)
		}
	case ResourceRemoved:
		if c.ResourceID == "" && (c.Resource == nil || c.Resource.ID == "") {
			return fmt.Errorf("removed change requires resource_id")
		}
	case ContainerCreated, ContainerRemoved:
		if c.ContainerID == "" {
			return fmt.Errorf("%s change requires container_id", c.Kind)
		}
	default:
		return fmt.Errorf("unknown change kind %q", c.Kind)
	}
	return nil
}

// MemoryIndex mirrors the browser's tabs in memory.
//
// It is the resource source for the monitor and the engine, and the mutation
// sink they write to: every mutation updates the mirror right away and queues
// a command that the extension replays in the browser.
type MemoryIndex struct {
	mu         sync.RWMutex
	resources  map[string]domain.Resource // ID -> Resource
	containers map[string]struct{}        // known container IDs
	lastSync   time.Time                  // last full replace

	queue   domain.CommandQueue
	ids     domain.IDGenerator
	clock   domain.Clock
	changes notify.Hub[Change]
}

// NewMemoryIndex creates an empty mirror writing commands to queue.
func NewMemoryIndex(queue domain.CommandQueue, ids domain.IDGenerator, clock domain.Clock) *MemoryIndex {
	return &MemoryIndex{
		resources:  make(map[string]domain.Resource),
		containers: make(map[string]struct{}),
		queue:      queue,
		ids:        ids,
		clock:      clock,
	}
}

// Subscribe registers fn for every applied change.
func (idx *MemoryIndex) Subscribe(fn func(Change)) (unsubscribe func()) {
	return idx.changes.Subscribe(fn)
}

// Replace swaps the whole mirror for a fresh listing.
func (idx *MemoryIndex) Replace(resources []domain.Resource) {
	idx.mu.Lock()
	idx.resources = make(map[string]domain.Resource, len(resources))
	idx.containers = make(map[string]struct{})
	for _, r := range resources {
		idx.resources[r.ID] = r
		if r.ContainerID != "" {
			idx.containers[r.ContainerID] = struct{}{}
		}
	}
	idx.lastSync = idx.clock.Now()
	idx.mu.Unlock()

	idx.changes.Publish(Change{Kind: ResourcesReplaced})
}

// Apply folds one change into the mirror and notifies subscribers.
func (idx *MemoryIndex) Apply(c Change) error {
	if err := c.Validate(); err != nil {
		return err
	}

	idx.mu.Lock()
	switch c.Kind {
	case ResourceCreated, ResourceUpdated:
		idx.resources[c.Resource.ID] = *c.Resource
		if c.Resource.ContainerID != "" {
			idx.containers[c.Resource.ContainerID] = struct{}{}
		}
	case ResourceRemoved:
		id := c.ResourceID
		if id == "" {
			id = c.Resource.ID
		}
		delete(idx.resources, id)
	case ContainerCreated:
		idx.containers[c.ContainerID] = struct{}{}
	case ContainerRemoved:
		delete(idx.containers, c.ContainerID)
		for id, r := range idx.resources {
			if r.ContainerID == c.ContainerID {
				delete(idx.resources, id)
			}
		}
	}
	idx.mu.Unlock()

	idx.changes.Publish(c)
	return nil
}

// List returns the resources matching filter ordered by container, then
// index, then ID, so repeated listings of the same set agree.
func (idx *MemoryIndex) List(ctx context.Context, filter domain.ResourceFilter) ([]domain.Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx.mu.RLock()
	out := make([]domain.Resource, 0, len(idx.resources))
	for _, r := range idx.resources {
		if filter.Match(r) {
			out = append(out, r)
		}
	}
	idx.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ContainerID != b.ContainerID {
			return a.ContainerID < b.ContainerID
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.ID < b.ID
	})
	return out, nil
}

// Count returns the number of mirrored resources.
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.resources)
}

// ContainerCount returns the number of known containers.
func (idx *MemoryIndex) ContainerCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.containers)
}

// GetLastSync returns the time of the last full replace.
func (idx *MemoryIndex) GetLastSync() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastSync
}

// ─────────────────────────────────────────────────────────────────
// Mutation sink
// ─────────────────────────────────────────────────────────────────

// RemoveResources queues a close for ids and drops them from the mirror.
func (idx *MemoryIndex) RemoveResources(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := idx.push(ctx, domain.Command{Kind: domain.CommandRemove, ResourceIDs: ids}); err != nil {
		return err
	}

	idx.mu.Lock()
	for _, id := range ids {
		delete(idx.resources, id)
	}
	idx.mu.Unlock()

	for _, id := range ids {
		idx.changes.Publish(Change{Kind: ResourceRemoved, ResourceID: id})
	}
	return nil
}

// MoveResource queues a move and applies it to the mirror. Position -1
// appends after the last resource of the target container.
func (idx *MemoryIndex) MoveResource(ctx context.Context, id string, to domain.Placement) error {
	idx.mu.RLock()
	_, ok := idx.resources[id]
	idx.mu.RUnlock()
	if !ok {
		return fmt.Errorf("resource %s not found", id)
	}

	placement := to
	if err := idx.push(ctx, domain.Command{Kind: domain.CommandMove, ResourceIDs: []string{id}, Placement: &placement}); err != nil {
		return err
	}

	idx.mu.Lock()
	r, ok := idx.resources[id]
	if ok {
		r.ContainerID = to.ContainerID
		r.Index = to.Position
		if to.Position < 0 {
			r.Index = idx.nextIndexLocked(to.ContainerID, id)
		}
		idx.resources[id] = r
		idx.containers[to.ContainerID] = struct{}{}
	}
	idx.mu.Unlock()

	if ok {
		idx.changes.Publish(Change{Kind: ResourceUpdated, Resource: &r})
	}
	return nil
}

// CreateContainer queues a new container seeded with seedID and returns its
// provisional ID. The extension maps it to the real window ID.
func (idx *MemoryIndex) CreateContainer(ctx context.Context, seedID string) (string, error) {
	idx.mu.RLock()
	_, ok := idx.resources[seedID]
	idx.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("seed resource %s not found", seedID)
	}

	containerID := "pending-" + idx.ids.New()
	cmd := domain.Command{
		Kind:        domain.CommandCreateContainer,
		ContainerID: containerID,
		ResourceIDs: []string{seedID},
	}
	if err := idx.push(ctx, cmd); err != nil {
		return "", err
	}

	idx.mu.Lock()
	idx.containers[containerID] = struct{}{}
	seed, ok := idx.resources[seedID]
	if ok {
		seed.ContainerID = containerID
		seed.Index = 0
		idx.resources[seedID] = seed
	}
	idx.mu.Unlock()

	idx.changes.Publish(Change{Kind: ContainerCreated, ContainerID: containerID})
	return containerID, nil
}

// RestoreResource queues a reopen of snap and mirrors it right away.
func (idx *MemoryIndex) RestoreResource(ctx context.Context, snap domain.ResourceSnapshot) error {
	s := snap
	if err := idx.push(ctx, domain.Command{Kind: domain.CommandRestore, Snapshot: &s}); err != nil {
		return err
	}

	r := domain.Resource{
		ID:           snap.ID,
		URL:          snap.URL,
		Title:        snap.Title,
		Pinned:       snap.Pinned,
		Index:        snap.Index,
		ContainerID:  snap.ContainerID,
		LastAccessed: idx.clock.Now(),
	}

	idx.mu.Lock()
	idx.resources[r.ID] = r
	if r.ContainerID != "" {
		idx.containers[r.ContainerID] = struct{}{}
	}
	idx.mu.Unlock()

	idx.changes.Publish(Change{Kind: ResourceCreated, Resource: &r})
	return nil
}

func (idx *MemoryIndex) push(ctx context.Context, cmd domain.Command) error {
	cmd.ID = idx.ids.New()
	cmd.CreatedAt = idx.clock.Now()
	if err := idx.queue.Push(ctx, cmd); err != nil {
		return fmt.Errorf("queue %s command: %w", cmd.Kind, err)
	}
	return nil
}

func (idx *MemoryIndex) nextIndexLocked(containerID, exclude string) int {
	next := 0
	for id, r := range idx.resources {
		if id != exclude && r.ContainerID == containerID && r.Index >= next {
			next = r.Index + 1
		}
	}
	return next
}
