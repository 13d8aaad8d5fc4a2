package domain

import (
	"context"
	"time"
)

// Resource is one open browser tab as last reported by the extension.
//
// The core never owns a Resource: it only reads snapshots for the duration of
// a single evaluation or action.
type Resource struct {
	// ID is the tab identifier assigned by the browser.
	ID string `json:"id"`

	URL   string `json:"url"`
	Title string `json:"title,omitempty"`

	// Pinned tabs are skipped by CloseOldest and ArchiveStale.
	Pinned bool `json:"pinned"`

	// Index is the position of the tab inside its container.
	Index int `json:"index"`

	// ContainerID is the window holding the tab.
	ContainerID string `json:"container_id"`

	// LastAccessed is zero when the browser did not report it.
	// Zero sorts as the oldest possible access.
	LastAccessed time.Time `json:"last_accessed,omitzero"`
}

// AccessedMillis returns LastAccessed in unix milliseconds, 0 when unknown.
func (r Resource) AccessedMillis() int64 {
	if r.LastAccessed.IsZero() {
		return 0
	}
	return r.LastAccessed.UnixMilli()
}

// ResourceSnapshot is the immutable copy kept in an undo entry.
type ResourceSnapshot struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Index       int    `json:"index"`
	Pinned      bool   `json:"pinned"`
	Title       string `json:"title,omitempty"`
	ContainerID string `json:"container_id"`
}

// Snapshot copies the fields needed to reopen the resource later.
func (r Resource) Snapshot() ResourceSnapshot {
	return ResourceSnapshot{
		ID:          r.ID,
		URL:         r.URL,
		Index:       r.Index,
		Pinned:      r.Pinned,
		Title:       r.Title,
		ContainerID: r.ContainerID,
	}
}

// ResourceFilter narrows a listing. The zero value lists everything.
type ResourceFilter struct {
	ContainerID   string
	ExcludePinned bool
}

// Match reports whether r passes the filter.
func (f ResourceFilter) Match(r Resource) bool {
	if f.ExcludePinned && r.Pinned {
		return false
	}
	if f.ContainerID != "" && r.ContainerID != f.ContainerID {
		return false
	}
	return true
}

// Placement is where a moved resource lands. Position -1 appends.
type Placement struct {
	ContainerID string `json:"container_id"`
	Position    int    `json:"position"`
}

// ResourceSource enumerates the current resources.
type ResourceSource interface {
	List(ctx context.Context, filter ResourceFilter) ([]Resource, error)
}

// MutationSink applies changes to the live resource set.
type MutationSink interface {
	RemoveResources(ctx context.Context, ids []string) error
	MoveResource(ctx context.Context, id string, to Placement) error
	CreateContainer(ctx context.Context, seedID string) (string, error)
	RestoreResource(ctx context.Context, snap ResourceSnapshot) error
}
