package domain

import (
	"context"
	"time"
)

// CommandKind names a mutation the extension has to replay in the browser.
type CommandKind string

const (
	CommandRemove          CommandKind = "remove"
	CommandMove            CommandKind = "move"
	CommandCreateContainer CommandKind = "create_container"
	CommandRestore         CommandKind = "restore"
)

// Command is a queued mutation waiting to be drained by the extension.
type Command struct {
	ID          string            `json:"id"`
	Kind        CommandKind       `json:"kind"`
	CreatedAt   time.Time         `json:"created_at"`
	ResourceIDs []string          `json:"resource_ids,omitempty"`
	Placement   *Placement        `json:"placement,omitempty"`
	ContainerID string            `json:"container_id,omitempty"`
	Snapshot    *ResourceSnapshot `json:"snapshot,omitempty"`
}

// CommandQueue is a FIFO between the daemon and the extension.
type CommandQueue interface {
	Push(ctx context.Context, cmd Command) error
	Drain(ctx context.Context, max int) ([]Command, error)
}
