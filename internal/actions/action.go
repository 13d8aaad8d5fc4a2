package actions

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/tabguard/internal/domain"
)

// Kind is the wire name of an action.
type Kind string

const (
	KindCloseOldest     Kind = "close_oldest"
	KindCloseDuplicates Kind = "close_duplicates"
	KindGroupDomain     Kind = "group_domain"
	KindSnooze          Kind = "snooze"
	KindArchiveStale    Kind = "archive_stale"
)

// Action is one of CloseOldest, CloseDuplicates, GroupDomain, Snooze or
// ArchiveStale. The set is closed: only this package can add variants.
type Action interface {
	Kind() Kind
	params() string
	action()
}

// CloseOldest closes the Count least recently used unpinned resources.
// Count 0 uses Settings.QuickCloseCount.
type CloseOldest struct {
	Count int
}

// CloseDuplicates closes every resource whose normalized URL is already open
// in a more recently used resource.
type CloseDuplicates struct{}

// GroupDomain moves every resource of Domain into a new container. An empty
// Domain picks the most common hostname.
type GroupDomain struct {
	Domain string
}

// Snooze silences alerts for Minutes. Minutes 0 uses
// Settings.DefaultSnoozeMinutes.
type Snooze struct {
	Minutes int
}

// ArchiveStale closes unpinned resources not accessed for Hours. Hours 0 uses
// Settings.StaleAfterHours.
type ArchiveStale struct {
	Hours int
}

func (CloseOldest) Kind() Kind     { return KindCloseOldest }
func (CloseDuplicates) Kind() Kind { return KindCloseDuplicates }
func (GroupDomain) Kind() Kind     { return KindGroupDomain }
func (Snooze) Kind() Kind          { return KindSnooze }
func (ArchiveStale) Kind() Kind    { return KindArchiveStale }

func (a CloseOldest) params() string   { return optional("count", a.Count) }
func (CloseDuplicates) params() string { return "" }
func (a GroupDomain) params() string {
	if a.Domain == "" {
		return ""
	}
	return "domain=" + a.Domain
}
func (a Snooze) params() string       { return optional("minutes", a.Minutes) }
func (a ArchiveStale) params() string { return optional("hours", a.Hours) }

func (CloseOldest) action()     {}
func (CloseDuplicates) action() {}
func (GroupDomain) action()     {}
func (Snooze) action()          {}
func (ArchiveStale) action()    {}

func optional(name string, v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%s=%d", name, v)
}

// Params is the loosely typed form of an action request, as decoded from JSON.
type Params struct {
	Count   int    `json:"count,omitempty"`
	Domain  string `json:"domain,omitempty"`
	Minutes int    `json:"minutes,omitempty"`
	Hours   int    `json:"hours,omitempty"`
}

func (p Params) String() string {
	var parts []string
	for _, s := range []string{
		optional("count", p.Count),
		optional("minutes", p.Minutes),
		optional("hours", p.Hours),
	} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if p.Domain != "" {
		parts = append(parts, "domain="+p.Domain)
	}
	return strings.Join(parts, ",")
}

// ParseAction turns a kind string and its parameters into an Action.
// Unrecognized kinds fail with domain.ErrUnknownAction, negative numbers with
// domain.ErrInvalidParams.
func ParseAction(kind string, p Params) (Action, error) {
	fail := func(err error) (Action, error) {
		return nil, &domain.ActionError{Action: kind, Params: p.String(), Err: err}
	}

	if p.Count < 0 || p.Minutes < 0 || p.Hours < 0 {
		return fail(domain.ErrInvalidParams)
	}

	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case KindCloseOldest:
		return CloseOldest{Count: p.Count}, nil
	case KindCloseDuplicates:
		return CloseDuplicates{}, nil
	case KindGroupDomain:
		return GroupDomain{Domain: strings.ToLower(strings.TrimSpace(p.Domain))}, nil
	case KindSnooze:
		return Snooze{Minutes: p.Minutes}, nil
	case KindArchiveStale:
		return ArchiveStale{Hours: p.Hours}, nil
	default:
		return fail(domain.ErrUnknownAction)
	}
}
