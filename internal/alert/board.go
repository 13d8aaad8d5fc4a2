package alert

import (
	"sync"
	"time"
)

// Alert is what the extension renders. Buttons[0] closes the oldest tabs,
// Buttons[1] snoozes.
type Alert struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Buttons   [2]string `json:"buttons"`
	Current   int       `json:"current"`
	Threshold int       `json:"threshold"`
	ShownAt   time.Time `json:"shown_at"`
}

// State is the snapshot served to the extension.
type State struct {
	Alert *Alert `json:"alert"`
	Badge string `json:"badge"`
}

// Board holds the alert currently on display and the badge text. The
// extension polls it.
type Board struct {
	mu      sync.RWMutex
	current *Alert
	badge   string
}

func NewBoard() *Board {
	return &Board{}
}

// Show replaces the displayed alert.
func (b *Board) Show(id string, a Alert) {
	a.ID = id
	b.mu.Lock()
	b.current = &a
	b.mu.Unlock()
}

// Clear removes the alert if id is the one on display.
func (b *Board) Clear(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil && b.current.ID == id {
		b.current = nil
	}
}

func (b *Board) SetBadge(text string) {
	b.mu.Lock()
	b.badge = text
	b.mu.Unlock()
}

// Current returns a copy of the displayed alert.
func (b *Board) Current() (Alert, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return Alert{}, false
	}
	return *b.current, true
}

func (b *Board) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s := State{Badge: b.badge}
	if b.current != nil {
		a := *b.current
		s.Alert = &a
	}
	return s
}
