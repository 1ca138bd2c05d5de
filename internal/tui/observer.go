package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jtsunne/esreshard/internal/reshard"
)

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// Observer forwards workflow events to a running program.
type Observer struct {
	p Sender
}

// NewObserver returns an Observer sending to p.
func NewObserver(p Sender) *Observer {
	return &Observer{p: p}
}

// Observe implements reshard.Observer.
func (o *Observer) Observe(e reshard.Event) {
	o.p.Send(EventMsg{Event: e})
}
