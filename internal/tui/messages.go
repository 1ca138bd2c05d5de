package tui

import (
	"github.com/jtsunne/esreshard/internal/reshard"
)

// EventMsg delivers one workflow event to the TUI.
type EventMsg struct {
	Event reshard.Event
}

// DoneMsg signals that every workflow has returned.
type DoneMsg struct {
	Results []*reshard.Result
	Err     error
}
