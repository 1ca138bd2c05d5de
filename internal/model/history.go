package model

import "time"

const defaultActivityCap = 200

// ActivityLine is a single timestamped line in the activity log.
type ActivityLine struct {
	At     time.Time
	Index  string
	Text   string
	Failed bool
}

// ActivityLog is a fixed-size ring buffer of ActivityLines.
// When the buffer is full, new pushes overwrite the oldest entry.
type ActivityLog struct {
	buf  []ActivityLine
	head int // index of the next write position
	size int // number of valid entries
}

// NewActivityLog creates an ActivityLog with the given capacity.
// If capacity <= 0, defaultActivityCap is used.
func NewActivityLog(capacity int) *ActivityLog {
	if capacity <= 0 {
		capacity = defaultActivityCap
	}
	return &ActivityLog{
		buf: make([]ActivityLine, capacity),
	}
}

// Push appends a line, overwriting the oldest if full.
func (h *ActivityLog) Push(l ActivityLine) {
	h.buf[h.head] = l
	h.head = (h.head + 1) % len(h.buf)
	if h.size < len(h.buf) {
		h.size++
	}
}

// Len returns the number of valid entries.
func (h *ActivityLog) Len() int {
	return h.size
}

// Clear resets the log to empty.
func (h *ActivityLog) Clear() {
	h.head = 0
	h.size = 0
}

// Last returns up to n most recent lines in chronological order (oldest first).
func (h *ActivityLog) Last(n int) []ActivityLine {
	if n <= 0 || h.size == 0 {
		return []ActivityLine{}
	}
	if n > h.size {
		n = h.size
	}
	out := make([]ActivityLine, n)
	// oldest requested entry sits at (head - n + cap) % cap
	start := (h.head - n + len(h.buf)) % len(h.buf)
	for i := 0; i < n; i++ {
		out[i] = h.buf[(start+i)%len(h.buf)]
	}
	return out
}
