package types

import "time"

// StatusHistory maps a status name to the instant it was first reached.
// The map is append-only: re-recording a status keeps the original
// timestamp, which makes callback replays invisible in the history.
type StatusHistory map[string]time.Time

// MarkOnce records status at now if it has no entry yet. It reports
// whether a new entry was written.
func (h StatusHistory) MarkOnce(status string, now time.Time) bool {
	if _, seen := h[status]; seen {
		return false
	}
	h[status] = now.UTC()
	return true
}

// Has reports whether status was ever reached.
func (h StatusHistory) Has(status string) bool {
	_, seen := h[status]
	return seen
}

// Clone returns a copy safe to mutate.
func (h StatusHistory) Clone() StatusHistory {
	out := make(StatusHistory, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out
}
