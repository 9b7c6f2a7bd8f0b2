package core

import "github.com/samber/lo"

type rosterEntry struct {
	sessionID string
	name      string
}

// Roster maps joined sessions to display names.
// Snapshot order follows first insertion of each session; renaming keeps the
// original position. Roster is not safe for concurrent use.
type Roster struct {
	entries []rosterEntry
	index   map[string]int
}

// NewRoster constructs an empty roster.
func NewRoster() *Roster {
	return &Roster{index: make(map[string]int)}
}

// Set records or overwrites the display name for a session.
// Returns true if the session was newly added.
func (r *Roster) Set(sessionID, name string) bool {
	if i, ok := r.index[sessionID]; ok {
		r.entries[i].name = name
		return false
	}
	r.index[sessionID] = len(r.entries)
	r.entries = append(r.entries, rosterEntry{sessionID: sessionID, name: name})
	return true
}

// Name returns the display name of a joined session.
func (r *Roster) Name(sessionID string) (string, bool) {
	i, ok := r.index[sessionID]
	if !ok {
		return "", false
	}
	return r.entries[i].name, true
}

// Remove deletes a session and returns its display name.
func (r *Roster) Remove(sessionID string) (string, bool) {
	i, ok := r.index[sessionID]
	if !ok {
		return "", false
	}
	name := r.entries[i].name

	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, sessionID)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].sessionID] = j
	}
	return name, true
}

// Len returns the number of joined sessions.
func (r *Roster) Len() int {
	return len(r.entries)
}

// Snapshot returns a fresh copy of the display names in roster order.
func (r *Roster) Snapshot() []string {
	return lo.Map(r.entries, func(e rosterEntry, _ int) string {
		return e.name
	})
}
