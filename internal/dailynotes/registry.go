package dailynotes

import (
	"sort"

	"github.com/example/daygap/internal/date"
)

// Note is a daily note that exists in the vault.
type Note struct {
	Date date.Date `json:"date"`
	Path string    `json:"path"`
}

// Registry is a snapshot of the daily notes found on disk. Every decision
// that needs one gets a fresh snapshot and never mutates it, so concurrent
// readers need no locking.
type Registry struct {
	notes     map[date.Date]Note
	first     date.Date
	last      date.Date
	malformed []string
}

// NewRegistry builds a snapshot from the given notes. Malformed paths are
// carried along for reporting.
func NewRegistry(notes []Note, malformed []string) *Registry {
	r := &Registry{notes: make(map[date.Date]Note, len(notes)), malformed: malformed}
	for _, n := range notes {
		r.notes[n.Date] = n
		if r.first.IsZero() || n.Date.Before(r.first) {
			r.first = n.Date
		}
		if r.last.IsZero() || n.Date.After(r.last) {
			r.last = n.Date
		}
	}
	return r
}

// Len returns the number of dated notes in the snapshot.
func (r *Registry) Len() int { return len(r.notes) }

// Has reports whether a note exists for the given day.
func (r *Registry) Has(d date.Date) bool {
	_, ok := r.notes[d]
	return ok
}

// Get returns the note for the given day.
func (r *Registry) Get(d date.Date) (Note, bool) {
	n, ok := r.notes[d]
	return n, ok
}

// First returns the earliest observed date; ok is false when the snapshot
// is empty.
func (r *Registry) First() (date.Date, bool) { return r.first, !r.first.IsZero() }

// Last returns the latest observed date; ok is false when the snapshot is
// empty.
func (r *Registry) Last() (date.Date, bool) { return r.last, !r.last.IsZero() }

// Dates returns the observed dates in ascending order.
func (r *Registry) Dates() []date.Date {
	out := make([]date.Date, 0, len(r.notes))
	for d := range r.notes {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Notes returns the notes in ascending date order.
func (r *Registry) Notes() []Note {
	out := make([]Note, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Malformed returns the paths under the daily notes folder whose names did
// not parse as dates, when the vault is configured to track them.
func (r *Registry) Malformed() []string { return r.malformed }
