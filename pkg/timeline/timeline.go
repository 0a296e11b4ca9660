// Package timeline maintains the chronological view of an investigation:
// manual events created by the analyst plus events projected from Event
// entities on the graph.
package timeline

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blackvectorops/pano/pkg/entity"
)

// Event is one entry on the timeline. Entries with a SourceEntityID mirror
// an Event entity on the graph and are regenerated from it; entries without
// one are manual and survive regeneration and persistence.
type Event struct {
	ID             string
	Name           string
	Description    string
	Start          time.Time
	End            time.Time
	Color          string
	SourceEntityID string
}

// Manual reports whether the event was created directly on the timeline
// rather than projected from a graph entity.
func (ev Event) Manual() bool { return ev.SourceEntityID == "" }

// Record is the persisted form of a manual event. Times are ISO-8601 at
// minute precision.
type Record struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Start       string `json:"start_time"`
	End         string `json:"end_time,omitempty"`
	Color       string `json:"color,omitempty"`
}

const recordLayout = "2006-01-02T15:04"

// Manager holds the current timeline.
type Manager struct {
	mu     sync.RWMutex
	logger *slog.Logger
	events map[string]Event
}

// NewManager creates an empty timeline.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger, events: make(map[string]Event)}
}

// AddManual creates a manual timeline event and returns it.
func (m *Manager) AddManual(name, description string, start, end time.Time, color string) Event {
	ev := Event{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Start:       start.Truncate(time.Minute),
		End:         end.Truncate(time.Minute),
		Color:       color,
	}
	m.mu.Lock()
	m.events[ev.ID] = ev
	m.mu.Unlock()
	return ev
}

// Remove deletes an event by id. Unknown ids are ignored.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.events, id)
	m.mu.Unlock()
}

// Events returns all events sorted by start time, then id for stability.
func (m *Manager) Events() []Event {
	m.mu.RLock()
	out := make([]Event, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Regenerate rebuilds the entity-sourced part of the timeline from the
// given entities. Manual events are kept; previous entity-sourced events
// are dropped and replaced by one event per Event entity that opts in via
// add_to_timeline and has a parseable start date.
func (m *Manager) Regenerate(entities []*entity.Entity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, ev := range m.events {
		if !ev.Manual() {
			delete(m.events, id)
		}
	}

	for _, e := range entities {
		if e.Type() != entity.KindEvent || !e.GetBool("add_to_timeline") {
			continue
		}
		start := e.GetTime("start_date")
		if start == nil {
			m.logger.Warn("event entity has no start date, skipping timeline entry",
				"entity_id", e.ID(), "label", e.Label())
			continue
		}
		ev := Event{
			ID:             uuid.NewString(),
			Name:           e.Label(),
			Description:    e.GetString("description"),
			Start:          *start,
			Color:          e.Color(),
			SourceEntityID: e.ID(),
		}
		if end := e.GetTime("end_date"); end != nil {
			ev.End = *end
		}
		m.events[ev.ID] = ev
	}
}

// Export serializes the manual events only. Entity-sourced events are
// regenerated from the graph on load rather than persisted.
func (m *Manager) Export() []Record {
	var out []Record
	for _, ev := range m.Events() {
		if !ev.Manual() {
			continue
		}
		rec := Record{
			ID:          ev.ID,
			Name:        ev.Name,
			Description: ev.Description,
			Start:       ev.Start.Format(recordLayout),
			Color:       ev.Color,
		}
		if !ev.End.IsZero() {
			rec.End = ev.End.Format(recordLayout)
		}
		out = append(out, rec)
	}
	return out
}

// Import restores manual events from their persisted records. Records with
// an unparseable start time are skipped with a warning.
func (m *Manager) Import(records []Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rec := range records {
		start, err := time.Parse(recordLayout, rec.Start)
		if err != nil {
			m.logger.Warn("skipping timeline event with invalid start time",
				"id", rec.ID, "start_time", rec.Start)
			continue
		}
		ev := Event{
			ID:          rec.ID,
			Name:        rec.Name,
			Description: rec.Description,
			Start:       start,
			Color:       rec.Color,
		}
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		if rec.End != "" {
			if end, err := time.Parse(recordLayout, rec.End); err == nil {
				ev.End = end
			}
		}
		m.events[ev.ID] = ev
	}
}

// Clear removes every event, manual ones included.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.events = make(map[string]Event)
	m.mu.Unlock()
}
