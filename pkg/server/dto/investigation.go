package dto

import "time"

// EnrichRequest applies an enrichment payload to the graph.
type EnrichRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// EnrichResponse summarizes the graph changes an enrichment produced.
type EnrichResponse struct {
	Nodes   []NodeResponse `json:"nodes,omitempty"`
	Edges   []EdgeResponse `json:"edges,omitempty"`
	Updated []NodeResponse `json:"updated,omitempty"`
	Skipped int            `json:"skipped"`
}

// SaveInvestigationRequest stores the current graph under a name.
type SaveInvestigationRequest struct {
	Name string `json:"name" binding:"required"`
}

// InvestigationInfoResponse describes one stored snapshot.
type InvestigationInfoResponse struct {
	Name    string    `json:"name"`
	SavedAt time.Time `json:"saved_at"`
	Nodes   int       `json:"nodes"`
	Edges   int       `json:"edges"`
}

// AddTimelineEventRequest creates a manual timeline event.
type AddTimelineEventRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Start       string `json:"start" binding:"required"`
	End         string `json:"end"`
	Color       string `json:"color"`
}

// TimelineEventResponse is the wire form of a timeline event.
type TimelineEventResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	Start          string `json:"start"`
	End            string `json:"end,omitempty"`
	Color          string `json:"color,omitempty"`
	SourceEntityID string `json:"source_entity_id,omitempty"`
}
