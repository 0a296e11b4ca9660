package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blackvectorops/pano"
	"github.com/blackvectorops/pano/pkg/enrich"
	"github.com/blackvectorops/pano/pkg/server/dto"
	"github.com/blackvectorops/pano/pkg/snapshot"
)

// InvestigationHandler handles enrichment, snapshot, and timeline requests
type InvestigationHandler struct {
	client *pano.Client
}

// NewInvestigationHandler creates a new investigation handler
func NewInvestigationHandler(client *pano.Client) *InvestigationHandler {
	return &InvestigationHandler{client: client}
}

// Enrich handles POST /enrich
func (h *InvestigationHandler) Enrich(c *gin.Context) {
	var req dto.EnrichRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	result, err := h.client.Enrich(c.Request.Context(), req.Payload)
	if err != nil {
		if errors.Is(err, enrich.ErrNoPayload) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "no_payload", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "enrich_failed", Message: err.Error()})
		return
	}

	resp := dto.EnrichResponse{Skipped: result.Skipped}
	for _, node := range result.Nodes {
		if node == nil {
			continue
		}
		resp.Nodes = append(resp.Nodes, dto.NewNodeResponse(node))
	}
	for _, edge := range result.Edges {
		resp.Edges = append(resp.Edges, dto.NewEdgeResponse(edge))
	}
	for _, node := range result.Updated {
		resp.Updated = append(resp.Updated, dto.NewNodeResponse(node))
	}

	c.JSON(http.StatusOK, resp)
}

// SaveInvestigation handles POST /investigations
func (h *InvestigationHandler) SaveInvestigation(c *gin.Context) {
	var req dto.SaveInvestigationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.client.SaveInvestigation(c.Request.Context(), req.Name); err != nil {
		if errors.Is(err, snapshot.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_name", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "save_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.Result{Success: true})
}

// ListInvestigations handles GET /investigations
func (h *InvestigationHandler) ListInvestigations(c *gin.Context) {
	infos, err := h.client.ListInvestigations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "list_failed", Message: err.Error()})
		return
	}

	resp := make([]dto.InvestigationInfoResponse, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, dto.InvestigationInfoResponse{
			Name:    info.Name,
			SavedAt: info.SavedAt,
			Nodes:   info.Nodes,
			Edges:   info.Edges,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// LoadInvestigation handles POST /investigations/:name/load
func (h *InvestigationHandler) LoadInvestigation(c *gin.Context) {
	name := c.Param("name")
	if err := h.client.LoadInvestigation(c.Request.Context(), name); err != nil {
		switch {
		case errors.Is(err, snapshot.ErrNotFound):
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
		case errors.Is(err, snapshot.ErrInvalidName):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_name", Message: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "load_failed", Message: err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// DeleteInvestigation handles DELETE /investigations/:name
func (h *InvestigationHandler) DeleteInvestigation(c *gin.Context) {
	if err := h.client.DeleteInvestigation(c.Request.Context(), c.Param("name")); err != nil {
		if errors.Is(err, snapshot.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_name", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "delete_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// GetTimeline handles GET /timeline
func (h *InvestigationHandler) GetTimeline(c *gin.Context) {
	events := h.client.Timeline().Events()
	resp := make([]dto.TimelineEventResponse, 0, len(events))
	for _, ev := range events {
		out := dto.TimelineEventResponse{
			ID:             ev.ID,
			Name:           ev.Name,
			Description:    ev.Description,
			Start:          ev.Start.Format(time.RFC3339),
			Color:          ev.Color,
			SourceEntityID: ev.SourceEntityID,
		}
		if !ev.End.IsZero() {
			out.End = ev.End.Format(time.RFC3339)
		}
		resp = append(resp, out)
	}
	c.JSON(http.StatusOK, resp)
}

// AddTimelineEvent handles POST /timeline
func (h *InvestigationHandler) AddTimelineEvent(c *gin.Context) {
	var req dto.AddTimelineEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	start, err := parseEventTime(req.Start)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "invalid start time: " + req.Start})
		return
	}
	var end time.Time
	if req.End != "" {
		end, err = parseEventTime(req.End)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "invalid end time: " + req.End})
			return
		}
	}

	ev := h.client.Timeline().AddManual(req.Name, req.Description, start, end, req.Color)
	c.JSON(http.StatusCreated, dto.TimelineEventResponse{
		ID:          ev.ID,
		Name:        ev.Name,
		Description: ev.Description,
		Start:       ev.Start.Format(time.RFC3339),
		Color:       ev.Color,
	})
}

// RemoveTimelineEvent handles DELETE /timeline/:id
func (h *InvestigationHandler) RemoveTimelineEvent(c *gin.Context) {
	h.client.Timeline().Remove(c.Param("id"))
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

func parseEventTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unrecognized time format")
}
