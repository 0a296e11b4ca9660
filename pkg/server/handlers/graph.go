package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackvectorops/pano"
	"github.com/blackvectorops/pano/pkg/graph"
	"github.com/blackvectorops/pano/pkg/server/dto"
)

// GraphHandler handles node and edge requests
type GraphHandler struct {
	client *pano.Client
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(client *pano.Client) *GraphHandler {
	return &GraphHandler{client: client}
}

// GetGraph handles GET /graph
func (h *GraphHandler) GetGraph(c *gin.Context) {
	g := h.client.Graph()

	resp := dto.GraphResponse{
		Nodes: make([]dto.NodeResponse, 0, g.NodeCount()),
		Edges: make([]dto.EdgeResponse, 0, g.EdgeCount()),
	}
	for _, node := range g.Nodes() {
		resp.Nodes = append(resp.Nodes, dto.NewNodeResponse(node))
	}
	for _, edge := range g.Edges() {
		resp.Edges = append(resp.Edges, dto.NewEdgeResponse(edge))
	}

	c.JSON(http.StatusOK, resp)
}

// ClearGraph handles DELETE /graph
func (h *GraphHandler) ClearGraph(c *gin.Context) {
	h.client.ClearInvestigation()
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// ListEntityTypes handles GET /entity-types
func (h *GraphHandler) ListEntityTypes(c *gin.Context) {
	kinds := h.client.Entities().Kinds()
	resp := make([]dto.EntityTypeResponse, 0, len(kinds))
	for _, k := range kinds {
		resp = append(resp, dto.NewEntityTypeResponse(k))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateNode handles POST /nodes
func (h *GraphHandler) CreateNode(c *gin.Context) {
	var req dto.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	node, err := h.client.CreateNode(c.Request.Context(), req.EntityType, req.Properties, req.Pos)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "creation_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.NewNodeResponse(node))
}

// GetNode handles GET /nodes/:id
func (h *GraphHandler) GetNode(c *gin.Context) {
	node, ok := h.client.Graph().Node(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "node not found"})
		return
	}
	c.JSON(http.StatusOK, dto.NewNodeResponse(node))
}

// UpdateNode handles PATCH /nodes/:id
func (h *GraphHandler) UpdateNode(c *gin.Context) {
	var req dto.UpdateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	node, err := h.client.UpdateNode(c.Request.Context(), c.Param("id"), req.Properties)
	if err != nil {
		if errors.Is(err, graph.ErrNodeNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "update_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.NewNodeResponse(node))
}

// RemoveNode handles DELETE /nodes/:id
func (h *GraphHandler) RemoveNode(c *gin.Context) {
	if err := h.client.RemoveNode(c.Param("id")); err != nil {
		if errors.Is(err, graph.ErrNodeNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "removal_failed", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.Result{Success: true})
}

// CreateEdge handles POST /edges
func (h *GraphHandler) CreateEdge(c *gin.Context) {
	var req dto.CreateEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	edge, err := h.client.ConnectNodes(req.Source, req.Target, req.Relationship)
	if err != nil {
		if errors.Is(err, graph.ErrEdgeEndpointMissing) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "creation_failed", Message: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, dto.NewEdgeResponse(edge))
}
