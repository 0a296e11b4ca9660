package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blackvectorops/pano"
	"github.com/blackvectorops/pano/pkg/server/dto"
	"github.com/blackvectorops/pano/pkg/transform"
)

// TransformHandler handles transform execution requests
type TransformHandler struct {
	client *pano.Client
}

// NewTransformHandler creates a new transform handler
func NewTransformHandler(client *pano.Client) *TransformHandler {
	return &TransformHandler{client: client}
}

// ListTransforms handles GET /transforms.
// An entity_type query parameter filters to transforms accepting that type.
func (h *TransformHandler) ListTransforms(c *gin.Context) {
	var transforms []transform.Transform
	if entityType := c.Query("entity_type"); entityType != "" {
		transforms = h.client.Transforms().ForInput(entityType)
	} else {
		transforms = h.client.Transforms().All()
	}

	resp := make([]dto.TransformResponse, 0, len(transforms))
	for _, t := range transforms {
		resp = append(resp, dto.TransformResponse{
			Name:        t.Name(),
			Description: t.Description(),
			InputTypes:  t.InputTypes(),
			OutputTypes: t.OutputTypes(),
		})
	}
	c.JSON(http.StatusOK, resp)
}

// RunTransform handles POST /transforms/run
func (h *TransformHandler) RunTransform(c *gin.Context) {
	var req dto.RunTransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if len(req.NodeIDs) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: "node_ids cannot be empty"})
		return
	}

	if _, ok := h.client.Transforms().Get(req.Transform); !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "unknown transform: " + req.Transform})
		return
	}

	results := h.client.RunTransformBatch(c.Request.Context(), req.Transform, req.NodeIDs)

	resp := dto.RunTransformResponse{Transform: req.Transform}
	for _, res := range results {
		out := dto.TransformResultResponse{NodeID: res.NodeID}
		if res.Err != nil {
			out.Error = res.Err.Error()
		}
		if res.Report != nil {
			out.Merged = res.Report.MergedCount()
			for _, outcome := range res.Report.Outcomes {
				out.Nodes = append(out.Nodes, dto.NewNodeResponse(outcome.Node))
			}
			for _, edge := range res.Report.Edges {
				out.Edges = append(out.Edges, dto.NewEdgeResponse(edge))
			}
		}
		resp.Results = append(resp.Results, out)
	}

	c.JSON(http.StatusOK, resp)
}
