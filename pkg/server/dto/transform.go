package dto

// RunTransformRequest runs a transform against one or more nodes.
type RunTransformRequest struct {
	Transform string   `json:"transform" binding:"required"`
	NodeIDs   []string `json:"node_ids" binding:"required"`
}

// TransformResponse describes one registered transform.
type TransformResponse struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputTypes  []string `json:"input_types"`
	OutputTypes []string `json:"output_types"`
}

// TransformResultResponse is the outcome for one node a transform ran on.
type TransformResultResponse struct {
	NodeID string         `json:"node_id"`
	Nodes  []NodeResponse `json:"nodes,omitempty"`
	Edges  []EdgeResponse `json:"edges,omitempty"`
	Merged int            `json:"merged"`
	Error  string         `json:"error,omitempty"`
}

// RunTransformResponse aggregates the per-node outcomes of one run.
type RunTransformResponse struct {
	Transform string                    `json:"transform"`
	Results   []TransformResultResponse `json:"results"`
}
