package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the optional image path accepted by every image tool.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Path to the parking-lot image. Defaults to the configured lot image.",
}

// pointProperties are the x/y coordinates used by the slot editing tools.
func pointProperties(xDesc, yDesc string) map[string]interface{} {
	return map[string]interface{}{
		"x": map[string]interface{}{
			"type":        "integer",
			"description": xDesc,
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": yDesc,
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Slot Layout
		{
			Name:        "parking_slots_list",
			Description: "List the parking slots currently marked on the lot, in the order they were added, with the shared slot size.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "parking_slot_add",
			Description: "Mark a new parking slot whose top-left corner is at (x, y). The slot box uses the configured slot size. The layout is saved immediately.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pointProperties("Left edge X coordinate of the slot (0-based)", "Top edge Y coordinate of the slot (0-based)"),
				"required":   []string{"x", "y"},
			},
		},
		{
			Name:        "parking_slot_remove",
			Description: "Remove the first slot whose box strictly contains the point (x, y). Points on a slot border do not match. The layout is saved immediately.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": pointProperties("X coordinate of a point inside the slot", "Y coordinate of a point inside the slot"),
				"required":   []string{"x", "y"},
			},
		},
		{
			Name:        "parking_slots_clear",
			Description: "Remove every marked slot. The layout is saved immediately.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Occupancy
		{
			Name:        "parking_check",
			Description: "Reload the lot image, run the thresholding pipeline and report which slots are free or occupied, with per-slot foreground pixel counts. Optionally returns the annotated frame (green = free, red = occupied) as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"annotate": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the annotated frame in the result. Default false",
						"default":     false,
					},
					"threshold": map[string]interface{}{
						"type":        "integer",
						"description": "Foreground pixel count at which a slot is occupied. Defaults to the configured threshold (900)",
					},
				},
			},
		},
		{
			Name:        "parking_preprocess",
			Description: "Return the binary foreground mask the occupancy check counts pixels on, as base64 PNG. Useful for tuning the threshold.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
			},
		},
		{
			Name:        "parking_slot_crop",
			Description: "Crop one slot's box out of the lot image and return it as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"index": map[string]interface{}{
						"type":        "integer",
						"description": "Slot index as returned by parking_slots_list",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
						"default":     1.0,
					},
				},
				"required": []string{"index"},
			},
		},
		{
			Name:        "parking_image_info",
			Description: "Get the dimensions, format and modification time of the lot image. Slot coordinates are pixel coordinates of this image.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
