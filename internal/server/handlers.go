package server

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/ironsheep/parkspot-mcp/internal/imaging"
	"github.com/ironsheep/parkspot-mcp/internal/occupancy"
	"github.com/ironsheep/parkspot-mcp/internal/slots"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "parking_check").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		if s.debug {
			log.Printf("Tool %s failed: %v", params.Name, err)
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	// Tools without required arguments may be called with none at all
	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	switch name {
	// Slot Layout
	case "parking_slots_list":
		return s.handleSlotsList(args)
	case "parking_slot_add":
		return s.handleSlotAdd(args)
	case "parking_slot_remove":
		return s.handleSlotRemove(args)
	case "parking_slots_clear":
		return s.handleSlotsClear(args)

	// Occupancy
	case "parking_check":
		return s.handleCheck(args)
	case "parking_preprocess":
		return s.handlePreprocess(args)
	case "parking_slot_crop":
		return s.handleSlotCrop(args)
	case "parking_image_info":
		return s.handleImageInfo(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// resolvePath returns path, or the configured lot image when path is empty.
func (s *Server) resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if s.imagePath == "" {
		return "", fmt.Errorf("no image path given and no default lot image configured")
	}
	return s.imagePath, nil
}

// === Slot Layout Handlers ===

// LayoutResult describes the current slot layout.
type LayoutResult struct {
	File   string       `json:"file"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Count  int          `json:"count"`
	Slots  []slots.Slot `json:"slots"`
}

// SlotChangeResult reports the outcome of a slot edit.
type SlotChangeResult struct {
	Changed bool         `json:"changed"`
	Slot    *slots.Slot  `json:"slot,omitempty"`
	Removed int          `json:"removed,omitempty"`
	Layout  LayoutResult `json:"layout"`
}

func (s *Server) layoutResult() LayoutResult {
	l := s.store.Layout()
	list := l.Slots
	if list == nil {
		list = []slots.Slot{}
	}
	return LayoutResult{
		File:   s.store.Path(),
		Width:  l.Size.Width,
		Height: l.Size.Height,
		Count:  len(list),
		Slots:  list,
	}
}

func (s *Server) handleSlotsList(args json.RawMessage) (interface{}, error) {
	return s.layoutResult(), nil
}

type slotPointArgs struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

func (a *slotPointArgs) parse(args json.RawMessage) error {
	if err := json.Unmarshal(args, a); err != nil {
		return err
	}
	if a.X == nil || a.Y == nil {
		return fmt.Errorf("both x and y are required")
	}
	return nil
}

func (s *Server) handleSlotAdd(args json.RawMessage) (interface{}, error) {
	var a slotPointArgs
	if err := a.parse(args); err != nil {
		return nil, err
	}
	slot, err := s.store.Add(*a.X, *a.Y)
	if err != nil {
		return nil, err
	}
	return &SlotChangeResult{Changed: true, Slot: &slot, Layout: s.layoutResult()}, nil
}

func (s *Server) handleSlotRemove(args json.RawMessage) (interface{}, error) {
	var a slotPointArgs
	if err := a.parse(args); err != nil {
		return nil, err
	}
	slot, removed, err := s.store.RemoveAt(*a.X, *a.Y)
	if err != nil {
		return nil, err
	}
	result := &SlotChangeResult{Changed: removed, Layout: s.layoutResult()}
	if removed {
		result.Slot = &slot
		result.Removed = 1
	}
	return result, nil
}

func (s *Server) handleSlotsClear(args json.RawMessage) (interface{}, error) {
	n, err := s.store.Clear()
	if err != nil {
		return nil, err
	}
	return &SlotChangeResult{Changed: n > 0, Removed: n, Layout: s.layoutResult()}, nil
}

// === Occupancy Handlers ===

type checkArgs struct {
	Path      string `json:"path"`
	Annotate  bool   `json:"annotate"`
	Threshold int    `json:"threshold"`
}

// CheckResult is the occupancy report for one frame, optionally with the
// annotated frame attached.
type CheckResult struct {
	*occupancy.Report
	Path       string                      `json:"path"`
	Summary    string                      `json:"summary"`
	Annotation *occupancy.AnnotationResult `json:"annotation,omitempty"`
}

func (s *Server) handleCheck(args json.RawMessage) (interface{}, error) {
	var a checkArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Threshold < 0 {
		return nil, fmt.Errorf("threshold must be positive, got %d", a.Threshold)
	}
	path, err := s.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}

	detector := *s.detector
	if a.Threshold > 0 {
		detector.Threshold = a.Threshold
	}

	report, _, err := detector.Check(img, s.store.Layout())
	if err != nil {
		return nil, err
	}

	result := &CheckResult{Report: report, Path: path, Summary: report.Summary()}
	if a.Annotate {
		result.Annotation, err = occupancy.EncodeAnnotation(img, report, s.style)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handlePreprocess(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	path, err := s.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	mask, err := imaging.Preprocess(img, s.detector.Params)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeMask(mask, s.detector.Params)
}

type slotCropArgs struct {
	Path  string  `json:"path"`
	Index *int    `json:"index"`
	Scale float64 `json:"scale"`
}

func (s *Server) handleSlotCrop(args json.RawMessage) (interface{}, error) {
	var a slotCropArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Index == nil {
		return nil, fmt.Errorf("index is required")
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}

	layout := s.store.Layout()
	slot, err := layout.Get(*a.Index)
	if err != nil {
		return nil, fmt.Errorf("slot %d: %w", *a.Index, err)
	}

	path, err := s.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return imaging.Crop(img, layout.Rect(slot), a.Scale)
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	path, err := s.resolvePath(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, path)
}
