package server

import (
	"encoding/json"
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	if len(tools) == 0 {
		t.Fatal("GetToolDefinitions returned empty slice")
	}

	expectedTools := []string{
		"parking_slots_list",
		"parking_slot_add",
		"parking_slot_remove",
		"parking_slots_clear",
		"parking_check",
		"parking_preprocess",
		"parking_slot_crop",
		"parking_image_info",
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want object", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required field must be a declared property
			if required, ok := tool.InputSchema["required"].([]string); ok {
				for _, r := range required {
					if _, ok := props[r]; !ok {
						t.Errorf("required field %s is not a property", r)
					}
				}
			}
		})
	}
}

func TestToolDefinitions_SlotEditingRequiresPoint(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		if tool.Name != "parking_slot_add" && tool.Name != "parking_slot_remove" {
			continue
		}
		required, _ := tool.InputSchema["required"].([]string)
		if len(required) != 2 || required[0] != "x" || required[1] != "y" {
			t.Errorf("%s required: got %v, want [x y]", tool.Name, required)
		}
	}
}

func TestToolDefinitions_PathIsOptional(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		props := tool.InputSchema["properties"].(map[string]interface{})
		if _, ok := props["path"]; !ok {
			continue
		}
		required, _ := tool.InputSchema["required"].([]string)
		for _, r := range required {
			if r == "path" {
				t.Errorf("%s: path should fall back to the configured image", tool.Name)
			}
		}
	}
}

func TestToolDefinitions_Marshal(t *testing.T) {
	data, err := json.Marshal(GetToolDefinitions())
	if err != nil {
		t.Fatalf("Failed to marshal tools: %v", err)
	}

	var decoded []map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal tools: %v", err)
	}
	for _, tool := range decoded {
		if _, ok := tool["inputSchema"]; !ok {
			t.Errorf("tool %v missing inputSchema key", tool["name"])
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t, "")
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: "list-1"})

	if resp.ID != "list-1" {
		t.Errorf("ID: got %v, want list-1", resp.ID)
	}
	result, ok := resp.Result.(map[string]interface{})
	if !ok {
		t.Fatal("Result should be a map")
	}
	if tools, ok := result["tools"].([]Tool); !ok || len(tools) != len(GetToolDefinitions()) {
		t.Errorf("tools: got %v", result["tools"])
	}
}
