// Package server implements the MCP (Model Context Protocol) server for
// parking-lot occupancy.
//
// Marking slots, checking which of them hold a car and looking at the
// processed frame are all exposed as MCP tools, so an MCP client can drive
// the same workflow an operator would perform by clicking on the lot image.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Slot Layout:
//   - parking_slots_list: Show marked slots and the slot size
//   - parking_slot_add: Mark a slot with its top-left corner at a point
//   - parking_slot_remove: Remove the slot containing a point
//   - parking_slots_clear: Remove all slots
//
// Occupancy:
//   - parking_check: Classify every slot as free or occupied
//   - parking_preprocess: Render the binary mask used for counting
//   - parking_slot_crop: Extract one slot from the lot image
//   - parking_image_info: Lot image dimensions and metadata
//
// Image tools take an optional "path"; without it they use the configured
// lot image. Every slot edit is saved to the slots file before the response
// is sent.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	store, err := slots.Open("CarParkPos.json", slots.DefaultSize)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(server.Options{Store: store, ImagePath: "carParkImg.png"})
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
