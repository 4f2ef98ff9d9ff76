// Package slots manages the layout of parking spaces drawn over a lot image.
//
// A slot is identified only by its top-left corner; every slot in a layout
// shares one box size (107x48 pixels by default). Slots are added at a point
// and removed by naming any point strictly inside them, mirroring the
// click-to-mark workflow of an interactive editor.
//
// # Persistence
//
// A Store keeps the layout in a small JSON file:
//
//	{
//	  "version": 1,
//	  "width": 107,
//	  "height": 48,
//	  "slots": [{"x": 50, "y": 190}, {"x": 160, "y": 190}]
//	}
//
// Every mutation rewrites the file atomically. A missing file is an empty
// layout; a corrupt file is reported as an error rather than discarded.
package slots
