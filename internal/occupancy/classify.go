package occupancy

import (
	"fmt"
	"image"

	"github.com/ironsheep/parkspot-mcp/internal/imaging"
	"github.com/ironsheep/parkspot-mcp/internal/slots"
)

// DefaultThreshold is the foreground pixel count at which a 107x48 slot is
// considered occupied.
const DefaultThreshold = 900

// State is the classification of a single slot.
type State string

const (
	Free     State = "free"
	Occupied State = "occupied"
)

// SlotResult is the classification of one slot of a layout.
type SlotResult struct {
	// Index is the slot's position in the layout.
	Index int `json:"index"`

	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// PixelCount is the number of foreground mask pixels inside the slot,
	// counting only the part of the slot that lies within the image.
	PixelCount int `json:"pixel_count"`

	State State `json:"state"`
}

// Report is the classification of a whole layout against one frame.
type Report struct {
	Slots     []SlotResult `json:"slots"`
	Free      int          `json:"free"`
	Occupied  int          `json:"occupied"`
	Total     int          `json:"total"`
	Threshold int          `json:"threshold"`

	// FrameHash is the perceptual hash of the frame, when one was computed.
	FrameHash string `json:"frame_hash,omitempty"`
}

// Summary renders the report the way the lot overlay labels it.
func (r *Report) Summary() string {
	return fmt.Sprintf("Free: %d / %d", r.Free, r.Total)
}

// Classify counts foreground pixels of mask inside every slot of layout.
// A slot is Free when its count is strictly below threshold and Occupied
// otherwise. Occupied always equals Total minus Free.
func Classify(mask *image.Gray, layout *slots.Layout, threshold int) *Report {
	r := &Report{
		Slots:     make([]SlotResult, 0, layout.Len()),
		Total:     layout.Len(),
		Threshold: threshold,
	}

	for i, s := range layout.Slots {
		count := imaging.CountNonZero(mask, layout.Rect(s))
		state := Occupied
		if count < threshold {
			state = Free
			r.Free++
		}
		r.Slots = append(r.Slots, SlotResult{
			Index:      i,
			X:          s.X,
			Y:          s.Y,
			Width:      layout.Size.Width,
			Height:     layout.Size.Height,
			PixelCount: count,
			State:      state,
		})
	}
	r.Occupied = r.Total - r.Free
	return r
}

// Detector runs the preprocessing pipeline and classifier together.
type Detector struct {
	Params    imaging.Params
	Threshold int
}

// NewDetector returns a Detector with the default pipeline and threshold.
func NewDetector() *Detector {
	return &Detector{
		Params:    imaging.DefaultParams(),
		Threshold: DefaultThreshold,
	}
}

// Check preprocesses img and classifies layout against the resulting mask.
// The mask is returned so callers can render or inspect it.
func (d *Detector) Check(img image.Image, layout *slots.Layout) (*Report, *image.Gray, error) {
	if d.Threshold <= 0 {
		return nil, nil, fmt.Errorf("threshold must be positive, got %d", d.Threshold)
	}
	mask, err := imaging.Preprocess(img, d.Params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to preprocess image: %w", err)
	}
	return Classify(mask, layout, d.Threshold), mask, nil
}
