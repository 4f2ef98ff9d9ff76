package slots

import (
	"errors"
	"image"
)

// ErrIndexOutOfRange is returned when a slot index does not name a slot.
var ErrIndexOutOfRange = errors.New("slot index out of range")

// DefaultSize is the box size of a single parking space in the reference lot image.
var DefaultSize = Size{Width: 107, Height: 48}

// Slot is the top-left corner of a parking space in image pixel coordinates.
type Slot struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is the width and height shared by every slot of a layout.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Layout is an ordered list of slots of a common size.
//
// Order is insertion order. It matters for RemoveAt, which removes the
// earliest slot under the point when rectangles overlap.
//
// Layout is not safe for concurrent use; Store wraps it with locking.
type Layout struct {
	Size  Size
	Slots []Slot
}

// NewLayout returns an empty layout with the given slot size.
func NewLayout(size Size) *Layout {
	return &Layout{Size: size}
}

// Add appends a slot whose top-left corner is (x, y). Duplicates are kept.
func (l *Layout) Add(x, y int) Slot {
	s := Slot{X: x, Y: y}
	l.Slots = append(l.Slots, s)
	return s
}

// RemoveAt removes the first slot whose rectangle strictly contains (x, y).
// A point on a slot's border does not hit it. It returns the removed slot
// and whether anything was removed.
func (l *Layout) RemoveAt(x, y int) (Slot, bool) {
	for i, s := range l.Slots {
		if l.contains(s, x, y) {
			l.Slots = append(l.Slots[:i], l.Slots[i+1:]...)
			return s, true
		}
	}
	return Slot{}, false
}

// IndexAt returns the index of the first slot strictly containing (x, y), or -1.
func (l *Layout) IndexAt(x, y int) int {
	for i, s := range l.Slots {
		if l.contains(s, x, y) {
			return i
		}
	}
	return -1
}

func (l *Layout) contains(s Slot, x, y int) bool {
	return s.X < x && x < s.X+l.Size.Width && s.Y < y && y < s.Y+l.Size.Height
}

// Rect returns the image rectangle covered by s: [X, X+Width) x [Y, Y+Height).
func (l *Layout) Rect(s Slot) image.Rectangle {
	return image.Rect(s.X, s.Y, s.X+l.Size.Width, s.Y+l.Size.Height)
}

// Get returns the slot at index i.
func (l *Layout) Get(i int) (Slot, error) {
	if i < 0 || i >= len(l.Slots) {
		return Slot{}, ErrIndexOutOfRange
	}
	return l.Slots[i], nil
}

// Len returns the number of slots.
func (l *Layout) Len() int {
	return len(l.Slots)
}

// Clone returns a deep copy of l.
func (l *Layout) Clone() *Layout {
	c := &Layout{Size: l.Size}
	if len(l.Slots) > 0 {
		c.Slots = make([]Slot, len(l.Slots))
		copy(c.Slots, l.Slots)
	}
	return c
}
