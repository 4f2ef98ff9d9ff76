package slots

import (
	"image"
	"testing"
)

func TestLayout_Add(t *testing.T) {
	l := NewLayout(DefaultSize)
	l.Add(10, 20)
	l.Add(10, 20)
	l.Add(200, 40)

	if l.Len() != 3 {
		t.Fatalf("Len: got %d, want 3 (duplicates are kept)", l.Len())
	}
	if got := l.Slots[2]; got != (Slot{X: 200, Y: 40}) {
		t.Errorf("last slot: got %+v", got)
	}
}

func TestLayout_RemoveAt(t *testing.T) {
	tests := []struct {
		name        string
		x, y        int
		wantRemoved bool
	}{
		{"inside", 50, 40, true},
		{"just inside top-left", 11, 21, true},
		{"just inside bottom-right", 116, 67, true},
		{"on left border", 10, 40, false},
		{"on top border", 50, 20, false},
		{"on right border", 117, 40, false},
		{"on bottom border", 50, 68, false},
		{"outside", 300, 300, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLayout(DefaultSize)
			l.Add(10, 20)

			_, removed := l.RemoveAt(tt.x, tt.y)
			if removed != tt.wantRemoved {
				t.Errorf("RemoveAt(%d,%d): got %v, want %v", tt.x, tt.y, removed, tt.wantRemoved)
			}
			wantLen := 1
			if tt.wantRemoved {
				wantLen = 0
			}
			if l.Len() != wantLen {
				t.Errorf("Len after remove: got %d, want %d", l.Len(), wantLen)
			}
		})
	}
}

func TestLayout_RemoveAt_FirstMatchOnly(t *testing.T) {
	l := NewLayout(Size{Width: 100, Height: 50})
	l.Add(0, 0)
	l.Add(20, 10)
	l.Add(0, 0)

	slot, removed := l.RemoveAt(30, 20)
	if !removed {
		t.Fatal("expected a slot to be removed")
	}
	if slot != (Slot{X: 0, Y: 0}) {
		t.Errorf("removed slot: got %+v, want the earliest overlap {0 0}", slot)
	}
	if l.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", l.Len())
	}
	if l.Slots[0] != (Slot{X: 20, Y: 10}) || l.Slots[1] != (Slot{X: 0, Y: 0}) {
		t.Errorf("remaining order: got %+v", l.Slots)
	}
}

func TestLayout_IndexAt(t *testing.T) {
	l := NewLayout(Size{Width: 10, Height: 10})
	l.Add(0, 0)
	l.Add(20, 0)

	if got := l.IndexAt(25, 5); got != 1 {
		t.Errorf("IndexAt(25,5): got %d, want 1", got)
	}
	if got := l.IndexAt(15, 5); got != -1 {
		t.Errorf("IndexAt(15,5): got %d, want -1", got)
	}
}

func TestLayout_Rect(t *testing.T) {
	l := NewLayout(DefaultSize)
	got := l.Rect(Slot{X: 5, Y: 7})
	want := image.Rect(5, 7, 112, 55)
	if got != want {
		t.Errorf("Rect: got %v, want %v", got, want)
	}
}

func TestLayout_Get(t *testing.T) {
	l := NewLayout(DefaultSize)
	l.Add(1, 2)

	if s, err := l.Get(0); err != nil || s != (Slot{X: 1, Y: 2}) {
		t.Errorf("Get(0): got %+v, %v", s, err)
	}
	for _, i := range []int{-1, 1} {
		if _, err := l.Get(i); err != ErrIndexOutOfRange {
			t.Errorf("Get(%d): got %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestLayout_Clone(t *testing.T) {
	l := NewLayout(DefaultSize)
	l.Add(1, 1)

	c := l.Clone()
	c.Add(2, 2)
	c.Slots[0].X = 99

	if l.Len() != 1 || l.Slots[0].X != 1 {
		t.Errorf("Clone shares state with original: %+v", l.Slots)
	}
}
