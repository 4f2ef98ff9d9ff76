package occupancy

import (
	"image"
	"image/color"
	"testing"

	"github.com/ironsheep/parkspot-mcp/internal/slots"
)

// fillMask sets n pixels of r to 255, row by row.
func fillMask(mask *image.Gray, r image.Rectangle, n int) {
	for y := r.Min.Y; y < r.Max.Y && n > 0; y++ {
		for x := r.Min.X; x < r.Max.X && n > 0; x++ {
			mask.SetGray(x, y, color.Gray{Y: 255})
			n--
		}
	}
}

func TestClassify(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 400, 200))
	layout := slots.NewLayout(slots.DefaultSize)
	layout.Add(0, 0)   // 899 pixels: free
	layout.Add(120, 0) // 900 pixels: occupied
	layout.Add(240, 0) // empty: free
	layout.Add(0, 100) // 3000 pixels: occupied

	fillMask(mask, layout.Rect(layout.Slots[0]), 899)
	fillMask(mask, layout.Rect(layout.Slots[1]), 900)
	fillMask(mask, layout.Rect(layout.Slots[3]), 3000)

	r := Classify(mask, layout, DefaultThreshold)

	if r.Total != 4 || r.Free != 2 || r.Occupied != 2 {
		t.Fatalf("totals: got free=%d occupied=%d total=%d, want 2/2/4", r.Free, r.Occupied, r.Total)
	}

	want := []struct {
		count int
		state State
	}{
		{899, Free},
		{900, Occupied},
		{0, Free},
		{3000, Occupied},
	}
	for i, w := range want {
		got := r.Slots[i]
		if got.Index != i {
			t.Errorf("slot %d: Index %d", i, got.Index)
		}
		if got.PixelCount != w.count || got.State != w.state {
			t.Errorf("slot %d: got %d/%s, want %d/%s", i, got.PixelCount, got.State, w.count, w.state)
		}
		if got.Width != 107 || got.Height != 48 {
			t.Errorf("slot %d: size %dx%d", i, got.Width, got.Height)
		}
	}
}

func TestClassify_SlotOffImage(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 150, 60))
	for i := range mask.Pix {
		mask.Pix[i] = 255
	}

	layout := slots.NewLayout(slots.DefaultSize)
	layout.Add(100, 30)  // 50x30 visible
	layout.Add(500, 500) // entirely outside

	r := Classify(mask, layout, DefaultThreshold)

	if r.Slots[0].PixelCount != 1500 {
		t.Errorf("partially visible slot: got %d, want 1500", r.Slots[0].PixelCount)
	}
	if r.Slots[0].State != Occupied {
		t.Errorf("partially visible slot: got %s, want occupied", r.Slots[0].State)
	}
	if r.Slots[1].PixelCount != 0 || r.Slots[1].State != Free {
		t.Errorf("outside slot: got %d/%s, want 0/free", r.Slots[1].PixelCount, r.Slots[1].State)
	}
}

func TestClassify_EmptyLayout(t *testing.T) {
	r := Classify(image.NewGray(image.Rect(0, 0, 10, 10)), slots.NewLayout(slots.DefaultSize), DefaultThreshold)

	if r.Total != 0 || r.Free != 0 || r.Occupied != 0 {
		t.Errorf("empty layout: got %+v", r)
	}
	if r.Summary() != "Free: 0 / 0" {
		t.Errorf("Summary: got %q", r.Summary())
	}
}

func TestDetector_Check(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 320, 140))
	for i := range img.Pix {
		img.Pix[i] = 210
		if i%4 == 3 {
			img.Pix[i] = 255
		}
	}
	// Dark vertical stripes inside the second slot stand in for a car
	car := image.Rect(150, 40, 257, 88)
	for y := car.Min.Y; y < car.Max.Y; y++ {
		for x := car.Min.X; x < car.Max.X; x++ {
			if (x-car.Min.X)/3%2 == 0 {
				img.Set(x, y, color.RGBA{20, 20, 20, 255})
			}
		}
	}

	layout := slots.NewLayout(slots.DefaultSize)
	layout.Add(20, 40)
	layout.Add(150, 40)

	r, mask, err := NewDetector().Check(img, layout)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if mask.Bounds() != img.Bounds() {
		t.Errorf("mask bounds: got %v", mask.Bounds())
	}
	if r.Slots[0].State != Free {
		t.Errorf("empty slot classified %s (count %d)", r.Slots[0].State, r.Slots[0].PixelCount)
	}
	if r.Slots[1].State != Occupied {
		t.Errorf("striped slot classified %s (count %d)", r.Slots[1].State, r.Slots[1].PixelCount)
	}
	if r.Free != 1 || r.Occupied != 1 {
		t.Errorf("totals: got free=%d occupied=%d", r.Free, r.Occupied)
	}
}

func TestDetector_Check_InvalidThreshold(t *testing.T) {
	d := NewDetector()
	d.Threshold = 0
	if _, _, err := d.Check(image.NewGray(image.Rect(0, 0, 5, 5)), slots.NewLayout(slots.DefaultSize)); err == nil {
		t.Error("Check should reject a non-positive threshold")
	}
}
