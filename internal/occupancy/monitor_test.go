package occupancy

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ironsheep/parkspot-mcp/internal/imaging"
	"github.com/ironsheep/parkspot-mcp/internal/slots"
)

// writeLotImage writes a light lot image to path, with optional dark stripes
// in car, and bumps its modification time by offset so caches notice.
func writeLotImage(t *testing.T, path string, car *image.Rectangle, offset time.Duration) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 320, 140))
	for i := range img.Pix {
		img.Pix[i] = 210
		if i%4 == 3 {
			img.Pix[i] = 255
		}
	}
	if car != nil {
		for y := car.Min.Y; y < car.Max.Y; y++ {
			for x := car.Min.X; x < car.Max.X; x++ {
				if (x-car.Min.X)/3%2 == 0 {
					img.Set(x, y, color.RGBA{20, 20, 20, 255})
				}
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create image: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		t.Fatalf("failed to encode image: %v", err)
	}
	f.Close()

	mt := time.Now().Add(offset)
	if err := os.Chtimes(path, mt, mt); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
}

func newTestMonitor(t *testing.T) (*Monitor, string) {
	t.Helper()
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "lot.png")
	writeLotImage(t, imgPath, nil, 0)

	store, err := slots.Open(filepath.Join(dir, "slots.json"), slots.DefaultSize)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Add(150, 40); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	m := NewMonitor(imaging.NewImageCache(), store, NewDetector(), imgPath, 10*time.Millisecond)
	return m, imgPath
}

func TestMonitor_Tick(t *testing.T) {
	m, imgPath := newTestMonitor(t)

	r, fresh, err := m.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if !fresh {
		t.Error("first tick should compute a report")
	}
	if r.Free != 1 {
		t.Errorf("empty lot: got free=%d, want 1", r.Free)
	}

	// Same file, same layout: reuse the report
	r2, fresh, err := m.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if fresh || r2 != r {
		t.Error("unchanged frame should return the previous report")
	}

	// A car arrives
	car := image.Rect(150, 40, 257, 88)
	writeLotImage(t, imgPath, &car, 2*time.Second)
	r3, fresh, err := m.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if !fresh {
		t.Error("changed frame should be reclassified")
	}
	if r3.Occupied != 1 {
		t.Errorf("after arrival: got occupied=%d, want 1", r3.Occupied)
	}
}

func TestMonitor_Tick_LayoutChange(t *testing.T) {
	m, _ := newTestMonitor(t)

	if _, _, err := m.Tick(); err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if _, err := m.Store.Add(20, 40); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	r, fresh, err := m.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if !fresh {
		t.Error("layout change should trigger reclassification")
	}
	if r.Total != 2 {
		t.Errorf("Total: got %d, want 2", r.Total)
	}
}

func TestMonitor_Tick_SimilarFrameSkipped(t *testing.T) {
	m, imgPath := newTestMonitor(t)
	m.MaxHashDistance = 0

	r, _, err := m.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if r.FrameHash == "" {
		t.Error("FrameHash should be set when hashing is enabled")
	}

	// Rewrite identical pixels with a new timestamp
	writeLotImage(t, imgPath, nil, 2*time.Second)
	r2, fresh, err := m.Tick()
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if fresh || r2 != r {
		t.Error("identical frame should be skipped by its perceptual hash")
	}
}

func TestMonitor_Tick_MissingImage(t *testing.T) {
	m, imgPath := newTestMonitor(t)
	os.Remove(imgPath)

	if _, _, err := m.Tick(); err == nil {
		t.Error("Tick should fail when the image is missing")
	}
}

func TestMonitor_Run(t *testing.T) {
	m, _ := newTestMonitor(t)

	reports := 0
	m.OnReport = func(*Report) { reports++ }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	last, err := m.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if last == nil || last.Total != 1 {
		t.Fatalf("Run returned %+v", last)
	}
	if reports != 1 {
		t.Errorf("OnReport calls: got %d, want 1 for a static image", reports)
	}
}

func TestMonitor_Run_FirstFrameFails(t *testing.T) {
	m, imgPath := newTestMonitor(t)
	os.Remove(imgPath)

	if _, err := m.Run(context.Background()); err == nil {
		t.Error("Run should fail when the first frame cannot be read")
	}
}

func TestMonitor_Run_InvalidInterval(t *testing.T) {
	m, _ := newTestMonitor(t)
	m.Interval = 0

	if _, err := m.Run(context.Background()); err == nil {
		t.Error("Run should reject a zero interval")
	}
}
