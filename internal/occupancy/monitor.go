package occupancy

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/ironsheep/parkspot-mcp/internal/imaging"
	"github.com/ironsheep/parkspot-mcp/internal/slots"
)

// Monitor repeatedly reloads the lot image and reclassifies the layout.
//
// A frame is reclassified when the image changed or the layout was edited.
// When MaxHashDistance is zero or more, a changed image whose perceptual hash
// is within that distance of the last classified frame counts as unchanged.
type Monitor struct {
	Cache     *imaging.ImageCache
	Store     *slots.Store
	Detector  *Detector
	ImagePath string
	Interval  time.Duration

	// MaxHashDistance is the Hamming distance under which two frames are
	// treated as the same picture. Negative disables hashing shortcuts.
	MaxHashDistance int

	// OnReport, if set, is called with every freshly computed report. It runs
	// with the monitor locked and must not call Last.
	OnReport func(*Report)

	Debug bool

	mu       sync.Mutex
	last     *Report
	lastImg  image.Image
	lastHash *goimagehash.ImageHash
	lastRev  uint64
}

// NewMonitor returns a Monitor polling path once per interval.
func NewMonitor(cache *imaging.ImageCache, store *slots.Store, detector *Detector, path string, interval time.Duration) *Monitor {
	return &Monitor{
		Cache:           cache,
		Store:           store,
		Detector:        detector,
		ImagePath:       path,
		Interval:        interval,
		MaxHashDistance: -1,
	}
}

// Run ticks until ctx is cancelled and returns the last report.
//
// The first frame must succeed; its error is returned immediately. Later
// failures, such as the image being replaced mid-write, are logged and
// retried on the next tick.
func (m *Monitor) Run(ctx context.Context) (*Report, error) {
	if m.Interval <= 0 {
		return nil, fmt.Errorf("monitor interval must be positive, got %s", m.Interval)
	}

	if _, _, err := m.Tick(); err != nil {
		return nil, err
	}

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return m.Last(), nil
		case <-ticker.C:
			if _, _, err := m.Tick(); err != nil {
				log.Printf("Frame error: %v", err)
			}
		}
	}
}

// Tick processes one frame. It reports whether a new classification was
// computed; when false the previous report is returned.
func (m *Monitor) Tick() (*Report, bool, error) {
	img, err := m.Cache.Load(m.ImagePath)
	if err != nil {
		return nil, false, err
	}
	rev := m.Store.Revision()

	m.mu.Lock()
	defer m.mu.Unlock()

	layoutChanged := m.last == nil || rev != m.lastRev
	if !layoutChanged && img == m.lastImg {
		return m.last, false, nil
	}

	var hash *goimagehash.ImageHash
	if m.MaxHashDistance >= 0 {
		hash, err = goimagehash.PerceptionHash(img)
		if err != nil {
			return nil, false, fmt.Errorf("failed to hash frame: %w", err)
		}
		if !layoutChanged && m.lastHash != nil {
			dist, err := m.lastHash.Distance(hash)
			if err == nil && dist <= m.MaxHashDistance {
				if m.Debug {
					log.Printf("Skipping similar frame (distance %d)", dist)
				}
				m.lastImg = img
				return m.last, false, nil
			}
		}
	}

	report, _, err := m.Detector.Check(img, m.Store.Layout())
	if err != nil {
		return nil, false, err
	}
	if hash != nil {
		report.FrameHash = hash.ToString()
	}

	if m.last == nil || m.last.Free != report.Free || m.last.Total != report.Total {
		log.Printf("%s (occupied %d)", report.Summary(), report.Occupied)
	}

	m.last = report
	m.lastImg = img
	m.lastHash = hash
	m.lastRev = rev

	if m.OnReport != nil {
		m.OnReport(report)
	}
	return report, true, nil
}

// Last returns the most recent report, or nil before the first frame.
func (m *Monitor) Last() *Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
