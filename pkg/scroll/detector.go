package scroll

import (
	"context"
	"errors"
	"fmt"

	"ttscraper/pkg/logger"
)

// ErrIterationLimit is returned by Run when the cap was reached before the page stabilized
var ErrIterationLimit = errors.New("scroll iteration limit reached before page stabilized")

// Page is the part of a browser driver the detector needs
type Page interface {
	MouseWheel(ctx context.Context, deltaX, deltaY float64) error
	WaitForLoadState(ctx context.Context) error
	ScrollY(ctx context.Context) (float64, error)
}

// ScrollState is a fixed-capacity window over the most recent scroll offsets.
// It is stable once the window is full and every entry is identical.
type ScrollState struct {
	window []float64
	next   int
	count  int
	run    int
}

// NewScrollState creates an empty window of the given size
func NewScrollState(size int) *ScrollState {
	if size < 1 {
		size = 1
	}
	return &ScrollState{window: make([]float64, size)}
}

// Record appends an offset, evicting the oldest one when the window is full
func (s *ScrollState) Record(y float64) {
	if s.count > 0 && s.last() == y {
		s.run++
	} else {
		s.run = 1
	}

	s.window[s.next] = y
	s.next = (s.next + 1) % len(s.window)
	if s.count < len(s.window) {
		s.count++
	}
}

func (s *ScrollState) last() float64 {
	return s.window[(s.next-1+len(s.window))%len(s.window)]
}

// Len returns the number of offsets currently held
func (s *ScrollState) Len() int {
	return s.count
}

// Size returns the window capacity
func (s *ScrollState) Size() int {
	return len(s.window)
}

// Stable reports whether the window is full of one identical offset
func (s *ScrollState) Stable() bool {
	return s.count == len(s.window) && s.run >= len(s.window)
}

// Values returns the window contents, oldest first
func (s *ScrollState) Values() []float64 {
	out := make([]float64, 0, s.count)
	start := (s.next - s.count + len(s.window)) % len(s.window)
	for i := 0; i < s.count; i++ {
		out = append(out, s.window[(start+i)%len(s.window)])
	}
	return out
}

// Detector scrolls a lazily loading page until its offset stops changing
type Detector struct {
	page   Page
	state  *ScrollState
	deltaY float64
	logger logger.Logger
}

// NewDetector creates a detector with a fresh window; detectors are single use
func NewDetector(page Page, window int, deltaY float64, log logger.Logger) *Detector {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Detector{
		page:   page,
		state:  NewScrollState(window),
		deltaY: deltaY,
		logger: log.WithField("component", "scroll"),
	}
}

// Advance scrolls once, waits for the page to settle and records the new offset
func (d *Detector) Advance(ctx context.Context) error {
	if err := d.page.MouseWheel(ctx, 0, d.deltaY); err != nil {
		return fmt.Errorf("mouse wheel: %w", err)
	}
	if err := d.page.WaitForLoadState(ctx); err != nil {
		return fmt.Errorf("wait for load state: %w", err)
	}
	y, err := d.page.ScrollY(ctx)
	if err != nil {
		return fmt.Errorf("read scroll offset: %w", err)
	}
	d.state.Record(y)
	return nil
}

// IsStable reports whether the last window of offsets were all identical
func (d *Detector) IsStable() bool {
	return d.state.Stable()
}

// Run advances until the page is stable. maxIterations <= 0 means no cap;
// a page that never settles then keeps Run busy until ctx is cancelled.
func (d *Detector) Run(ctx context.Context, maxIterations int) (int, error) {
	iterations := 0
	for !d.IsStable() {
		if maxIterations > 0 && iterations >= maxIterations {
			return iterations, ErrIterationLimit
		}
		if err := ctx.Err(); err != nil {
			return iterations, err
		}
		if err := d.Advance(ctx); err != nil {
			return iterations, err
		}
		iterations++

		if iterations%500 == 0 {
			d.logger.DebugWithFields("Still scrolling", map[string]interface{}{
				"iterations": iterations,
				"offset":     d.state.last(),
			})
		}
	}

	d.logger.DebugWithFields("Page stabilized", map[string]interface{}{
		"iterations": iterations,
		"offset":     d.state.last(),
	})
	return iterations, nil
}
