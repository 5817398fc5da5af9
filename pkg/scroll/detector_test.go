package scroll

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ttscraper/pkg/logger"
)

// fakePage replays a fixed offset sequence, then repeats the last value
type fakePage struct {
	offsets []float64
	reads   int
	wheels  int
	deltas  []float64
	failAt  int
}

func (p *fakePage) MouseWheel(ctx context.Context, dx, dy float64) error {
	p.wheels++
	p.deltas = append(p.deltas, dy)
	return nil
}

func (p *fakePage) WaitForLoadState(ctx context.Context) error { return nil }

func (p *fakePage) ScrollY(ctx context.Context) (float64, error) {
	p.reads++
	if p.failAt > 0 && p.reads == p.failAt {
		return 0, errors.New("target closed")
	}
	i := p.reads - 1
	if i >= len(p.offsets) {
		i = len(p.offsets) - 1
	}
	return p.offsets[i], nil
}

func TestScrollStateStability(t *testing.T) {
	const n = 5
	s := NewScrollState(n)

	for i := 0; i < n-1; i++ {
		s.Record(300)
		assert.False(t, s.Stable(), "stable after %d identical offsets", i+1)
	}
	s.Record(300)
	assert.True(t, s.Stable())
	assert.Equal(t, n, s.Len())
}

func TestScrollStateRequiresFullWindowOfEqualValues(t *testing.T) {
	s := NewScrollState(3)
	for _, y := range []float64{0, 75, 150, 150} {
		s.Record(y)
	}
	assert.False(t, s.Stable(), "N-1 trailing duplicates must not be stable")

	s.Record(150)
	assert.True(t, s.Stable())

	s.Record(225)
	assert.False(t, s.Stable(), "a new offset breaks stability")
	assert.Equal(t, []float64{150, 150, 225}, s.Values())
}

func TestScrollStateNeverExceedsCapacity(t *testing.T) {
	s := NewScrollState(4)
	for i := 0; i < 10; i++ {
		s.Record(float64(i))
		assert.LessOrEqual(t, s.Len(), 4)
	}
	assert.Equal(t, []float64{6, 7, 8, 9}, s.Values())
}

func TestDetectorRunStopsWhenStable(t *testing.T) {
	page := &fakePage{offsets: []float64{75, 150, 225, 300}}
	d := NewDetector(page, 3, 75, logger.NewNopLogger())

	iterations, err := d.Run(context.Background(), 0)
	require.NoError(t, err)

	// 4 distinct offsets, then 300 is repeated until 3 identical readings are held.
	assert.Equal(t, 6, iterations)
	assert.True(t, d.IsStable())
	assert.Equal(t, 6, page.wheels)
	for _, dy := range page.deltas {
		assert.Equal(t, 75.0, dy)
	}
}

func TestDetectorRunIterationCap(t *testing.T) {
	offsets := make([]float64, 100)
	for i := range offsets {
		offsets[i] = float64(i * 75)
	}
	page := &fakePage{offsets: offsets}
	d := NewDetector(page, 10, 75, logger.NewNopLogger())

	iterations, err := d.Run(context.Background(), 20)
	assert.ErrorIs(t, err, ErrIterationLimit)
	assert.Equal(t, 20, iterations)
	assert.False(t, d.IsStable())
}

func TestDetectorRunPropagatesPageErrors(t *testing.T) {
	page := &fakePage{offsets: []float64{0}, failAt: 2}
	d := NewDetector(page, 5, 75, logger.NewNopLogger())

	_, err := d.Run(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target closed")
}

func TestDetectorRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDetector(&fakePage{offsets: []float64{0}}, 5, 75, logger.NewNopLogger())
	_, err := d.Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
}
