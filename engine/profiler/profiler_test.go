package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestTickReportsOncePerInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	var out bytes.Buffer
	logger := common.NewWriterLogger(&out, &out, "Profiler", false)
	p := NewProfiler(logger, WithClock(clock.now), WithMemStats(false))

	for i := range 3 {
		clock.t = clock.t.Add(250 * time.Millisecond)
		_, ok := p.Tick(Sample{Drawn: 10, Culled: 1, Recomputed: 4, ShadowPasses: 6})
		assert.False(t, ok, "tick %d", i)
	}
	assert.Zero(t, out.Len())

	clock.t = clock.t.Add(250 * time.Millisecond)
	r, ok := p.Tick(Sample{Drawn: 20, Culled: 1, ShadowPasses: 6, Overflows: 1, BytesFlushed: 64})
	require.True(t, ok)
	assert.Equal(t, 4, r.Frames)
	assert.InDelta(t, 4, r.FPS, 1e-9)
	assert.InDelta(t, 12.5, r.AvgDrawn, 1e-9)
	assert.InDelta(t, 3, r.AvgRecomputed, 1e-9)
	assert.InDelta(t, 6, r.AvgShadowPasses, 1e-9)
	assert.Equal(t, 4, r.Culled)
	assert.Equal(t, 1, r.Overflows)
	assert.Equal(t, 64, r.BytesFlushed)
	assert.Contains(t, out.String(), "[Profiler] INFO: FPS: 4.00")

	clock.t = clock.t.Add(100 * time.Millisecond)
	_, ok = p.Tick(Sample{})
	assert.False(t, ok, "the interval restarts after a report")
}

func TestMemStatsAreRead(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(nil, WithClock(clock.now), WithInterval(time.Millisecond))
	clock.t = clock.t.Add(time.Second)
	r, ok := p.Tick(Sample{})
	require.True(t, ok)
	assert.Positive(t, r.HeapMB)
}
