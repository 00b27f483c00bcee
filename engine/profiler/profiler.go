package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-scene/common"
)

// Sample is the per-frame scene and registry activity fed to Tick.
type Sample struct {
	Drawn        int
	Culled       int
	Recomputed   int
	ShadowPasses int
	BytesFlushed int
	Overflows    int
}

// Report is one logged interval.
type Report struct {
	Elapsed time.Duration
	Frames  int
	FPS     float64

	// per-frame averages over the interval
	AvgDrawn        float64
	AvgRecomputed   float64
	AvgShadowPasses float64

	// totals over the interval
	Culled       int
	BytesFlushed int
	Overflows    int

	HeapMB      float64
	AllocRateMB float64
	NumGC       uint32
	MaxPauseUs  uint64
}

// Profiler aggregates frame rate, scene activity and memory statistics and logs them at a
// fixed interval.
type Profiler struct {
	logger         common.Logger
	now            func() time.Time
	updateInterval time.Duration
	readMem        bool

	frameCount int
	lastTime   time.Time
	sum        Sample

	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// ProfilerOption is a functional option for configuring a Profiler.
type ProfilerOption func(*Profiler)

// WithInterval sets how often Tick logs. Defaults to 1 second.
func WithInterval(d time.Duration) ProfilerOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ProfilerOption {
	return func(p *Profiler) {
		p.now = now
	}
}

// WithMemStats sets whether reports include runtime memory statistics. Enabled by default.
func WithMemStats(enabled bool) ProfilerOption {
	return func(p *Profiler) {
		p.readMem = enabled
	}
}

// NewProfiler creates a Profiler writing to logger.
//
// Parameters:
//   - logger: the destination for reports
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger common.Logger, options ...ProfilerOption) *Profiler {
	p := &Profiler{
		logger:         logger,
		now:            time.Now,
		updateInterval: time.Second,
		readMem:        true,
	}
	for _, opt := range options {
		opt(p)
	}
	if p.logger == nil {
		p.logger = common.NopLogger()
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame. When the update interval has elapsed, the interval's
// statistics are logged and returned.
//
// Parameters:
//   - s: the frame's activity
//
// Returns:
//   - Report: the interval report, valid when ok is true
//   - bool: true if a report was produced this tick
func (p *Profiler) Tick(s Sample) (Report, bool) {
	p.frameCount++
	p.sum.Drawn += s.Drawn
	p.sum.Culled += s.Culled
	p.sum.Recomputed += s.Recomputed
	p.sum.ShadowPasses += s.ShadowPasses
	p.sum.BytesFlushed += s.BytesFlushed
	p.sum.Overflows += s.Overflows

	current := p.now()
	elapsed := current.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return Report{}, false
	}

	frames := float64(p.frameCount)
	r := Report{
		Elapsed:         elapsed,
		Frames:          p.frameCount,
		FPS:             frames / elapsed.Seconds(),
		AvgDrawn:        float64(p.sum.Drawn) / frames,
		AvgRecomputed:   float64(p.sum.Recomputed) / frames,
		AvgShadowPasses: float64(p.sum.ShadowPasses) / frames,
		Culled:          p.sum.Culled,
		BytesFlushed:    p.sum.BytesFlushed,
		Overflows:       p.sum.Overflows,
	}
	if p.readMem {
		p.readMemStats(&r, elapsed)
	}

	p.logger.Infof("FPS: %.2f | Drawn: %.1f | Culled: %d | Matrices: %.1f | Shadow passes: %.1f | Flushed: %d B | Overflows: %d | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (max: %d µs)",
		r.FPS, r.AvgDrawn, r.Culled, r.AvgRecomputed, r.AvgShadowPasses, r.BytesFlushed, r.Overflows,
		r.HeapMB, r.AllocRateMB, r.NumGC, r.MaxPauseUs)

	p.frameCount = 0
	p.sum = Sample{}
	p.lastTime = current
	return r, true
}

func (p *Profiler) readMemStats(r *Report, elapsed time.Duration) {
	runtime.ReadMemStats(&p.memStats)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.AllocRateMB = float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	// PauseNs is a circular buffer of the last 256 GC pauses
	gcCount := p.memStats.NumGC
	start := p.lastGCCount
	if gcCount-start > 256 {
		start = gcCount - 256
	}
	for i := start; i < gcCount; i++ {
		r.MaxPauseUs = max(r.MaxPauseUs, p.memStats.PauseNs[i%256]/1000)
	}
	r.NumGC = gcCount

	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
