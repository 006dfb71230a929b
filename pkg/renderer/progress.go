package renderer

import (
	"sync/atomic"

	"github.com/df07/go-pathtracer/pkg/core"
)

// Progress counts completed pixels. It is purely observational; nothing in the
// render depends on its value.
type Progress struct {
	done  atomic.Int64
	total atomic.Int64

	// OnUpdate, when set, is called by whichever worker completed a pixel
	OnUpdate func(done, total int)
}

func (p *Progress) reset(total int) {
	p.total.Store(int64(total))
	p.done.Store(0)
}

func (p *Progress) add(n int) {
	done := p.done.Add(int64(n))
	if p.OnUpdate != nil {
		p.OnUpdate(int(done), int(p.total.Load()))
	}
}

// Done returns the number of completed pixels
func (p *Progress) Done() int {
	return int(p.done.Load())
}

// Total returns the number of pixels in the current render
func (p *Progress) Total() int {
	return int(p.total.Load())
}

// Fraction returns completion in [0, 1]
func (p *Progress) Fraction() float64 {
	total := p.total.Load()
	if total == 0 {
		return 0
	}
	return float64(p.done.Load()) / float64(total)
}

// ProgressReporter logs progress each time another step percent of the image is done
type ProgressReporter struct {
	logger core.Logger
	step   int
	last   atomic.Int64
}

// NewProgressReporter creates a reporter logging every step percent (10 if step <= 0)
func NewProgressReporter(logger core.Logger, step int) *ProgressReporter {
	if step <= 0 {
		step = 10
	}
	return &ProgressReporter{logger: logger, step: step}
}

// Report is suitable for Progress.OnUpdate; each step is logged at most once
func (r *ProgressReporter) Report(done, total int) {
	if total <= 0 {
		return
	}
	bucket := int64(done * 100 / total / r.step * r.step)
	for {
		last := r.last.Load()
		if bucket <= last {
			return
		}
		if r.last.CompareAndSwap(last, bucket) {
			r.logger.Printf("Rendered %d%% (%d/%d pixels)\n", bucket, done, total)
			return
		}
	}
}
