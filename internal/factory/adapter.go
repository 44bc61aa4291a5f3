// Package factory creates audio nodes and instrument modules, hiding the
// differences between the standard and legacy node API flavors.
package factory

import "github.com/cbegin/efflux-go/internal/graph"

// Capabilities describes which node API flavor a context implements.
type Capabilities struct {
	Standards bool
}

// Detect reads the capabilities ctx reports.
func Detect(ctx *graph.Context) Capabilities {
	return Capabilities{Standards: ctx.Standards()}
}

// Adapter starts and stops generators and creates the nodes whose
// constructors differ between API flavors.
type Adapter interface {
	Start(g graph.Generator, t float64) error
	// Stop stops g at t. Stopping a generator that is not running is
	// ignored.
	Stop(g graph.Generator, t float64)
	CreateGain(ctx *graph.Context) *graph.Gain
	// CreateDelay returns a delay able to hold maxDelay seconds with its
	// delay time set to maxDelay. A non-positive maxDelay yields a one
	// second line with zero delay time.
	CreateDelay(ctx *graph.Context, maxDelay float64) *graph.Delay
}

// NewAdapter returns the adapter matching caps.
func NewAdapter(caps Capabilities) Adapter {
	if caps.Standards {
		return standardsAdapter{}
	}
	return legacyAdapter{}
}

type standardsAdapter struct{}

func (standardsAdapter) Start(g graph.Generator, t float64) error { return g.Start(t) }

func (standardsAdapter) Stop(g graph.Generator, t float64) {
	// ErrInvalidState on a duplicate stop is an expected race between
	// note-off and voice cleanup
	_ = g.Stop(t)
}

func (standardsAdapter) CreateGain(ctx *graph.Context) *graph.Gain { return ctx.CreateGain() }

func (standardsAdapter) CreateDelay(ctx *graph.Context, maxDelay float64) *graph.Delay {
	d := ctx.CreateDelay(maxDelay)
	if maxDelay > 0 {
		d.DelayTime.SetValue(maxDelay)
	}
	return d
}

type legacyAdapter struct{}

func (legacyAdapter) Start(g graph.Generator, t float64) error { return g.NoteOn(t) }

func (legacyAdapter) Stop(g graph.Generator, t float64) {
	_ = g.NoteOff(t)
}

func (legacyAdapter) CreateGain(ctx *graph.Context) *graph.Gain { return ctx.CreateGainNode() }

func (legacyAdapter) CreateDelay(ctx *graph.Context, maxDelay float64) *graph.Delay {
	d := ctx.CreateDelayNode(maxDelay)
	if maxDelay > 0 {
		d.DelayTime.SetValue(maxDelay)
	}
	return d
}
