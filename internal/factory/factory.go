package factory

import (
	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/graph"
	"github.com/cbegin/efflux-go/internal/instrument"
	"github.com/cbegin/efflux-go/internal/module"
)

// Factory builds instrument module sets through an Adapter.
type Factory struct {
	adapter Adapter
	cfg     config.Config
	route   module.Router
}

type Option func(*Factory)

// WithRouter replaces module.ApplyRouting as the routing applied after a
// configuration change.
func WithRouter(r module.Router) Option {
	return func(f *Factory) {
		f.route = r
	}
}

func New(caps Capabilities, cfg config.Config, opts ...Option) *Factory {
	f := &Factory{
		adapter: NewAdapter(caps),
		cfg:     cfg,
		route:   module.ApplyRouting,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Factory) Adapter() Adapter { return f.adapter }

func (f *Factory) Config() config.Config { return f.cfg }

// CreateFilterModule returns a filter whose frequency is modulated by a
// running LFO through an amp. The LFO stays disconnected until a waveform is
// selected.
func (f *Factory) CreateFilterModule(ctx *graph.Context) *module.Filter {
	filter := ctx.CreateBiquadFilter()
	lfo := ctx.CreateOscillator()
	lfoAmp := f.adapter.CreateGain(ctx)

	// a fresh oscillator cannot fail to start
	_ = f.adapter.Start(lfo, ctx.CurrentTime())
	lfoAmp.ConnectParam(filter.Frequency)

	filter.Frequency.SetValue(f.cfg.DefaultFilterFreq)
	filter.Q.SetValue(f.cfg.DefaultFilterQ)
	lfo.Frequency.SetValue(f.cfg.DefaultFilterLFOSpeed)
	lfoAmp.Gain.SetValue(f.cfg.DefaultFilterLFODepth / 100 * filter.Frequency.Value())

	return &module.Filter{
		Filter: filter,
		LFO:    lfo,
		LFOAmp: lfoAmp,
	}
}

// ApplyFilterConfiguration copies props onto the set's filter module and
// re-applies routing into output.
func (f *Factory) ApplyFilterConfiguration(set *module.Set, props instrument.FilterProps, output graph.Node) {
	filter := set.Filter

	filter.Filter.Frequency.SetValue(props.Frequency)
	filter.Filter.Q.SetValue(props.Q)
	filter.LFO.Frequency.SetValue(props.Speed)
	filter.LFOAmp.Gain.SetValue(props.Depth / 100 * props.Frequency)

	if props.Type != "" {
		filter.Filter.Type = graph.FilterType(props.Type)
	}
	filter.FilterEnabled = props.Enabled

	f.route(set, output)

	lfoType := props.LFOType
	if lfoType == "" {
		lfoType = module.LFOOff
	}
	filter.SetLFOType(lfoType)
}

func (f *Factory) CreateDelayModule(ctx *graph.Context) *module.Delay {
	d := ctx.CreateFeedbackDelay(f.cfg.MaxDelayTime)
	d.Type = f.cfg.DefaultDelayType
	d.Delay = f.cfg.DefaultDelayTime
	d.Feedback = f.cfg.DefaultDelayFeedback
	d.Offset = f.cfg.DefaultDelayOffset
	d.Cutoff = f.cfg.DefaultDelayCutoff
	return &module.Delay{Delay: d}
}

// ApplyDelayConfiguration copies props onto the set's delay module and
// re-applies routing into output.
func (f *Factory) ApplyDelayConfiguration(set *module.Set, props instrument.DelayProps, output graph.Node) {
	d := set.Delay.Delay
	d.Type = props.Type
	d.Delay = props.Time
	d.Feedback = props.Feedback
	d.Offset = props.Offset
	d.Cutoff = props.Cutoff
	set.Delay.DelayEnabled = props.Enabled

	f.route(set, output)
}

// CreateModuleSet builds and configures the full module chain for inst,
// routed into output.
func (f *Factory) CreateModuleSet(ctx *graph.Context, inst instrument.Instrument, output graph.Node) *module.Set {
	set := &module.Set{
		Input:  f.adapter.CreateGain(ctx),
		Filter: f.CreateFilterModule(ctx),
		Delay:  f.CreateDelayModule(ctx),
		Panner: ctx.CreateStereoPanner(),
	}
	set.Input.Gain.SetValue(inst.Volume)
	set.Panner.Pan.SetValue(inst.Panning)

	f.ApplyFilterConfiguration(set, inst.Filter, output)
	f.ApplyDelayConfiguration(set, inst.Delay, output)
	return set
}
