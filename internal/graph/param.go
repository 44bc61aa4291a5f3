package graph

import "sort"

type eventKind int

const (
	eventSet eventKind = iota
	eventLinearRamp
)

type paramEvent struct {
	kind  eventKind
	time  float64
	value float64
}

// Param is an automatable node parameter. Its value at a point in time is
// derived from a timeline of set and linear ramp events; connected nodes add
// their output on top of that value while rendering.
type Param struct {
	ctx    *Context
	value  float64
	events []paramEvent
	inputs []Node
}

func newParam(ctx *Context, value float64) *Param {
	return &Param{ctx: ctx, value: value}
}

func (p *Param) now() float64 {
	if p.ctx == nil {
		return 0
	}
	return p.ctx.CurrentTime()
}

// Value returns the scheduled value at the context's current time, without
// modulation from connected nodes.
func (p *Param) Value() float64 {
	return p.ValueAt(p.now())
}

// SetValue assigns the value directly. When events are scheduled the
// assignment takes effect from the current time.
func (p *Param) SetValue(v float64) {
	p.value = v
	if len(p.events) > 0 {
		p.SetValueAtTime(v, p.now())
	}
}

func (p *Param) SetValueAtTime(v, t float64) {
	p.insert(paramEvent{kind: eventSet, time: t, value: v})
}

// LinearRampToValueAtTime ramps from the previous event's value to v,
// arriving at time t. Without a previous event the ramp starts at the
// current time from the current value.
func (p *Param) LinearRampToValueAtTime(v, t float64) {
	if len(p.events) == 0 || p.events[0].time > t {
		now := p.now()
		if now > t {
			now = t
		}
		p.insert(paramEvent{kind: eventSet, time: now, value: p.ValueAt(now)})
	}
	p.insert(paramEvent{kind: eventLinearRamp, time: t, value: v})
}

// CancelScheduledValues removes every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time >= t })
	if i < len(p.events) {
		// a ramp that was heading towards a cancelled event holds its last
		// reached value from the preceding event
		p.events = p.events[:i]
	}
}

// Scheduled returns the number of events on the timeline.
func (p *Param) Scheduled() int { return len(p.events) }

// Ramping reports whether a linear ramp is in progress or pending at t.
func (p *Param) Ramping(t float64) bool {
	for _, e := range p.events {
		if e.time > t && e.kind == eventLinearRamp {
			return true
		}
	}
	return false
}

// ValueAt evaluates the timeline at t.
func (p *Param) ValueAt(t float64) float64 {
	v := p.value
	prevT := 0.0
	for _, e := range p.events {
		if e.time <= t {
			v = e.value
			prevT = e.time
			continue
		}
		if e.kind == eventLinearRamp {
			span := e.time - prevT
			if span <= 0 {
				return e.value
			}
			return v + (e.value-v)*(t-prevT)/span
		}
		break
	}
	return v
}

// Sample returns the parameter's value for frame including modulation from
// connected nodes, and discards events that can no longer affect it.
func (p *Param) Sample(frame int64) float64 {
	t := p.ctx.TimeOf(frame)
	v := p.ValueAt(t)
	p.prune(t)
	for _, n := range p.inputs {
		v += n.Render(frame).L
	}
	return v
}

func (p *Param) prune(t float64) {
	last := -1
	for i, e := range p.events {
		if e.time > t {
			break
		}
		last = i
	}
	if last <= 0 {
		return
	}
	// the last past event becomes the anchor for anything after it
	p.value = p.events[last].value
	p.events = append(p.events[:0], p.events[last:]...)
}

func (p *Param) insert(ev paramEvent) {
	i := sort.Search(len(p.events), func(i int) bool { return p.events[i].time > ev.time })
	p.events = append(p.events, paramEvent{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = ev
}
