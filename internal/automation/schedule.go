package automation

import "github.com/cbegin/efflux-go/internal/voice"

// Param is the scheduling surface of an automatable parameter.
// *graph.Param implements it.
type Param interface {
	Value() float64
	SetValueAtTime(v, t float64)
	LinearRampToValueAtTime(v, t float64)
	CancelScheduledValues(t float64)
}

// ScheduleParameterChange moves param to value at startTime. Without glide
// the change is instantaneous. With glide the value ramps linearly from its
// current value and arrives at startTime+duration.
//
// state, when non-nil, tracks a glide in flight: once it is Ramping further
// glides append to the running ramp instead of restarting it, so consecutive
// events compound smoothly. A nil state restarts the ramp on every call.
func ScheduleParameterChange(param Param, value, startTime, duration float64, glide bool, state *voice.RampState) {
	if !glide || state == nil || *state == voice.Idle {
		// read before cancelling: a ramp ending at startTime is part of the
		// current value
		cur := param.Value()
		param.CancelScheduledValues(startTime)
		if glide {
			param.SetValueAtTime(cur, startTime)
		} else {
			param.SetValueAtTime(value, startTime)
		}
	}
	if !glide {
		if state != nil {
			*state = voice.Idle
		}
		return
	}
	param.LinearRampToValueAtTime(value, startTime+duration)
	if state != nil {
		*state = voice.Ramping
	}
}
