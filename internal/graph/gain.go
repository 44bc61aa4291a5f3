package graph

import "math"

// Gain scales its summed input by the Gain parameter.
type Gain struct {
	nodeCore
	Gain *Param
}

func newGain(ctx *Context) *Gain {
	g := &Gain{Gain: newParam(ctx, 1)}
	g.init(ctx, g, g)
	return g
}

func (g *Gain) process(in Frame, frame int64) Frame {
	return in.Scale(g.Gain.Sample(frame))
}

// StereoPanner places its input in the stereo field using equal-power gains.
// Pan ranges from -1 (left) to 1 (right).
type StereoPanner struct {
	nodeCore
	Pan *Param
}

func newStereoPanner(ctx *Context) *StereoPanner {
	p := &StereoPanner{Pan: newParam(ctx, 0)}
	p.init(ctx, p, p)
	return p
}

func (p *StereoPanner) process(in Frame, frame int64) Frame {
	pan := p.Pan.Sample(frame)
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}
	if pan <= 0 {
		x := (pan + 1) * math.Pi / 2
		return Frame{
			L: in.L + in.R*math.Cos(x),
			R: in.R * math.Sin(x),
		}
	}
	x := pan * math.Pi / 2
	return Frame{
		L: in.L * math.Cos(x),
		R: in.R + in.L*math.Sin(x),
	}
}
