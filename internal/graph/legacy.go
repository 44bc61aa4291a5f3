package graph

// Constructors and generator methods under their older API names. Contexts
// created with NewLegacyContext advertise this flavor.

func (c *Context) CreateGainNode() *Gain {
	return newGain(c)
}

// CreateDelayNode returns a delay whose DelayTime starts at zero; callers of
// the legacy API assign the delay time explicitly.
func (c *Context) CreateDelayNode(maxDelaySeconds float64) *Delay {
	return newDelay(c, maxDelaySeconds)
}

func (l *lifecycle) NoteOn(t float64) error { return l.Start(t) }

func (l *lifecycle) NoteOff(t float64) error { return l.Stop(t) }
