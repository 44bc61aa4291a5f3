package effects

import "math"

// Limiter is a stereo-linked peak compressor. Both channels share one
// envelope so limiting does not shift the stereo image.
type Limiter struct {
	threshold float64
	ratio     float64
	attack    float64
	release   float64
	env       float64
}

// NewLimiter returns a limiter engaging above thresholdDB (dBFS) with the
// given ratio. attackMs and releaseMs set the envelope follower speeds.
func NewLimiter(sampleRate int, thresholdDB, ratio, attackMs, releaseMs float64) *Limiter {
	if ratio < 1 {
		ratio = 1
	}
	return &Limiter{
		threshold: math.Pow(10, thresholdDB/20),
		ratio:     ratio,
		attack:    coefficient(attackMs, sampleRate),
		release:   coefficient(releaseMs, sampleRate),
	}
}

// NewMasterLimiter returns the limiter the player puts on its output: it
// catches peaks from stacked voices and feedback delays.
func NewMasterLimiter(sampleRate int) *Limiter {
	return NewLimiter(sampleRate, -1, 20, 1, 80)
}

func coefficient(ms float64, sampleRate int) float64 {
	if ms <= 0 || sampleRate <= 0 {
		return 1
	}
	return 1 - math.Exp(-1/(ms*float64(sampleRate)/1000))
}

func (c *Limiter) Process(l, r float32) (float32, float32) {
	peak := math.Max(math.Abs(float64(l)), math.Abs(float64(r)))
	if peak > c.env {
		c.env += c.attack * (peak - c.env)
	} else {
		c.env += c.release * (peak - c.env)
	}
	g := float32(c.gain())
	return l * g, r * g
}

// gain is the reduction for the current envelope: the level above the
// threshold is divided by ratio.
func (c *Limiter) gain() float64 {
	if c.env <= c.threshold {
		return 1
	}
	over := c.env / c.threshold
	return math.Pow(over, 1/c.ratio-1)
}

// Reduction returns the current gain reduction in dB (zero or negative).
func (c *Limiter) Reduction() float64 {
	return 20 * math.Log10(c.gain())
}

func (c *Limiter) Reset() {
	c.env = 0
}
