package config

import (
	"errors"
	"fmt"
)

// Config holds the numeric ranges automation values are scaled against and
// the defaults new instrument modules start from.
type Config struct {
	MaxFilterFreq     float64
	MaxFilterQ        float64
	MaxFilterLFOSpeed float64
	MaxFilterLFODepth float64 // percentage of the filter frequency
	MaxDelayCutoff    float64
	MinDelayOffset    float64

	DefaultFilterFreq     float64
	DefaultFilterQ        float64
	DefaultFilterLFOSpeed float64
	DefaultFilterLFODepth float64

	DefaultDelayType     int
	DefaultDelayTime     float64
	DefaultDelayFeedback float64
	DefaultDelayOffset   float64
	DefaultDelayCutoff   float64

	MaxDelayTime float64 // seconds of delay line allocated per module
}

func Default() Config {
	return Config{
		MaxFilterFreq:     24000,
		MaxFilterQ:        40,
		MaxFilterLFOSpeed: 25,
		MaxFilterLFODepth: 100,
		MaxDelayCutoff:    10000,
		MinDelayOffset:    -0.5,

		DefaultFilterFreq:     880,
		DefaultFilterQ:        5,
		DefaultFilterLFOSpeed: 0.1,
		DefaultFilterLFODepth: 60,

		DefaultDelayType:     0,
		DefaultDelayTime:     0.5,
		DefaultDelayFeedback: 0.42,
		DefaultDelayOffset:   -0.027,
		DefaultDelayCutoff:   1200,

		MaxDelayTime: 2,
	}
}

// Validate reports the first field that makes the configuration unusable.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value float64
	}{
		{"MaxFilterFreq", c.MaxFilterFreq},
		{"MaxFilterQ", c.MaxFilterQ},
		{"MaxFilterLFOSpeed", c.MaxFilterLFOSpeed},
		{"MaxFilterLFODepth", c.MaxFilterLFODepth},
		{"MaxDelayCutoff", c.MaxDelayCutoff},
		{"MaxDelayTime", c.MaxDelayTime},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("config: %s must be positive, got %v", p.name, p.value)
		}
	}
	if c.MinDelayOffset > 0 {
		return errors.New("config: MinDelayOffset must not be positive")
	}
	if c.DefaultFilterFreq > c.MaxFilterFreq {
		return fmt.Errorf("config: DefaultFilterFreq %v exceeds MaxFilterFreq %v", c.DefaultFilterFreq, c.MaxFilterFreq)
	}
	if c.DefaultDelayTime > c.MaxDelayTime {
		return fmt.Errorf("config: DefaultDelayTime %v exceeds MaxDelayTime %v", c.DefaultDelayTime, c.MaxDelayTime)
	}
	return nil
}
