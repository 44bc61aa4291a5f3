// Package effects holds master bus processors applied to the mixed engine
// output before it reaches the device or a file.
package effects

// Effector processes one stereo frame.
type Effector interface {
	Process(l, r float32) (float32, float32)
	Reset()
}

// Bus runs interleaved stereo buffers through its effects in order.
type Bus struct {
	effects []Effector
}

func NewBus(effects ...Effector) *Bus {
	return &Bus{effects: effects}
}

func (b *Bus) Add(e Effector) {
	b.effects = append(b.effects, e)
}

func (b *Bus) Len() int { return len(b.effects) }

// ProcessBuffer rewrites dst in place.
func (b *Bus) ProcessBuffer(dst []float32) {
	if len(b.effects) == 0 {
		return
	}
	for i := 0; i+1 < len(dst); i += 2 {
		l, r := dst[i], dst[i+1]
		for _, e := range b.effects {
			l, r = e.Process(l, r)
		}
		dst[i], dst[i+1] = l, r
	}
}

func (b *Bus) Reset() {
	for _, e := range b.effects {
		e.Reset()
	}
}
