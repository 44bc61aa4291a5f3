// Package selection tracks a step range selected across the two channels of
// a pattern and copies and pastes it.
package selection

import (
	"slices"

	"github.com/cbegin/efflux-go/internal/song"
)

// Channels is the number of channels a selection spans.
const Channels = 2

type Model struct {
	selection [Channels][]int
	clipboard [][]*song.Event
}

func other(channel int) int {
	if channel == 0 {
		return 1
	}
	return 0
}

// SetSelection replaces the selection with steps [start, end) of channel.
// When the other channel already held a selection both channels are
// equalized to the same steps.
func (m *Model) SetSelection(channel, start, end int) {
	if channel < 0 || channel >= Channels {
		return
	}
	prevMin := m.MinValue()
	force := len(m.selection[other(channel)]) > 0
	m.ClearSelection()

	for i := start; i < end; i++ {
		m.selection[channel] = append(m.selection[channel], i)
	}
	// a two step drag starting at the first row selects a single channel
	if prevMin == 0 && len(m.selection[channel]) == 2 {
		force = false
	}
	m.EqualizeSelection(channel, force)
}

// EqualizeSelection copies the steps selected in channel to the other
// channel when force is set. Both channels end up sorted.
func (m *Model) EqualizeSelection(channel int, force bool) {
	if channel < 0 || channel >= Channels {
		return
	}
	if force {
		o := other(channel)
		for _, step := range m.selection[channel] {
			if !slices.Contains(m.selection[o], step) {
				m.selection[o] = append(m.selection[o], step)
			}
		}
	}
	for i := range m.selection {
		slices.Sort(m.selection[i])
	}
}

func (m *Model) ClearSelection() {
	m.selection = [Channels][]int{}
}

// Selection returns the selected steps of channel in ascending order.
func (m *Model) Selection(channel int) []int {
	if channel < 0 || channel >= Channels {
		return nil
	}
	return slices.Clone(m.selection[channel])
}

// MinValue returns the lowest selected step of either channel, or -1 when
// nothing is selected.
func (m *Model) MinValue() int {
	v := -1
	for _, ch := range m.selection {
		if len(ch) == 0 {
			continue
		}
		if lo := slices.Min(ch); v < 0 || lo < v {
			v = lo
		}
	}
	return v
}

// MaxValue returns the highest selected step of either channel, or -1 when
// nothing is selected.
func (m *Model) MaxValue() int {
	v := -1
	for _, ch := range m.selection {
		if len(ch) == 0 {
			continue
		}
		v = max(v, slices.Max(ch))
	}
	return v
}

// Length returns the number of steps in the longer channel selection.
func (m *Model) Length() int {
	return max(len(m.selection[0]), len(m.selection[1]))
}

// Copy stores deep copies of the selected range of pattern. Every channel
// with a selection copies the full MinValue..MaxValue span.
func (m *Model) Copy(s *song.Song, pattern int) {
	if m.Length() == 0 || pattern < 0 || pattern >= len(s.Patterns) {
		return
	}
	p := &s.Patterns[pattern]
	m.clipboard = make([][]*song.Event, Channels)
	lo, hi := m.MinValue(), m.MaxValue()
	for i := 0; i < Channels && i < len(p.Channels); i++ {
		if len(m.selection[i]) == 0 {
			continue
		}
		for j := lo; j <= hi && j < len(p.Channels[i]); j++ {
			m.clipboard[i] = append(m.clipboard[i], p.Channels[i][j].Clone())
		}
	}
}

// Copied reports whether Paste has content to write.
func (m *Model) Copied() bool {
	return m.clipboard != nil
}

// Paste writes the copied steps into pattern starting at step of channel.
// The first copied channel lands on channel, the second on the channel
// after it. Empty copied steps leave the target untouched and steps outside
// the pattern are dropped. The selection is cleared afterwards.
func (m *Model) Paste(s *song.Song, pattern, channel, step int) {
	defer m.ClearSelection()
	if m.clipboard == nil || pattern < 0 || pattern >= len(s.Patterns) || channel < 0 {
		return
	}
	p := &s.Patterns[pattern]
	for i, j := channel, 0; i < Channels && i < len(p.Channels); i, j = i+1, j+1 {
		target := p.Channels[i]
		for k, ev := range m.clipboard[j] {
			w := step + k
			if w >= len(target) {
				break
			}
			if w < 0 || ev.Empty() {
				continue
			}
			target[w] = ev.Clone()
		}
	}
}
