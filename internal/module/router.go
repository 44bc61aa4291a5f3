package module

import "github.com/cbegin/efflux-go/internal/graph"

// Router rewires a module set into output.
type Router func(set *Set, output graph.Node)

// ApplyRouting connects input → [filter] → [delay] → panner → output,
// bypassing disabled modules. Existing connections are replaced.
func ApplyRouting(set *Set, output graph.Node) {
	set.Input.Disconnect()
	set.Filter.Filter.Disconnect()
	set.Delay.Delay.Disconnect()
	set.Panner.Disconnect()

	var head graph.Node = set.Input
	if set.Filter.FilterEnabled {
		head.Connect(set.Filter.Filter)
		head = set.Filter.Filter
	}
	if set.Delay.DelayEnabled {
		head.Connect(set.Delay.Delay)
		head = set.Delay.Delay
	}
	head.Connect(set.Panner)
	set.Panner.Connect(output)
}
