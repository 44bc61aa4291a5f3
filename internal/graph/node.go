package graph

// Frame is one stereo sample.
type Frame struct {
	L, R float64
}

func (f Frame) Add(o Frame) Frame { return Frame{f.L + o.L, f.R + o.R} }

func (f Frame) Scale(g float64) Frame { return Frame{f.L * g, f.R * g} }

// Node is a unit in the audio graph. Render returns the node's output for the
// given frame, summing its connected inputs first. A node renders at most
// once per frame; cyclic connections observe the previous frame's output.
type Node interface {
	Connect(dst Node)
	ConnectParam(p *Param)
	Disconnect()
	Render(frame int64) Frame
	core() *nodeCore
}

type processor interface {
	process(in Frame, frame int64) Frame
}

type nodeCore struct {
	ctx     *Context
	node    Node
	proc    processor
	inputs  []Node
	outputs []Node
	params  []*Param
	last    int64
	out     Frame
}

func (c *nodeCore) init(ctx *Context, n Node, p processor) {
	c.ctx = ctx
	c.node = n
	c.proc = p
	c.last = -1
}

func (c *nodeCore) core() *nodeCore { return c }

// Connect routes this node's output into dst. Connecting twice is a no-op.
func (c *nodeCore) Connect(dst Node) {
	if dst == nil {
		return
	}
	for _, o := range c.outputs {
		if o == dst {
			return
		}
	}
	c.outputs = append(c.outputs, dst)
	d := dst.core()
	d.inputs = append(d.inputs, c.node)
}

// ConnectParam adds this node's left channel to p's computed value.
func (c *nodeCore) ConnectParam(p *Param) {
	if p == nil {
		return
	}
	for _, q := range c.params {
		if q == p {
			return
		}
	}
	c.params = append(c.params, p)
	p.inputs = append(p.inputs, c.node)
}

// Disconnect removes every outgoing connection.
func (c *nodeCore) Disconnect() {
	for _, o := range c.outputs {
		d := o.core()
		d.inputs = removeNode(d.inputs, c.node)
	}
	for _, p := range c.params {
		p.inputs = removeNode(p.inputs, c.node)
	}
	c.outputs = nil
	c.params = nil
}

// Inputs returns the number of nodes currently feeding this node.
func (c *nodeCore) Inputs() int { return len(c.inputs) }

// ConnectedTo reports whether dst is one of this node's outputs.
func (c *nodeCore) ConnectedTo(dst Node) bool {
	for _, o := range c.outputs {
		if o == dst {
			return true
		}
	}
	return false
}

func (c *nodeCore) Render(frame int64) Frame {
	if c.last == frame {
		return c.out
	}
	c.last = frame
	var in Frame
	for _, n := range c.inputs {
		in = in.Add(n.Render(frame))
	}
	c.out = c.proc.process(in, frame)
	return c.out
}

func removeNode(list []Node, n Node) []Node {
	out := list[:0]
	for _, x := range list {
		if x != n {
			out = append(out, x)
		}
	}
	for i := len(out); i < len(list); i++ {
		list[i] = nil
	}
	return out
}
