// Package sample decodes WAV files into graph buffers for sample
// oscillators.
package sample

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/go-audio/wav"

	"github.com/cbegin/efflux-go/internal/graph"
)

// Decode reads a PCM WAV stream and returns its samples normalized to
// [-1, 1], one slice per channel.
func Decode(r io.ReadSeeker) (*graph.Buffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fault.New("not a valid WAV file", ftag.With(ftag.InvalidArgument))
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("decode WAV data"), ftag.With(ftag.InvalidArgument))
	}
	channels := buf.Format.NumChannels
	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(d.BitDepth)
	}
	if channels <= 0 || depth <= 0 {
		return nil, fault.New(fmt.Sprintf("unsupported WAV layout: %d channels, %d bits", channels, depth),
			ftag.With(ftag.InvalidArgument))
	}

	factor := math.Pow(2, float64(depth-1))
	frames := len(buf.Data) / channels
	out := &graph.Buffer{SampleRate: float64(buf.Format.SampleRate), Channels: make([][]float64, channels)}
	for c := range out.Channels {
		out.Channels[c] = make([]float64, frames)
	}
	for i := 0; i < frames*channels; i++ {
		out.Channels[i%channels][i/channels] = float64(buf.Data[i]) / factor
	}
	return out, nil
}

// Load decodes the WAV file at path.
func Load(path string) (*graph.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		kind := ftag.Internal
		if os.IsNotExist(err) {
			kind = ftag.NotFound
		}
		return nil, fault.Wrap(err,
			fmsg.WithDesc("open sample", fmt.Sprintf("Could not open sample %s.", path)),
			ftag.With(kind))
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(path))
	}
	return b, nil
}

// Cache loads each sample path once.
type Cache struct {
	buffers map[string]*graph.Buffer
	load    func(path string) (*graph.Buffer, error)
}

func NewCache() *Cache {
	return &Cache{buffers: map[string]*graph.Buffer{}, load: Load}
}

// Get returns the buffer for path, decoding it on first use.
func (c *Cache) Get(path string) (*graph.Buffer, error) {
	if b, ok := c.buffers[path]; ok {
		return b, nil
	}
	b, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.buffers[path] = b
	return b, nil
}
