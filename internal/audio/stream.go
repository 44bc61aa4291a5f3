// Package audio streams rendered float32 frames to the system audio device
// through ebiten's audio context.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource fills interleaved stereo frames.
type SampleSource interface {
	Process(dst []float32)
}

// FinishingSource is a SampleSource that can signal when playback has ended.
// Once Finished returns true the stream reports io.EOF.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

const bytesPerFrame = 8 // two float32 channels

// StreamReader encodes a SampleSource as little-endian float32 PCM.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
	frames int64
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() {
		return 0, io.EOF
	}
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i, s := range r.buf {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(s))
	}
	r.frames += int64(frames)
	return frames * bytesPerFrame, nil
}

// Frames returns the number of frames read so far.
func (r *StreamReader) Frames() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

func (r *StreamReader) Close() error { return nil }

// Player plays one SampleSource on the shared device context.
type Player struct {
	player *ebitaudio.Player
	reader *StreamReader
}

var (
	audioContextMu   sync.Mutex
	audioContext     *ebitaudio.Context
	audioContextRate int
)

// sharedContext returns the process-wide audio context. ebiten allows a
// single context, so every player must use the same sample rate.
func sharedContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextMu.Lock()
	defer audioContextMu.Unlock()
	if audioContext == nil {
		audioContext = ebitaudio.NewContext(sampleRate)
		audioContextRate = sampleRate
	}
	if audioContextRate != sampleRate {
		return nil, fault.New(
			fmt.Sprintf("audio context already initialized at %d Hz (requested %d Hz)", audioContextRate, sampleRate),
			ftag.With(ftag.InvalidArgument))
	}
	return audioContext, nil
}

func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.Internal))
	}
	return &Player{player: pl, reader: reader}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }

func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns what the listener hears right now, behind the frames
// already rendered by the amount the device buffers.
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

// Rendered returns the number of frames pulled from the source.
func (p *Player) Rendered() int64 {
	return p.reader.Frames()
}

func (p *Player) Stop() error {
	p.player.Pause()
	if err := p.player.Close(); err != nil {
		return fault.Wrap(err, ftag.With(ftag.Internal))
	}
	return p.reader.Close()
}
