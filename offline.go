package efflux

import (
	"io"
	"math"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cbegin/efflux-go/internal/playback"
)

func newOfflineEngine(s *Song, sampleRate int, opts []PlayerOption) (*playback.Engine, playerConfig, error) {
	cfg := defaultPlayerConfig()
	cfg.loopPlayback = false
	for _, opt := range opts {
		opt(&cfg)
	}
	engine, err := playback.New(s, sampleRate, playback.Options{
		Loop:         cfg.loopPlayback,
		Capabilities: cfg.caps,
		Config:       cfg.cfg,
	})
	if err != nil {
		return nil, cfg, err
	}
	engine.SetMasterVolume(cfg.volume)
	return engine, cfg, nil
}

// RenderSamples renders seconds of s as interleaved stereo frames without an
// audio device. Looping and the master limiter follow opts; looping is off
// unless enabled.
func RenderSamples(s *Song, sampleRate int, seconds float64, opts ...PlayerOption) ([]float32, error) {
	engine, cfg, err := newOfflineEngine(s, sampleRate, opts)
	if err != nil {
		return nil, err
	}
	frames := int(float64(sampleRate) * seconds)
	if frames < 0 {
		frames = 0
	}
	out := make([]float32, frames*2)
	engine.Process(out)
	newBus(sampleRate, cfg.limiter).ProcessBuffer(out)
	if cfg.sampleTap != nil {
		cfg.sampleTap(out)
	}
	return out, nil
}

// RenderSong renders s until playback ends, including the release tail.
// maxSeconds bounds the render for looping songs. A sample tap sees every
// rendered block.
func RenderSong(s *Song, sampleRate int, maxSeconds float64, opts ...PlayerOption) ([]float32, error) {
	engine, cfg, err := newOfflineEngine(s, sampleRate, opts)
	if err != nil {
		return nil, err
	}
	bus := newBus(sampleRate, cfg.limiter)
	limit := int(float64(sampleRate) * maxSeconds)
	block := make([]float32, 1024*2)
	var out []float32
	for frames := 0; frames < limit && !engine.Finished(); frames += len(block) / 2 {
		if n := limit - frames; n < len(block)/2 {
			block = block[:n*2]
		}
		engine.Process(block)
		bus.ProcessBuffer(block)
		if cfg.sampleTap != nil {
			cfg.sampleTap(block)
		}
		out = append(out, block...)
	}
	return out, nil
}

// WriteWAV encodes interleaved stereo samples as 16-bit PCM. Samples are
// clipped to [-1, 1].
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		buf.Data[i] = int(math.Round(v * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fault.Wrap(err, fmsg.With("write WAV data"), ftag.With(ftag.Internal))
	}
	if err := enc.Close(); err != nil {
		return fault.Wrap(err, fmsg.With("finish WAV file"), ftag.With(ftag.Internal))
	}
	return nil
}
