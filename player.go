package efflux

import (
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"

	intaudio "github.com/cbegin/efflux-go/internal/audio"
	"github.com/cbegin/efflux-go/internal/config"
	"github.com/cbegin/efflux-go/internal/effects"
	"github.com/cbegin/efflux-go/internal/factory"
	"github.com/cbegin/efflux-go/internal/playback"
	"github.com/cbegin/efflux-go/internal/song"
)

// Song is a tracker song document.
type Song = song.Song

// Config holds automation ranges and module defaults.
type Config = config.Config

// Capabilities selects the node API flavor voices are driven through.
type Capabilities = factory.Capabilities

func DefaultConfig() Config { return config.Default() }

// NewSong returns an empty song with two default instruments.
func NewSong(title string) *Song { return song.New(title, config.Default()) }

// LoadSong reads and validates a song file.
func LoadSong(path string) (*Song, error) { return song.LoadFile(path) }

// PlaybackEvent carries playback events from Watch().
type PlaybackEvent struct {
	Kind int // EventLoopCompleted or EventPlaybackEnded
}

const (
	EventLoopCompleted = int(playback.EventLoopCompleted)
	EventPlaybackEnded = int(playback.EventPlaybackEnded)
)

type PlayerOption func(*playerConfig)

type playerConfig struct {
	loopPlayback bool
	cfg          config.Config
	caps         factory.Capabilities
	limiter      bool
	volume       float64
	sampleTap    func([]float32)
}

func defaultPlayerConfig() playerConfig {
	return playerConfig{
		loopPlayback: true,
		cfg:          config.Default(),
		caps:         factory.Capabilities{Standards: true},
		limiter:      true,
		volume:       1,
	}
}

func WithLoopPlayback(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.loopPlayback = enabled
	}
}

func WithConfig(c Config) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.cfg = c
	}
}

// WithCapabilities drives voices through the given node API flavor.
func WithCapabilities(caps Capabilities) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.caps = caps
	}
}

// WithLimiter toggles the master limiter (on by default).
func WithLimiter(enabled bool) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.limiter = enabled
	}
}

// WithMasterVolume sets the initial master volume scalar. Negative values
// clamp to 0.
func WithMasterVolume(volume float64) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.volume = math.Max(0, volume)
	}
}

// WithSampleTap installs a callback invoked with each generated stereo buffer.
// The callback runs on the audio thread; keep work brief and non-blocking.
func WithSampleTap(tap func([]float32)) PlayerOption {
	return func(cfg *playerConfig) {
		cfg.sampleTap = tap
	}
}

type Player struct {
	mu         sync.Mutex
	sampleRate int
	opts       playerConfig
	source     *engineSource
	audio      *intaudio.Player
	volume     float64
	done       chan struct{}
	eventCh    chan PlaybackEvent
	eventChMu  sync.Mutex
}

// engineSource adapts a playback engine to the audio stream. The engine is
// not safe for concurrent use, so every access goes through mu.
type engineSource struct {
	mu        sync.Mutex
	engine    *playback.Engine
	bus       *effects.Bus
	sampleTap func([]float32)
	finished  atomic.Bool
}

func (s *engineSource) Process(dst []float32) {
	s.mu.Lock()
	s.engine.Process(dst)
	s.mu.Unlock()
	s.bus.ProcessBuffer(dst)
	if s.sampleTap != nil {
		s.sampleTap(dst)
	}
}

func (s *engineSource) Finished() bool {
	return s.finished.Load()
}

func (s *engineSource) setVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetMasterVolume(v)
}

func NewPlayer(sampleRate int, opts ...PlayerOption) (*Player, error) {
	if sampleRate <= 0 {
		return nil, fault.New("sampleRate must be positive", ftag.With(ftag.InvalidArgument))
	}
	cfg := defaultPlayerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.cfg.Validate(); err != nil {
		return nil, fault.Wrap(err, ftag.With(ftag.InvalidArgument))
	}
	return &Player{
		sampleRate: sampleRate,
		opts:       cfg,
		volume:     cfg.volume,
	}, nil
}

func newBus(sampleRate int, limiter bool) *effects.Bus {
	bus := effects.NewBus()
	if limiter {
		bus.Add(effects.NewMasterLimiter(sampleRate))
	}
	return bus
}

// PlayFile loads the song at path and plays it. Relative sample paths
// resolve against the song's directory.
func (p *Player) PlayFile(path string) error {
	s, err := song.LoadFile(path)
	if err != nil {
		return err
	}
	return p.play(s, filepath.Dir(path))
}

// Play replaces whatever is playing with s.
func (p *Player) Play(s *Song) error {
	return p.play(s, "")
}

func (p *Player) play(s *Song, sampleDir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	src := &engineSource{
		bus:       newBus(p.sampleRate, p.opts.limiter),
		sampleTap: p.opts.sampleTap,
	}
	engine, err := playback.New(s, p.sampleRate, playback.Options{
		Loop:         p.opts.loopPlayback,
		Capabilities: p.opts.caps,
		Config:       p.opts.cfg,
		SampleDir:    sampleDir,
		OnEvent: func(kind playback.EventKind) {
			if kind == playback.EventPlaybackEnded {
				src.finished.Store(true)
			}
			p.sendEvent(PlaybackEvent{Kind: int(kind)})
			if kind == playback.EventPlaybackEnded {
				go p.signalDone()
			}
		},
	})
	if err != nil {
		return err
	}
	engine.SetMasterVolume(p.volume)
	src.engine = engine

	backend, err := intaudio.NewPlayer(p.sampleRate, src)
	if err != nil {
		return err
	}

	// signal any existing Wait() that the previous playback was replaced
	if p.done != nil {
		close(p.done)
	}
	p.done = make(chan struct{})
	if p.audio != nil {
		_ = p.audio.Stop()
	}
	p.audio = backend
	p.source = src
	p.audio.Play()
	return nil
}

func (p *Player) sendEvent(ev PlaybackEvent) {
	p.eventChMu.Lock()
	ch := p.eventCh
	p.eventChMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
			// channel full; drop event
		}
	}
}

func (p *Player) signalDone() {
	p.mu.Lock()
	done := p.done
	p.done = nil
	p.mu.Unlock()
	if done != nil {
		close(done)
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Pause()
	}
}

func (p *Player) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.audio != nil {
		p.audio.Play()
	}
}

func (p *Player) Stop() error {
	p.mu.Lock()
	if p.audio == nil {
		p.mu.Unlock()
		return nil
	}
	err := p.audio.Stop()
	p.audio = nil
	p.source = nil
	done := p.done
	p.done = nil
	p.mu.Unlock()
	p.sendEvent(PlaybackEvent{Kind: EventPlaybackEnded})
	if done != nil {
		close(done)
	}
	return err
}

// Wait blocks until the current playback ends. When loop playback is enabled,
// Wait blocks until Stop (use Watch for loop-counting instead).
// Wait returns immediately if no playback is active.
func (p *Player) Wait() {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Watch returns a channel that receives playback events:
//   - EventLoopCompleted: the pattern order wrapped around (when looping)
//   - EventPlaybackEnded: playback finished or was stopped
//
// The channel is buffered (cap 8); receive in a goroutine to avoid blocking
// the audio thread. Only the most recent Watch() channel receives events.
func (p *Player) Watch() <-chan PlaybackEvent {
	ch := make(chan PlaybackEvent, 8)
	p.eventChMu.Lock()
	p.eventCh = ch
	p.eventChMu.Unlock()
	return ch
}

// SetMasterVolume sets the runtime volume scalar. 1.0 is default.
func (p *Player) SetMasterVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = volume
	if p.source != nil {
		p.source.setVolume(volume)
	}
}

func (p *Player) MasterVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// PlaybackPosition returns the output position of the audio driver in
// frames. Returns 0 if not playing.
func (p *Player) PlaybackPosition() int64 {
	p.mu.Lock()
	a := p.audio
	p.mu.Unlock()
	if a == nil {
		return 0
	}
	return int64(a.Position().Seconds() * float64(p.sampleRate))
}
