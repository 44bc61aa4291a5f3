package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/cbegin/efflux-go"
	"github.com/cbegin/efflux-go/internal/song"
)

func main() {
	var (
		sampleRate = flag.Int("sample-rate", 48000, "output sample rate")
		loop       = flag.Bool("loop", false, "loop playback; use with -loops to count then stop")
		loops      = flag.Int("loops", 3, "when -loop, stop after N loops (0 = loop forever)")
		songPath   = flag.String("file", "", "path to a song file (JSON); plays a demo when empty")
		volume     = flag.Float64("volume", 1.0, "master volume scalar")
		outPath    = flag.String("out", "", "render to this WAV file instead of the audio device")
		seconds    = flag.Float64("seconds", 60, "with -out, maximum seconds to render")
		watch      = flag.Bool("watch", false, "restart playback whenever -file changes")
	)
	flag.Parse()

	if *watch && strings.TrimSpace(*songPath) == "" {
		log.Fatal("-watch requires -file")
	}
	s, err := resolveSong(*songPath)
	if err != nil {
		log.Fatal(describe(err))
	}

	if *outPath != "" {
		if err := render(s, *outPath, *sampleRate, *seconds, *loop, *volume); err != nil {
			log.Fatal(describe(err))
		}
		return
	}

	pl, err := efflux.NewPlayer(*sampleRate, efflux.WithLoopPlayback(*loop), efflux.WithMasterVolume(*volume))
	if err != nil {
		log.Fatal(describe(err))
	}
	ch := pl.Watch()
	if *songPath != "" {
		err = pl.PlayFile(*songPath)
	} else {
		err = pl.Play(s)
	}
	if err != nil {
		log.Fatal(describe(err))
	}

	if *watch {
		w, err := newSongWatcher(*songPath)
		if err != nil {
			log.Fatal(describe(err))
		}
		defer w.Close()
		go w.Run(func() {
			if err := pl.PlayFile(*songPath); err != nil {
				log.Printf("reload %s: %s", *songPath, describe(err))
				return
			}
			log.Printf("reloaded %s", *songPath)
		})
	}

	loopCount := 0
	for event := range ch {
		switch event.Kind {
		case efflux.EventPlaybackEnded:
			if *watch {
				// keep running so the next save plays again
				continue
			}
			fmt.Println("playback completed")
			pl.Wait()
			return
		case efflux.EventLoopCompleted:
			loopCount++
			fmt.Printf("loop %d completed\n", loopCount)
			if *loop && *loops > 0 && loopCount >= *loops {
				_ = pl.Stop()
			}
		}
	}
}

func resolveSong(path string) (*efflux.Song, error) {
	if strings.TrimSpace(path) != "" {
		return efflux.LoadSong(path)
	}
	return demoSong(), nil
}

// demoSong is a one bar arpeggio with a filter sweep on the second channel.
func demoSong() *efflux.Song {
	s := efflux.NewSong("demo")
	ch := s.Patterns[0].Channels
	for i, n := range []string{"C", "E", "G", "B"} {
		ch[0][i*4] = &song.Event{Action: song.ActionNoteOn, Note: n, Octave: 4}
	}
	ch[0][15] = &song.Event{Action: song.ActionNoteOff}
	ch[1][0] = &song.Event{Action: song.ActionNoteOn, Instrument: 1, Note: "C", Octave: 2,
		MP: &song.Param{Module: "filterEnabled", Value: 100}}
	ch[1][1] = &song.Event{Instrument: 1, MP: &song.Param{Module: "filterFreq", Value: 2}}
	ch[1][8] = &song.Event{Instrument: 1, MP: &song.Param{Module: "filterFreq", Value: 10, Glide: true}}
	ch[1][12] = &song.Event{Instrument: 1, MP: &song.Param{Module: "delayEnabled", Value: 100}}
	return s
}

func render(s *efflux.Song, path string, sampleRate int, seconds float64, loop bool, volume float64) error {
	samples, err := efflux.RenderSong(s, sampleRate, seconds,
		efflux.WithLoopPlayback(loop), efflux.WithMasterVolume(volume))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := efflux.WriteWAV(f, samples, sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%.2fs)\n", path, float64(len(samples)/2)/float64(sampleRate))
	return nil
}

// describe prefers the user-facing message attached to err.
func describe(err error) string {
	msg := fmsg.GetIssue(err)
	if msg == "" {
		msg = err.Error()
	}
	if ftag.Get(err) == ftag.NotFound {
		return "not found: " + msg
	}
	return msg
}
