// Package cue plays short audio chimes when the Moon's orbit engages or
// releases. Audio is optional: every method is a no-op until Initialize
// succeeds.
package cue

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

const (
	EngageHz  = 660.0
	ReleaseHz = 440.0

	chimeLength  = 220 * time.Millisecond
	chimeAttack  = 8 * time.Millisecond
	chimeRelease = 160 * time.Millisecond
)

type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
	logger      *slog.Logger
}

func New(volume float64, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{mixer: &beep.Mixer{}, volume: volume, logger: logger}
}

// Initialize opens the speaker. Failure leaves the player silent.
func (p *Player) Initialize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// MoonToggled is suitable as the choreographer's toggle callback.
func (p *Player) MoonToggled(active bool) {
	freq := ReleaseHz
	if active {
		freq = EngageHz
	}
	p.play(Chime(freq, p.volume))
	p.logger.Debug("moon cue", "active", active, "hz", freq)
}

func (p *Player) play(s beep.Streamer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Chime is a sine tone at freq with its octave, shaped by a short attack
// and an exponential tail.
func Chime(freq, volume float64) beep.Streamer {
	fund := &tone{freq: freq, n: sampleRate.N(chimeLength), attack: sampleRate.N(chimeAttack), release: sampleRate.N(chimeRelease)}
	over := &tone{freq: 2 * freq, n: sampleRate.N(chimeLength), attack: sampleRate.N(chimeAttack), release: sampleRate.N(chimeRelease) / 2}
	mixed := beep.Mix(gain(fund, 0.7), gain(over, 0.3))
	return gain(mixed, volume)
}

// gain scales s linearly; beep's Volume is logarithmic so 0 needs Silent.
func gain(s beep.Streamer, v float64) beep.Streamer {
	if v <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(v)}
}

type tone struct {
	freq    float64
	pos     int
	n       int
	attack  int
	release int
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	if t.pos >= t.n {
		return 0, false
	}
	for i := range samples {
		if t.pos >= t.n {
			return i, true
		}
		env := 1.0
		if t.pos < t.attack {
			env = float64(t.pos) / float64(t.attack)
		} else if tail := t.pos - (t.n - t.release); tail > 0 {
			env = math.Exp(-5 * float64(tail) / float64(t.release))
		}
		v := env * math.Sin(2*math.Pi*t.freq*float64(t.pos)/float64(sampleRate))
		samples[i][0] = v
		samples[i][1] = v
		t.pos++
	}
	return len(samples), true
}

func (t *tone) Err() error { return nil }
