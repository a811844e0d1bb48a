// Package audio plays short clicks when the puck hits something
package audio

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

// Params shape the click. A contact at FullSpeed or faster plays at Volume;
// slower ones are scaled down, and those under MinSpeed are ignored.
type Params struct {
	SampleRate int
	Frequency  float64
	Duration   time.Duration
	Volume     float64
	MinSpeed   float64
	FullSpeed  float64
}

func DefaultParams() Params {
	return Params{
		SampleRate: 44100,
		Frequency:  880,
		Duration:   30 * time.Millisecond,
		Volume:     0.5,
		MinSpeed:   0.2,
		FullSpeed:  5,
	}
}

// Clicker mixes clicks into a single stream. Without Start the stream is
// never played, which keeps it usable in headless runs and tests.
type Clicker struct {
	mu      sync.Mutex
	params  Params
	rate    beep.SampleRate
	mixer   *beep.Mixer
	playing bool
	clicks  int
	logger  *slog.Logger
}

func NewClicker(params Params, logger *slog.Logger) *Clicker {
	if logger == nil {
		logger = slog.Default()
	}
	if params.FullSpeed <= 0 {
		params.FullSpeed = DefaultParams().FullSpeed
	}
	return &Clicker{
		params: params,
		rate:   beep.SampleRate(params.SampleRate),
		mixer:  &beep.Mixer{},
		logger: logger,
	}
}

// Start opens the speaker and plays the mix on it
func (c *Clicker) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		return nil
	}
	if err := speaker.Init(c.rate, c.rate.N(time.Second/10)); err != nil {
		return fmt.Errorf("audio: speaker: %w", err)
	}
	speaker.Play(c.mixer)
	c.playing = true
	c.logger.Debug("speaker started", "sampleRate", c.params.SampleRate)
	return nil
}

// Click queues one click for a contact at speed (m/s) and reports whether it
// was loud enough to play
func (c *Clicker) Click(speed float64) bool {
	if speed < c.params.MinSpeed || c.params.Volume <= 0 {
		return false
	}
	volume := c.params.Volume * min(speed/c.params.FullSpeed, 1)

	tone, err := generators.SineTone(c.rate, c.params.Frequency)
	if err != nil {
		c.logger.Warn("click tone", "error", err, "frequency", c.params.Frequency)
		return false
	}
	samples := c.rate.N(c.params.Duration)
	click := newVolume(&decay{streamer: beep.Take(samples, tone), total: samples}, volume)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		speaker.Lock()
		c.mixer.Add(click)
		speaker.Unlock()
	} else {
		c.mixer.Add(click)
	}
	c.clicks++
	return true
}

// Clicks counts the clicks queued so far
func (c *Clicker) Clicks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clicks
}

// Stream renders the mix into samples when no speaker is attached
func (c *Clicker) Stream(samples [][2]float64) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mixer.Stream(samples)
}

// Pending returns the number of clicks still sounding
func (c *Clicker) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing {
		speaker.Lock()
		defer speaker.Unlock()
	}
	return c.mixer.Len()
}

// Close silences the mix and releases the speaker
func (c *Clicker) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		c.mixer.Clear()
		return
	}
	speaker.Clear()
	speaker.Close()
	c.mixer.Clear()
	c.playing = false
}

// decay fades a stream linearly to silence over total samples
type decay struct {
	streamer beep.Streamer
	position int
	total    int
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.streamer.Stream(samples)
	for i := range samples[:n] {
		gain := 1 - float64(d.position)/float64(d.total)
		samples[i][0] *= gain
		samples[i][1] *= gain
		d.position++
	}
	return n, ok
}

func (d *decay) Err() error { return d.streamer.Err() }

// newVolume maps a linear volume onto effects.Volume; zero is silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}
