package main

import (
	"math"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// clicker plays a short tone when a discrete dial lands on a new stop, and
// a low one when a press misses the indicator. A nil clicker is silent.
type clicker struct{}

func newClicker() (*clicker, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/20)); err != nil {
		return nil, err
	}
	return &clicker{}, nil
}

// stopFrequency rises a semitone per stop from A4.
func stopFrequency(index int) float64 {
	return 440 * math.Pow(2, float64(index)/12)
}

func (c *clicker) stop(index int) {
	c.tone(stopFrequency(index), 30*time.Millisecond)
}

func (c *clicker) miss() {
	c.tone(220, 80*time.Millisecond)
}

func (c *clicker) tone(freq float64, d time.Duration) {
	if c == nil {
		return
	}
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

func (c *clicker) close() {
	if c != nil {
		speaker.Close()
	}
}
