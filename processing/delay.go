package worker

import (
	"time"
	"unicode/utf8"
)

// Delay is the pluggable stand-in for the real CPU-bound transform. Simulate
// blocks the calling goroutine and returns the elapsed duration in seconds.
type Delay interface {
	Simulate(text string) float64
}

// PerCharDelay blocks for PerChar per input character, modelling work whose
// cost is proportional to the payload length.
type PerCharDelay struct {
	PerChar time.Duration
}

// Simulate sleeps once per character and returns the total in seconds.
// Characters are runes, not bytes, so multibyte input is not overcharged.
func (d PerCharDelay) Simulate(text string) float64 {
	dur := time.Duration(utf8.RuneCountInString(text)) * d.PerChar
	time.Sleep(dur)
	return dur.Seconds()
}

// NoDelay skips the simulated work entirely; tests use it so redelivery and
// storage behavior can be exercised without wall-clock cost.
type NoDelay struct{}

// Simulate returns immediately.
func (NoDelay) Simulate(string) float64 { return 0 }

var (
	_ Delay = PerCharDelay{}
	_ Delay = NoDelay{}
)
