package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

type (
	// StealPolicy selects the voice to reclaim when every slot is in use.
	StealPolicy int

	// Interpolation selects the kernel used to read between source frames.
	Interpolation int

	// Config holds the construction time settings of a Sampler.
	Config struct {
		SampleRate    int           // output rate in Hz
		Polyphony     int           // number of voice slots
		Steal         StealPolicy   // victim selection when all slots are live
		Interpolation Interpolation // kernel for fractional play positions
		Attack        time.Duration // linear fade in of every new voice
		Release       time.Duration // fade out of released voices that have no release trail
		StealFade     time.Duration // fade out of stolen voices
		// VelocityCurve scales how much velocity affects the voice gain: 0
		// ignores velocity, 1 makes the gain equal to the velocity.
		VelocityCurve float32
		// Detune shifts the playback pitch of every voice by cents. Zones are
		// still resolved with the requested pitch.
		Detune float64
		// MaxBlock is the number of frames mixed at a time. Buffers longer
		// than this are rendered in several blocks.
		MaxBlock int
	}
)

const (
	// StealOldest prefers voices that are already releasing, then the voice
	// triggered first. Ties go to the lowest slot.
	StealOldest StealPolicy = iota
	// StealQuietest takes the voice with the lowest current amplitude. Ties
	// go to the voice triggered first.
	StealQuietest
)

const (
	// Linear interpolates between the two neighbouring frames.
	Linear Interpolation = iota
	// Hermite uses a four point, third order Hermite (Catmull-Rom) kernel.
	Hermite
)

const MaxPolyphony = 1024

var ErrInvalidConfig = errors.New("invalid engine config")

// DefaultConfig returns a config for 44.1 kHz output with 32 voices.
func DefaultConfig() Config {
	return Config{
		SampleRate:    44100,
		Polyphony:     32,
		Steal:         StealOldest,
		Interpolation: Linear,
		Release:       50 * time.Millisecond,
		StealFade:     5 * time.Millisecond,
		VelocityCurve: 1,
		MaxBlock:      512,
	}
}

func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Polyphony < 1 || c.Polyphony > MaxPolyphony {
		return fmt.Errorf("%w: polyphony %d not in [1, %d]", ErrInvalidConfig, c.Polyphony, MaxPolyphony)
	}
	if c.Steal != StealOldest && c.Steal != StealQuietest {
		return fmt.Errorf("%w: steal policy %d", ErrInvalidConfig, c.Steal)
	}
	if c.Interpolation != Linear && c.Interpolation != Hermite {
		return fmt.Errorf("%w: interpolation %d", ErrInvalidConfig, c.Interpolation)
	}
	if c.Attack < 0 || c.Release < 0 || c.StealFade < 0 {
		return fmt.Errorf("%w: negative envelope time", ErrInvalidConfig)
	}
	if c.VelocityCurve < 0 || c.VelocityCurve > 1 || math.IsNaN(float64(c.VelocityCurve)) {
		return fmt.Errorf("%w: velocity curve %v not in [0, 1]", ErrInvalidConfig, c.VelocityCurve)
	}
	if math.IsNaN(c.Detune) || math.IsInf(c.Detune, 0) {
		return fmt.Errorf("%w: detune %v", ErrInvalidConfig, c.Detune)
	}
	if c.MaxBlock < 1 {
		return fmt.Errorf("%w: max block %d", ErrInvalidConfig, c.MaxBlock)
	}
	return nil
}

// frames converts a duration to output frames, rounding to nearest.
func (c *Config) frames(d time.Duration) int {
	return int(math.Round(d.Seconds() * float64(c.SampleRate)))
}

func (p StealPolicy) String() string {
	switch p {
	case StealOldest:
		return "oldest"
	case StealQuietest:
		return "quietest"
	}
	return fmt.Sprintf("steal(%d)", int(p))
}

// ParseStealPolicy accepts "oldest" or "quietest"; the empty string is
// StealOldest.
func ParseStealPolicy(s string) (StealPolicy, error) {
	switch strings.ToLower(s) {
	case "", "oldest":
		return StealOldest, nil
	case "quietest":
		return StealQuietest, nil
	}
	return 0, fmt.Errorf("%w: unknown steal policy %q", ErrInvalidConfig, s)
}

func (i Interpolation) String() string {
	switch i {
	case Linear:
		return "linear"
	case Hermite:
		return "hermite"
	}
	return fmt.Sprintf("interpolation(%d)", int(i))
}

// ParseInterpolation accepts "linear" or "hermite"; the empty string is
// Linear.
func ParseInterpolation(s string) (Interpolation, error) {
	switch strings.ToLower(s) {
	case "", "linear":
		return Linear, nil
	case "hermite", "cubic":
		return Hermite, nil
	}
	return 0, fmt.Errorf("%w: unknown interpolation %q", ErrInvalidConfig, s)
}
