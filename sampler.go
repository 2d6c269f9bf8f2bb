package sampler

import (
	"cmp"
	"fmt"
)

type (
	// Hz is a pitch expressed as a frequency.
	Hz float64

	// Velocity is a normalized note velocity, 0 being the softest and 1 the
	// hardest strike.
	Velocity float32

	// Range is an inclusive interval [Min, Max].
	Range[T cmp.Ordered] struct {
		Min T `yaml:"min" json:"min"`
		Max T `yaml:"max" json:"max"`
	}

	// VoiceID identifies a voice started by a Synth. Slot is the index of the
	// voice slot and Gen is bumped every time the slot is reused, so an ID of
	// a stolen or finished voice never addresses the voice that replaced it.
	// The zero VoiceID is never issued.
	VoiceID struct {
		Slot int
		Gen  uint32
	}

	// Phase is the playback phase of a voice.
	Phase int
)

const (
	Attacking Phase = iota
	Sustaining
	Releasing
	Finished
)

func (r Range[T]) Contains(v T) bool { return r.Min <= v && v <= r.Max }

// Valid reports whether the bounds are ordered. A NaN bound is never valid.
func (r Range[T]) Valid() bool { return r.Min <= r.Max }

func (id VoiceID) Valid() bool { return id.Gen != 0 }

func (id VoiceID) String() string {
	return fmt.Sprintf("%d.%d", id.Slot, id.Gen)
}

func (p Phase) String() string {
	switch p {
	case Attacking:
		return "attacking"
	case Sustaining:
		return "sustaining"
	case Releasing:
		return "releasing"
	case Finished:
		return "finished"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}
