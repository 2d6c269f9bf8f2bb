package sampler

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidSample = errors.New("invalid sample")
	ErrInvalidLoop   = errors.New("invalid loop region")
)

type (
	// Region is a half-open frame range [Start, End).
	Region struct {
		Start int `yaml:"start" json:"start"`
		End   int `yaml:"end" json:"end"`
	}

	// Sample is one recorded clip. Data holds the frames, Channels values per
	// frame interleaved. Root is the pitch the clip sounds at when played at
	// its native SampleRate. A Sample must not be modified once it has been
	// added to a Map; voices read it without synchronization.
	Sample struct {
		Name       string
		Data       []float32
		Channels   int
		SampleRate int
		Root       Hz
		// Trim adjusts the level of the sample, in decibels.
		Trim float32
		// Loop is the sustain loop, repeated until the note is released.
		Loop *Region
		// Release is played once after note-off. Without it, a released voice
		// fades out.
		Release *Region
	}
)

func (r Region) Len() int { return r.End - r.Start }

func (r Region) within(frames int) bool {
	return r.Start >= 0 && r.Start < r.End && r.End <= frames
}

// NumFrames returns the number of frames in the sample.
func (s *Sample) NumFrames() int {
	if s.Channels <= 0 {
		return 0
	}
	return len(s.Data) / s.Channels
}

// Duration returns the playing time of the sample at its native rate.
func (s *Sample) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(s.NumFrames()) * time.Second / time.Duration(s.SampleRate)
}

// Gain returns the linear gain corresponding to Trim.
func (s *Sample) Gain() float32 {
	if s.Trim == 0 {
		return 1
	}
	return float32(math.Pow(10, float64(s.Trim)/20))
}

// Frame returns the left and right values of frame i; mono samples return the
// same value twice. Out of range indices read as silence.
func (s *Sample) Frame(i int) (l, r float32) {
	if i < 0 || i >= s.NumFrames() {
		return 0, 0
	}
	if s.Channels == 1 {
		v := s.Data[i]
		return v, v
	}
	j := i * s.Channels
	return s.Data[j], s.Data[j+1]
}

// Validate checks that the sample can be played. Loop and release regions
// must lie inside the buffer.
func (s *Sample) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil sample", ErrInvalidSample)
	}
	if s.Channels != 1 && s.Channels != 2 {
		return fmt.Errorf("%w %q: %d channels, want 1 or 2", ErrInvalidSample, s.Name, s.Channels)
	}
	if len(s.Data)%s.Channels != 0 {
		return fmt.Errorf("%w %q: %d values is not a whole number of frames", ErrInvalidSample, s.Name, len(s.Data))
	}
	if s.NumFrames() == 0 {
		return fmt.Errorf("%w %q: no frames", ErrInvalidSample, s.Name)
	}
	if s.SampleRate <= 0 {
		return fmt.Errorf("%w %q: sample rate %d", ErrInvalidSample, s.Name, s.SampleRate)
	}
	if !(s.Root > 0) || math.IsInf(float64(s.Root), 0) {
		return fmt.Errorf("%w %q: root pitch %v", ErrInvalidSample, s.Name, s.Root)
	}
	if math.IsNaN(float64(s.Trim)) || math.IsInf(float64(s.Trim), 0) {
		return fmt.Errorf("%w %q: trim %v", ErrInvalidSample, s.Name, s.Trim)
	}
	n := s.NumFrames()
	if s.Loop != nil && !s.Loop.within(n) {
		return fmt.Errorf("%w: sample %q loop [%d, %d) outside %d frames", ErrInvalidLoop, s.Name, s.Loop.Start, s.Loop.End, n)
	}
	if s.Release != nil && !s.Release.within(n) {
		return fmt.Errorf("%w: sample %q release [%d, %d) outside %d frames", ErrInvalidLoop, s.Name, s.Release.Start, s.Release.End, n)
	}
	return nil
}
