package wavfile

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
	"github.com/vsariola/sampler"
)

// Resample converts the frames of s to rate in place, scaling the loop and
// release points along. It is meant to be called while an instrument is
// loaded, before the sample is shared with any voice.
func Resample(s *sampler.Sample, rate int) error {
	if rate <= 0 {
		return fmt.Errorf("resample: invalid rate %d", rate)
	}
	if s.SampleRate == rate {
		return nil
	}
	config := &resampling.Config{
		InputRate:  float64(s.SampleRate),
		OutputRate: float64(rate),
		Channels:   s.Channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	}
	r, err := resampling.New(config)
	if err != nil {
		return fmt.Errorf("failed to create resampler: %w", err)
	}
	input := make([]float64, len(s.Data))
	for i, v := range s.Data {
		input[i] = float64(v)
	}
	output, err := r.Process(input)
	if err != nil {
		return fmt.Errorf("resample error: %w", err)
	}
	tail, err := r.Flush()
	if err != nil {
		return fmt.Errorf("resample flush error: %w", err)
	}
	output = append(output, tail...)

	ratio := float64(rate) / float64(s.SampleRate)
	frames := max(int(math.Round(float64(s.NumFrames())*ratio)), 1)
	data := make([]float32, frames*s.Channels)
	for i := range data {
		if i < len(output) {
			data[i] = float32(clampUnit(output[i]))
		}
	}
	s.Data = data
	s.SampleRate = rate
	s.Loop = scaleRegion(s.Loop, ratio, frames)
	s.Release = scaleRegion(s.Release, ratio, frames)
	return nil
}

func scaleRegion(r *sampler.Region, ratio float64, frames int) *sampler.Region {
	if r == nil {
		return nil
	}
	start := int(math.Round(float64(r.Start) * ratio))
	end := min(int(math.Round(float64(r.End)*ratio)), frames)
	if start >= end {
		return nil
	}
	return &sampler.Region{Start: start, End: end}
}
