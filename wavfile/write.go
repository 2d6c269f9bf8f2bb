package wavfile

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/vsariola/sampler"
)

// Write encodes the stereo buffer as an integer PCM WAV file. bitDepth is 16,
// 24 or 32. Values outside [-1, 1] are clipped.
func Write(w io.WriteSeeker, buffer sampler.AudioBuffer, sampleRate, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: bit depth %d", ErrUnsupportedFormat, bitDepth)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrUnsupportedFormat, sampleRate)
	}
	ib := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           make([]int, 2*len(buffer)),
		SourceBitDepth: bitDepth,
	}
	scale := float64(audio.IntMaxSignedValue(bitDepth))
	for i, f := range buffer {
		ib.Data[2*i] = int(math.Round(clampUnit(float64(f[0])) * scale))
		ib.Data[2*i+1] = int(math.Round(clampUnit(float64(f[1])) * scale))
	}
	enc := wav.NewEncoder(w, sampleRate, bitDepth, 2, 1)
	if err := enc.Write(ib); err != nil {
		return fmt.Errorf("could not encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("could not finish wav: %w", err)
	}
	return nil
}
