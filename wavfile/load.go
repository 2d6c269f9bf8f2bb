// Package wavfile loads samples from WAV files and writes rendered audio back
// to WAV.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/vsariola/sampler"
)

var (
	ErrInvalidFile       = errors.New("not a valid WAV file")
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// DefaultRootNote is the root used when nothing else tells the pitch of a
// recording: C4.
const DefaultRootNote = 60

// LoadOptions controls how a WAV file becomes a Sample.
type LoadOptions struct {
	// SampleRate resamples the frames to this rate when non-zero.
	SampleRate int
	// Root overrides the root pitch found in the file.
	Root sampler.Hz
	// DefaultRoot is used when the file has no smpl chunk and its name has
	// no note name. Zero means DefaultRootNote.
	DefaultRoot sampler.Hz
	// TailRelease turns the frames after the sustain loop into the release
	// trail.
	TailRelease bool
	// IgnoreLoop drops the loop stored in the file.
	IgnoreLoop bool
	// Loop replaces the loop stored in the file. It is given in frames of
	// the file, before any resampling.
	Loop   *sampler.Region
	Logger *slog.Logger
}

// LoadFile opens the file at path and loads it with Load.
func LoadFile(path string, opts LoadOptions) (*sampler.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open sample: %w", err)
	}
	defer f.Close()
	return Load(f, path, opts)
}

// Load decodes an integer PCM WAV stream into a Sample. The root pitch comes
// from opts.Root, the unity note of the smpl chunk, a note name in name (see
// sampler.FindNote) or opts.DefaultRoot, in that order. The first forward
// loop of the smpl chunk becomes the sustain loop; its end point is
// inclusive in the file.
func Load(r io.ReadSeeker, name string, opts LoadOptions) (*sampler.Sample, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", name, ErrInvalidFile, err)
		}
		return nil, fmt.Errorf("%s: %w", name, ErrInvalidFile)
	}
	if dec.WavAudioFormat != 1 {
		return nil, fmt.Errorf("%s: %w: format tag %d, only integer PCM is supported", name, ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if dec.NumChans > 2 {
		return nil, fmt.Errorf("%s: %w: %d channels", name, ErrUnsupportedFormat, dec.NumChans)
	}
	dec.ReadMetadata()
	if err := dec.Err(); err != nil {
		return nil, fmt.Errorf("%s: could not read metadata: %w", name, err)
	}
	if err := dec.Rewind(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: could not decode PCM data: %w", name, err)
	}
	s := &sampler.Sample{
		Name:       name,
		Data:       toFloat32(buf),
		Channels:   buf.Format.NumChannels,
		SampleRate: buf.Format.SampleRate,
	}
	var info *wav.SamplerInfo
	if dec.Metadata != nil {
		info = dec.Metadata.SamplerInfo
	}
	s.Root = rootPitch(info, name, opts)
	switch {
	case opts.Loop != nil:
		loop := *opts.Loop
		s.Loop = &loop
	case !opts.IgnoreLoop:
		s.Loop = forwardLoop(info, s.NumFrames())
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.SampleRate > 0 && opts.SampleRate != s.SampleRate {
		from := s.SampleRate
		if err := Resample(s, opts.SampleRate); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		logger.Debug("resampled sample", "name", name, "from", from, "to", s.SampleRate)
	}
	if opts.TailRelease && s.Loop != nil && s.Loop.End < s.NumFrames() {
		s.Release = &sampler.Region{Start: s.Loop.End, End: s.NumFrames()}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("loaded sample",
		"name", name,
		"frames", s.NumFrames(),
		"channels", s.Channels,
		"rate", s.SampleRate,
		"root", float64(s.Root),
		"loop", s.Loop != nil,
		"release", s.Release != nil)
	return s, nil
}

func toFloat32(buf *audio.IntBuffer) []float32 {
	ret := make([]float32, len(buf.Data))
	if buf.SourceBitDepth == 8 {
		// 8-bit WAV is unsigned
		for i, v := range buf.Data {
			ret[i] = float32(v-128) / 128
		}
		return ret
	}
	scale := 1 / float32(audio.IntMaxSignedValue(buf.SourceBitDepth)+1)
	for i, v := range buf.Data {
		ret[i] = float32(v) * scale
	}
	return ret
}

func rootPitch(info *wav.SamplerInfo, name string, opts LoadOptions) sampler.Hz {
	if opts.Root > 0 {
		return opts.Root
	}
	if info != nil && info.MIDIUnityNote <= 127 {
		fraction := float64(info.MIDIPitchFraction) / (1 << 32)
		return sampler.NoteHz(float64(info.MIDIUnityNote) + fraction)
	}
	if note, ok := sampler.FindNote(name); ok {
		return sampler.NoteHz(float64(note))
	}
	if opts.DefaultRoot > 0 {
		return opts.DefaultRoot
	}
	return sampler.NoteHz(DefaultRootNote)
}

func forwardLoop(info *wav.SamplerInfo, frames int) *sampler.Region {
	if info == nil {
		return nil
	}
	for _, l := range info.Loops {
		if l == nil || l.Type != 0 {
			continue
		}
		start, end := int(l.Start), int(l.End)+1
		if start < 0 || start >= end || end > frames {
			continue
		}
		return &sampler.Region{Start: start, End: end}
	}
	return nil
}

// clampUnit limits v to [-1, 1], mapping NaN to 0.
func clampUnit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-1, math.Min(1, v))
}
