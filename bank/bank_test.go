package bank_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vsariola/sampler"
	"github.com/vsariola/sampler/bank"
	"github.com/vsariola/sampler/engine"
	"github.com/vsariola/sampler/player"
	"github.com/vsariola/sampler/wavfile"
)

const pianoYAML = `
name: piano
samplerate: 1000
polyphony: 4
steal: quietest
mode: legato
interpolation: hermite
attack: 2ms
release: 0.12
detune: -10
velocitycurve: 0.5
samples:
  - name: low
    file: low.wav
    root: c3
    trim: -6
    release: tail
  - name: high
    file: sub/high.wav
    loop: {start: 10, end: 20}
zones:
  - sample: low
    pitch: {min: 0, max: b3}
    velocity: {min: 0, max: 0.5}
  - sample: high
    pitch: {min: c4, max: 2000}
  - sample: low
`

type loadCall struct {
	file string
	opts wavfile.LoadOptions
}

func fakeLoader(calls *[]loadCall) bank.SampleLoader {
	return func(file string, opts wavfile.LoadOptions) (*sampler.Sample, error) {
		*calls = append(*calls, loadCall{file, opts})
		s := &sampler.Sample{Data: make([]float32, 100), Channels: 1, SampleRate: 1000, Root: 440}
		if opts.Root > 0 {
			s.Root = opts.Root
		}
		if opts.Loop != nil {
			loop := *opts.Loop
			s.Loop = &loop
		}
		return s, nil
	}
}

func TestDecodeYAML(t *testing.T) {
	def, err := bank.Decode([]byte(pianoYAML))
	require.NoError(t, err)
	require.NoError(t, def.Validate())
	require.Equal(t, "piano", def.Name)
	require.Equal(t, bank.Duration(2*time.Millisecond), def.Attack)
	require.Equal(t, bank.Duration(120*time.Millisecond), *def.Release)
	require.InDelta(t, float64(sampler.NoteHz(48)), float64(def.Samples[0].Root), 1e-9)
	require.InDelta(t, float64(sampler.NoteHz(59)), float64(def.Zones[0].Pitch.Max), 1e-9)
	require.Equal(t, bank.Pitch(2000), def.Zones[1].Pitch.Max)
	require.Nil(t, def.Zones[2].Pitch)

	c, err := def.Config()
	require.NoError(t, err)
	require.Equal(t, 1000, c.SampleRate)
	require.Equal(t, 4, c.Polyphony)
	require.Equal(t, engine.StealQuietest, c.Steal)
	require.Equal(t, engine.Hermite, c.Interpolation)
	require.Equal(t, engine.DefaultConfig().StealFade, c.StealFade)
	require.Equal(t, float32(0.5), c.VelocityCurve)
	mode, err := def.PlayMode()
	require.NoError(t, err)
	require.Equal(t, player.Legato, mode)
}

func TestDecodeJSON(t *testing.T) {
	def, err := bank.Decode([]byte(`{"name": "x", "attack": "5ms", "release": 0.5,
		"samples": [{"name": "a", "file": "a.wav", "root": "a4"}],
		"zones": [{"sample": "a", "pitch": {"min": 100, "max": "c5"}}]}`))
	require.NoError(t, err)
	require.NoError(t, def.Validate())
	require.Equal(t, bank.Duration(5*time.Millisecond), def.Attack)
	require.Equal(t, bank.Duration(500*time.Millisecond), *def.Release)
	require.Equal(t, bank.Pitch(440), def.Samples[0].Root)
	require.Equal(t, bank.Pitch(100), def.Zones[0].Pitch.Min)
}

func TestDecodeErrors(t *testing.T) {
	_, err := bank.Decode([]byte("samples: [unterminated"))
	require.Error(t, err)
	_, err = bank.Decode([]byte("zones:\n  - sample: a\n    pitch: {min: h4, max: c5}\n"))
	require.Error(t, err)
	_, err = bank.Decode([]byte("attack: soon\n"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() bank.Definition {
		def, err := bank.Decode([]byte(pianoYAML))
		require.NoError(t, err)
		return *def
	}
	cases := []struct {
		name   string
		modify func(*bank.Definition)
		want   error
	}{
		{"unknown sample", func(d *bank.Definition) { d.Zones[1].Sample = "mid" }, bank.ErrUnknownSample},
		{"duplicate sample", func(d *bank.Definition) { d.Samples[1].Name = "low" }, bank.ErrDuplicateSample},
		{"bad release", func(d *bank.Definition) { d.Samples[0].Release = "long" }, bank.ErrInvalid},
		{"bad steal", func(d *bank.Definition) { d.Steal = "random" }, bank.ErrInvalid},
		{"bad mode", func(d *bank.Definition) { d.Mode = "chord" }, bank.ErrInvalid},
		{"polyphony", func(d *bank.Definition) { d.Polyphony = -1 }, engine.ErrInvalidConfig},
		{"inverted pitch", func(d *bank.Definition) { d.Zones[1].Pitch.Min = 3000 }, sampler.ErrInvalidRange},
		{"loop", func(d *bank.Definition) { d.Samples[1].Loop.End = 5 }, sampler.ErrInvalidLoop},
		{"no file", func(d *bank.Definition) { d.Samples[0].File = "" }, bank.ErrInvalid},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			def := valid()
			def = def.Copy()
			c.modify(&def)
			err := def.Validate()
			require.True(t, errors.Is(err, c.want), "got %v", err)
		})
	}
}

func TestCopyIsDeep(t *testing.T) {
	def, err := bank.Decode([]byte(pianoYAML))
	require.NoError(t, err)
	c := def.Copy()
	c.Samples[1].Loop.End = 99
	c.Zones[0].Pitch.Max = 1
	c.Zones[0].Velocity.Max = 0.1
	*c.Release = 0
	require.Equal(t, 20, def.Samples[1].Loop.End)
	require.NotEqual(t, bank.Pitch(1), def.Zones[0].Pitch.Max)
	require.Equal(t, sampler.Velocity(0.5), def.Zones[0].Velocity.Max)
	require.NotZero(t, *def.Release)
}

func TestEncodeRoundTrip(t *testing.T) {
	def, err := bank.Decode([]byte(pianoYAML))
	require.NoError(t, err)
	data, err := def.Encode()
	require.NoError(t, err)
	again, err := bank.Decode(data)
	require.NoError(t, err)
	require.Equal(t, def, again)
}

func TestBuild(t *testing.T) {
	def, err := bank.Decode([]byte(pianoYAML))
	require.NoError(t, err)
	var calls []loadCall
	b, err := bank.Build(def, fakeLoader(&calls), nil)
	require.NoError(t, err)
	require.Len(t, calls, 2, "each sample is loaded once")
	require.Equal(t, "sub/high.wav", calls[1].file)
	require.True(t, calls[0].opts.TailRelease)
	require.False(t, calls[1].opts.TailRelease)
	require.Zero(t, calls[0].opts.SampleRate)

	require.Equal(t, "piano", b.Name)
	require.Equal(t, player.Legato, b.Mode)
	require.Equal(t, -10.0, b.Config.Detune)
	require.Len(t, b.Samples, 2)
	require.Equal(t, "low", b.Samples[0].Name)
	require.Equal(t, float32(-6), b.Samples[0].Trim)
	require.Equal(t, 3, b.Map.Len())

	low, high := b.Samples[0], b.Samples[1]
	zones := b.Map.Zones()
	require.Same(t, low, zones[0].Sample)
	require.Same(t, low, zones[2].Sample, "zones share the sample")

	s, ok := b.Map.Resolve(sampler.NoteHz(50), 0.4)
	require.True(t, ok)
	require.Same(t, low, s)
	s, ok = b.Map.Resolve(sampler.NoteHz(69), 1)
	require.True(t, ok)
	require.Same(t, high, s)
	s, ok = b.Map.Resolve(sampler.NoteHz(50), 0.9)
	require.True(t, ok)
	require.Same(t, low, s, "falls through to the catch-all zone")

	synth, err := b.NewSampler()
	require.NoError(t, err)
	require.Equal(t, 4, synth.Config().Polyphony)
}

func TestBuildResamples(t *testing.T) {
	def, err := bank.Decode([]byte(pianoYAML))
	require.NoError(t, err)
	def.Resample = true
	var calls []loadCall
	_, err = bank.Build(def, fakeLoader(&calls), nil)
	require.NoError(t, err)
	require.Equal(t, 1000, calls[0].opts.SampleRate)
}

func TestBuildLoaderError(t *testing.T) {
	def, err := bank.Decode([]byte(pianoYAML))
	require.NoError(t, err)
	failing := func(file string, opts wavfile.LoadOptions) (*sampler.Sample, error) {
		return nil, os.ErrNotExist
	}
	_, err = bank.Build(def, failing, nil)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	buf := make(sampler.AudioBuffer, 100)
	for i := range buf {
		buf[i] = [2]float32{0.5, 0.5}
	}
	f, err := os.Create(filepath.Join(dir, "tone_a4.wav"))
	require.NoError(t, err)
	require.NoError(t, wavfile.Write(f, buf, 1000, 16))
	require.NoError(t, f.Close())
	doc := "samplerate: 1000\nsamples:\n  - name: tone\n    file: tone_a4.wav\nzones:\n  - sample: tone\n"
	path := filepath.Join(dir, "organ.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	b, err := bank.Open(path, nil)
	require.NoError(t, err)
	require.Equal(t, "organ", b.Name)
	require.InDelta(t, 440, float64(b.Samples[0].Root), 1e-9)

	p, synth, err := b.NewPlayer()
	require.NoError(t, err)
	p.Handle(player.MIDIEvent{Kind: player.NoteOn, Note: 69, Value: 127})
	out := sampler.Play(synth, 10)
	require.InDelta(t, 0.5, out[5][0], 1e-3)

	_, err = bank.Open(filepath.Join(dir, "missing.yml"), nil)
	require.True(t, errors.Is(err, os.ErrNotExist))
}
