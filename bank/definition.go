// Package bank reads instrument definitions: a list of sample files and the
// zones mapping pitch and velocity to them, plus the engine settings.
package bank

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vsariola/sampler"
	"github.com/vsariola/sampler/engine"
	"github.com/vsariola/sampler/player"
	"gopkg.in/yaml.v3"
)

type (
	// Definition is the document form of an instrument, stored as .yml or
	// .json.
	Definition struct {
		Name          string    `yaml:"name,omitempty" json:"name,omitempty"`
		SampleRate    int       `yaml:"samplerate,omitempty" json:"samplerate,omitempty"`
		Polyphony     int       `yaml:"polyphony,omitempty" json:"polyphony,omitempty"`
		Steal         string    `yaml:"steal,omitempty" json:"steal,omitempty"`
		Mode          string    `yaml:"mode,omitempty" json:"mode,omitempty"`
		Interpolation string    `yaml:"interpolation,omitempty" json:"interpolation,omitempty"`
		Attack        Duration  `yaml:"attack,omitempty" json:"attack,omitempty"`
		Release       *Duration `yaml:"release,omitempty" json:"release,omitempty"`
		StealFade     *Duration `yaml:"stealfade,omitempty" json:"stealfade,omitempty"`
		Detune        float64   `yaml:"detune,omitempty" json:"detune,omitempty"` // cents
		VelocityCurve *float32  `yaml:"velocitycurve,omitempty" json:"velocitycurve,omitempty"`
		// Resample converts every sample to SampleRate when loading, instead
		// of converting the rate while playing.
		Resample bool        `yaml:"resample,omitempty" json:"resample,omitempty"`
		Samples  []SampleDef `yaml:"samples" json:"samples"`
		Zones    []ZoneDef   `yaml:"zones" json:"zones"`
	}

	SampleDef struct {
		Name string `yaml:"name" json:"name"`
		File string `yaml:"file" json:"file"`
		// Root overrides the root pitch found in the file.
		Root Pitch   `yaml:"root,omitempty" json:"root,omitempty"`
		Trim float32 `yaml:"trim,omitempty" json:"trim,omitempty"` // dB
		// Loop overrides the loop found in the file, in frames of the file.
		Loop *sampler.Region `yaml:"loop,omitempty" json:"loop,omitempty"`
		// Release is "tail" to play the frames after the loop on note-off,
		// or "none".
		Release string `yaml:"release,omitempty" json:"release,omitempty"`
	}

	ZoneDef struct {
		Sample string `yaml:"sample" json:"sample"`
		// Pitch defaults to every pitch.
		Pitch *PitchRange `yaml:"pitch,omitempty" json:"pitch,omitempty"`
		// Velocity defaults to the full range [0, 1].
		Velocity *sampler.Range[sampler.Velocity] `yaml:"velocity,omitempty" json:"velocity,omitempty"`
	}

	PitchRange struct {
		Min Pitch `yaml:"min" json:"min"`
		Max Pitch `yaml:"max" json:"max"`
	}

	// Pitch is a frequency in Hz that can be written as a number or as a
	// note name such as "c4" or "F#3".
	Pitch sampler.Hz

	// Duration is written like "120ms"; a bare number is in seconds.
	Duration time.Duration
)

const (
	ReleaseNone = "none"
	ReleaseTail = "tail"
)

var (
	ErrUnknownSample   = errors.New("unknown sample")
	ErrDuplicateSample = errors.New("duplicate sample name")
	ErrInvalid         = errors.New("invalid instrument definition")
)

// Decode parses a definition from JSON or, failing that, YAML.
func Decode(data []byte) (*Definition, error) {
	var def Definition
	if errJSON := json.Unmarshal(data, &def); errJSON != nil {
		def = Definition{}
		if errYaml := yaml.Unmarshal(data, &def); errYaml != nil {
			return nil, fmt.Errorf("the instrument could not be parsed as .json (%v) or .yml (%w)", errJSON, errYaml)
		}
	}
	return &def, nil
}

// Encode returns the definition as YAML.
func (d *Definition) Encode() ([]byte, error) {
	return yaml.Marshal(d)
}

func (d *Definition) Copy() Definition {
	ret := *d
	if d.Release != nil {
		r := *d.Release
		ret.Release = &r
	}
	if d.StealFade != nil {
		f := *d.StealFade
		ret.StealFade = &f
	}
	if d.VelocityCurve != nil {
		c := *d.VelocityCurve
		ret.VelocityCurve = &c
	}
	ret.Samples = make([]SampleDef, len(d.Samples))
	for i, s := range d.Samples {
		if s.Loop != nil {
			l := *s.Loop
			s.Loop = &l
		}
		ret.Samples[i] = s
	}
	ret.Zones = make([]ZoneDef, len(d.Zones))
	for i, z := range d.Zones {
		if z.Pitch != nil {
			p := *z.Pitch
			z.Pitch = &p
		}
		if z.Velocity != nil {
			v := *z.Velocity
			z.Velocity = &v
		}
		ret.Zones[i] = z
	}
	return ret
}

// Config returns the engine settings of the definition; unset fields take
// the values of engine.DefaultConfig.
func (d *Definition) Config() (engine.Config, error) {
	c := engine.DefaultConfig()
	if d.SampleRate != 0 {
		c.SampleRate = d.SampleRate
	}
	if d.Polyphony != 0 {
		c.Polyphony = d.Polyphony
	}
	var err error
	if d.Steal != "" {
		if c.Steal, err = engine.ParseStealPolicy(d.Steal); err != nil {
			return c, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	if d.Interpolation != "" {
		if c.Interpolation, err = engine.ParseInterpolation(d.Interpolation); err != nil {
			return c, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
	}
	c.Attack = time.Duration(d.Attack)
	if d.Release != nil {
		c.Release = time.Duration(*d.Release)
	}
	if d.StealFade != nil {
		c.StealFade = time.Duration(*d.StealFade)
	}
	if d.VelocityCurve != nil {
		c.VelocityCurve = *d.VelocityCurve
	}
	c.Detune = d.Detune
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (d *Definition) PlayMode() (player.Mode, error) {
	m, err := player.ParseMode(d.Mode)
	if err != nil {
		return m, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return m, nil
}

// Validate checks the definition without loading any sample: names are
// unique, zones refer to known samples, and the settings parse.
func (d *Definition) Validate() error {
	if _, err := d.Config(); err != nil {
		return err
	}
	if _, err := d.PlayMode(); err != nil {
		return err
	}
	names := make(map[string]bool, len(d.Samples))
	for i, s := range d.Samples {
		if s.Name == "" {
			return fmt.Errorf("%w: sample %d has no name", ErrInvalid, i)
		}
		if names[s.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateSample, s.Name)
		}
		names[s.Name] = true
		if s.File == "" {
			return fmt.Errorf("%w: sample %q has no file", ErrInvalid, s.Name)
		}
		if s.Release != "" && s.Release != ReleaseNone && s.Release != ReleaseTail {
			return fmt.Errorf("%w: sample %q release %q, want %q or %q", ErrInvalid, s.Name, s.Release, ReleaseTail, ReleaseNone)
		}
		if s.Root < 0 {
			return fmt.Errorf("%w: sample %q root %v", ErrInvalid, s.Name, s.Root)
		}
		if s.Loop != nil && (s.Loop.Start < 0 || s.Loop.Start >= s.Loop.End) {
			return fmt.Errorf("%w: sample %q loop [%d, %d)", sampler.ErrInvalidLoop, s.Name, s.Loop.Start, s.Loop.End)
		}
	}
	for i, z := range d.Zones {
		if !names[z.Sample] {
			return fmt.Errorf("%w: %q in zone %d", ErrUnknownSample, z.Sample, i)
		}
		if zone := z.zone(nil); !zone.Pitch.Valid() || !zone.Velocity.Valid() {
			return fmt.Errorf("%w: zone %d", sampler.ErrInvalidRange, i)
		}
	}
	return nil
}

func (z *ZoneDef) zone(s *sampler.Sample) sampler.Zone {
	ret := sampler.Zone{Pitch: sampler.AllPitches, Velocity: sampler.AllVelocities, Sample: s}
	if z.Pitch != nil {
		ret.Pitch = sampler.Range[sampler.Hz]{Min: sampler.Hz(z.Pitch.Min), Max: sampler.Hz(z.Pitch.Max)}
	}
	if z.Velocity != nil {
		ret.Velocity = *z.Velocity
	}
	return ret
}

func (p *Pitch) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: pitch must be a note name or a number", value.Line)
	}
	v, err := parsePitch(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*p = v
	return nil
}

func (p *Pitch) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := parsePitch(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// parsePitch also accepts 0, so that a range can start from the bottom.
func parsePitch(s string) (Pitch, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && f == 0 {
		return 0, nil
	}
	h, err := sampler.ParsePitch(s)
	return Pitch(h), err
}

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (any, error) { return d.String(), nil }

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	v, err := parseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = v
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := parseDuration(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func parseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return Duration(math.Round(f * float64(time.Second))), nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	return Duration(v), nil
}
