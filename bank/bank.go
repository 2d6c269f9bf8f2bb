package bank

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vsariola/sampler"
	"github.com/vsariola/sampler/engine"
	"github.com/vsariola/sampler/player"
	"github.com/vsariola/sampler/wavfile"
)

type (
	// Bank is a loaded instrument, ready to create samplers.
	Bank struct {
		Name    string
		Map     *sampler.Map
		Config  engine.Config
		Mode    player.Mode
		Samples []*sampler.Sample // in the order of the definition
	}

	// SampleLoader loads the file of a sample definition.
	SampleLoader func(file string, opts wavfile.LoadOptions) (*sampler.Sample, error)
)

// Build loads every sample of def once, so zones referring to the same sample
// share it, and builds the zone map in definition order.
func Build(def *Definition, load SampleLoader, logger *slog.Logger) (*Bank, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}
	config, err := def.Config()
	if err != nil {
		return nil, err
	}
	mode, err := def.PlayMode()
	if err != nil {
		return nil, err
	}
	b := &Bank{Name: def.Name, Config: config, Mode: mode}
	byName := make(map[string]*sampler.Sample, len(def.Samples))
	for _, sd := range def.Samples {
		opts := wavfile.LoadOptions{
			Root:        sampler.Hz(sd.Root),
			Loop:        sd.Loop,
			TailRelease: sd.Release == ReleaseTail,
			Logger:      logger,
		}
		if def.Resample {
			opts.SampleRate = config.SampleRate
		}
		s, err := load(sd.File, opts)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", sd.Name, err)
		}
		s.Name = sd.Name
		s.Trim = sd.Trim
		if err := s.Validate(); err != nil {
			return nil, err
		}
		byName[sd.Name] = s
		b.Samples = append(b.Samples, s)
	}
	zones := make([]sampler.Zone, len(def.Zones))
	for i, z := range def.Zones {
		zones[i] = z.zone(byName[z.Sample])
	}
	if b.Map, err = sampler.NewMap(zones...); err != nil {
		return nil, err
	}
	logger.Info("instrument loaded", "name", b.Name, "samples", len(b.Samples), "zones", b.Map.Len(), "rate", config.SampleRate)
	return b, nil
}

// Open reads the definition at path and loads its samples with
// wavfile.LoadFile. Relative sample paths are relative to the definition.
func Open(path string, logger *slog.Logger) (*Bank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %w", path, err)
	}
	def, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	if def.Name == "" {
		base := filepath.Base(path)
		def.Name = base[:len(base)-len(filepath.Ext(base))]
	}
	return Build(def, FileLoader(filepath.Dir(path)), logger)
}

// FileLoader loads WAV files, resolving relative paths against dir.
func FileLoader(dir string) SampleLoader {
	return func(file string, opts wavfile.LoadOptions) (*sampler.Sample, error) {
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		return wavfile.LoadFile(file, opts)
	}
}

// NewSampler returns a new engine playing the bank.
func (b *Bank) NewSampler() (*engine.Sampler, error) {
	return engine.New(b.Map, b.Config)
}

// NewPlayer returns a sampler wrapped in a player using the bank's play
// mode.
func (b *Bank) NewPlayer() (*player.Player, *engine.Sampler, error) {
	s, err := b.NewSampler()
	if err != nil {
		return nil, nil, err
	}
	return player.New(s, b.Mode), s, nil
}
