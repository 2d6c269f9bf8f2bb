package engine

import (
	"errors"
	"math"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/sampler"
)

type (
	// Sampler renders the voices of a Pool using the zones of a Map. It
	// implements sampler.Synth. A Sampler is not safe for concurrent use.
	Sampler struct {
		config  Config
		params  voiceParams
		zones   *sampler.Map
		pool    *Pool
		bus     []float32
		scratch []float32
		levels  []float32
	}

	// VoiceState is a snapshot of a live voice.
	VoiceState struct {
		Phase    sampler.Phase
		Position float64
		Ratio    float64
		Level    float32
		Sample   *sampler.Sample
	}
)

var _ sampler.Synth = (*Sampler)(nil)

// New validates the config and allocates everything the Sampler will need
// while rendering.
func New(zones *sampler.Map, config Config) (*Sampler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if zones == nil {
		return nil, errors.New("engine.New: nil zone map")
	}
	s := &Sampler{
		config: config,
		params: voiceParams{
			outputRate:    config.SampleRate,
			attack:        config.frames(config.Attack),
			release:       max(config.frames(config.Release), 1),
			stealFade:     max(config.frames(config.StealFade), 1),
			velocityCurve: config.VelocityCurve,
			tune:          math.Pow(2, config.Detune/1200),
		},
		zones:   zones,
		pool:    NewPool(config.Polyphony, config.Steal),
		bus:     make([]float32, 2*config.MaxBlock),
		scratch: make([]float32, 2*config.MaxBlock),
		levels:  make([]float32, config.Polyphony),
	}
	return s, nil
}

func (s *Sampler) Config() Config { return s.config }

// Map returns the zone map used for new triggers.
func (s *Sampler) Map() *sampler.Map { return s.zones }

// Trigger resolves the pitch and velocity and starts a voice for the matching
// sample. If no zone matches, or pitch is not a positive frequency, nothing
// happens and ok is false.
func (s *Sampler) Trigger(pitch sampler.Hz, velocity sampler.Velocity) (id sampler.VoiceID, ok bool) {
	if !validPitch(pitch) {
		return sampler.VoiceID{}, false
	}
	smp, ok := s.zones.Resolve(pitch, velocity)
	if !ok {
		return sampler.VoiceID{}, false
	}
	return s.pool.Trigger(newVoice(smp, pitch, velocity, &s.params)), true
}

// Legato retunes a live voice to a new pitch without restarting it. The zone
// map is consulted again, so the voice may continue on another sample from
// its current play-head. If id is not live, Legato triggers a new voice.
func (s *Sampler) Legato(id sampler.VoiceID, pitch sampler.Hz, velocity sampler.Velocity) (sampler.VoiceID, bool) {
	v, live := s.pool.Voice(id)
	if !live || v.phase == sampler.Releasing {
		return s.Trigger(pitch, velocity)
	}
	if !validPitch(pitch) {
		return id, true
	}
	smp, ok := s.zones.Resolve(pitch, velocity)
	if !ok {
		s.pool.Release(id)
		return sampler.VoiceID{}, false
	}
	if smp == v.sample {
		v.retune(pitch, velocity, &s.params)
	} else {
		v.rebind(smp, pitch, velocity, &s.params)
	}
	return id, true
}

func (s *Sampler) Release(id sampler.VoiceID) { s.pool.Release(id) }

func (s *Sampler) ReleaseAll() { s.pool.ReleaseAll() }

// Stop fades out every voice over the steal window.
func (s *Sampler) Stop() { s.pool.StealAll() }

func (s *Sampler) Live() int { return s.pool.Live() }

// Active reports whether anything is still sounding, including stolen voices
// that are fading out.
func (s *Sampler) Active() bool { return s.pool.Live() > 0 || s.pool.Fading() }

// Voice returns a snapshot of a live voice.
func (s *Sampler) Voice(id sampler.VoiceID) (VoiceState, bool) {
	v, ok := s.pool.Voice(id)
	if !ok {
		return VoiceState{}, false
	}
	return VoiceState{Phase: v.phase, Position: v.pos, Ratio: v.ratio, Level: v.Level(), Sample: v.sample}, true
}

// VoiceLevels returns the peak amplitude of each slot during the last Render
// or Mix call. The slice is owned by the Sampler.
func (s *Sampler) VoiceLevels() []float32 { return s.levels }

// Render overwrites the buffer with the sum of all voices.
func (s *Sampler) Render(buffer sampler.AudioBuffer) {
	buffer.Clear()
	s.Mix(buffer)
}

// Mix adds the sum of all voices to the buffer. The output is not normalized
// or limited.
func (s *Sampler) Mix(buffer sampler.AudioBuffer) {
	clear(s.levels)
	for len(buffer) > 0 {
		n := min(len(buffer), s.config.MaxBlock)
		bus := vek32.Zeros_Into(s.bus, 2*n)
		s.pool.AdvanceAll(n, bus, s.scratch, s.levels, s.config.Interpolation)
		for i := range buffer[:n] {
			buffer[i][0] += bus[2*i]
			buffer[i][1] += bus[2*i+1]
		}
		buffer = buffer[n:]
	}
}

func validPitch(p sampler.Hz) bool {
	return p > 0 && !math.IsInf(float64(p), 0)
}
