package sampler

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidRange = errors.New("invalid range")
	ErrNoSample     = errors.New("zone has no sample")
)

var (
	// AllPitches covers every positive frequency.
	AllPitches = Range[Hz]{Min: 0, Max: Hz(math.Inf(1))}
	// AllVelocities covers the normalized velocity range.
	AllVelocities = Range[Velocity]{Min: 0, Max: 1}
)

type (
	// Zone maps a pitch and velocity range to a Sample. Several zones may
	// share the same Sample.
	Zone struct {
		Pitch    Range[Hz]
		Velocity Range[Velocity]
		Sample   *Sample
	}

	// Map resolves pitch and velocity to a Sample. Zones are searched in the
	// order they were added and the first one containing both values wins.
	// A Map is read-only once built and safe for concurrent Resolve calls.
	Map struct {
		zones []Zone
	}

	// Mapping is the upper pitch bound of a zone in a SequentialMap.
	Mapping struct {
		Upper  Hz
		Sample *Sample
	}
)

func (z *Zone) Contains(pitch Hz, velocity Velocity) bool {
	return z.Pitch.Contains(pitch) && z.Velocity.Contains(velocity)
}

func (z *Zone) Validate() error {
	if !z.Pitch.Valid() {
		return fmt.Errorf("%w: pitch [%v, %v]", ErrInvalidRange, z.Pitch.Min, z.Pitch.Max)
	}
	if !z.Velocity.Valid() {
		return fmt.Errorf("%w: velocity [%v, %v]", ErrInvalidRange, z.Velocity.Min, z.Velocity.Max)
	}
	if z.Sample == nil {
		return ErrNoSample
	}
	return z.Sample.Validate()
}

// NewMap builds a Map from the zones, in order. It fails if any zone is
// invalid.
func NewMap(zones ...Zone) (*Map, error) {
	m := &Map{zones: make([]Zone, 0, len(zones))}
	for _, z := range zones {
		if err := m.Add(z); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add appends a zone after the existing ones. Add is a configuration time
// operation and must not be called while the Map is in use by a renderer.
func (m *Map) Add(z Zone) error {
	if err := z.Validate(); err != nil {
		return fmt.Errorf("zone %d: %w", len(m.zones), err)
	}
	m.zones = append(m.zones, z)
	return nil
}

// Resolve returns the sample of the first zone containing pitch and velocity.
// ok is false if no zone matches.
func (m *Map) Resolve(pitch Hz, velocity Velocity) (s *Sample, ok bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.zones {
		if m.zones[i].Contains(pitch, velocity) {
			return m.zones[i].Sample, true
		}
	}
	return nil, false
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.zones)
}

// Zones returns a copy of the zones in resolution order.
func (m *Map) Zones() []Zone {
	if m == nil {
		return nil
	}
	ret := make([]Zone, len(m.zones))
	copy(ret, m.zones)
	return ret
}

// Samples returns the distinct samples of the map in the order of their first
// zone.
func (m *Map) Samples() []*Sample {
	if m == nil {
		return nil
	}
	var ret []*Sample
	seen := make(map[*Sample]bool, len(m.zones))
	for _, z := range m.zones {
		if !seen[z.Sample] {
			seen[z.Sample] = true
			ret = append(ret, z.Sample)
		}
	}
	return ret
}

// SingleSampleMap returns a map that plays s for every pitch and velocity.
func SingleSampleMap(s *Sample) (*Map, error) {
	return NewMap(Zone{Pitch: AllPitches, Velocity: AllVelocities, Sample: s})
}

// SequentialMap builds adjacent pitch zones from mappings sorted by ascending
// upper bound. The first zone starts at 0 Hz and each following zone starts at
// the previous upper bound; the shared bound resolves to the lower zone.
func SequentialMap(mappings ...Mapping) (*Map, error) {
	zones := make([]Zone, len(mappings))
	var lower Hz
	for i, mp := range mappings {
		if mp.Upper < lower {
			return nil, fmt.Errorf("%w: mapping %d upper bound %v below %v", ErrInvalidRange, i, mp.Upper, lower)
		}
		zones[i] = Zone{Pitch: Range[Hz]{Min: lower, Max: mp.Upper}, Velocity: AllVelocities, Sample: mp.Sample}
		lower = mp.Upper
	}
	return NewMap(zones...)
}
