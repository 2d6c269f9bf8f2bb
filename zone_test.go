package sampler_test

import (
	"errors"
	"testing"

	"github.com/vsariola/sampler"
)

func testSample(name string) *sampler.Sample {
	return &sampler.Sample{Name: name, Data: make([]float32, 16), Channels: 1, SampleRate: 1000, Root: 440}
}

func sampleName(s *sampler.Sample) string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

func TestResolveFirstMatchWins(t *testing.T) {
	soft, loud, fallback := testSample("soft"), testSample("loud"), testSample("fallback")
	m, err := sampler.NewMap(
		sampler.Zone{Pitch: sampler.Range[sampler.Hz]{Min: 200, Max: 500}, Velocity: sampler.Range[sampler.Velocity]{Min: 0, Max: 0.5}, Sample: soft},
		sampler.Zone{Pitch: sampler.Range[sampler.Hz]{Min: 200, Max: 500}, Velocity: sampler.Range[sampler.Velocity]{Min: 0.5, Max: 1}, Sample: loud},
		sampler.Zone{Pitch: sampler.AllPitches, Velocity: sampler.AllVelocities, Sample: fallback},
	)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		pitch    sampler.Hz
		velocity sampler.Velocity
		want     *sampler.Sample
	}{
		{440, 0.2, soft},
		{440, 0.5, soft},
		{440, 0.9, loud},
		{200, 1, loud},
		{500, 0, soft},
		{1000, 0.2, fallback},
		{100, 1, fallback},
	} {
		got, ok := m.Resolve(c.pitch, c.velocity)
		if !ok || got != c.want {
			t.Errorf("Resolve(%v, %v) = %v, want %v", c.pitch, c.velocity, sampleName(got), c.want.Name)
		}
	}
	if got := m.Samples(); len(got) != 3 || got[0] != soft || got[2] != fallback {
		t.Errorf("Samples() = %v", got)
	}
}

func TestResolveNoMatch(t *testing.T) {
	m, err := sampler.NewMap(sampler.Zone{Pitch: sampler.Range[sampler.Hz]{Min: 200, Max: 300}, Velocity: sampler.AllVelocities, Sample: testSample("a")})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.Resolve(301, 0.5); ok {
		t.Error("301 Hz should not resolve")
	}
	if _, ok := m.Resolve(250, 1.5); ok {
		t.Error("velocity outside the zone should not resolve")
	}
	var empty *sampler.Map
	if _, ok := empty.Resolve(250, 0.5); ok || empty.Len() != 0 || empty.Zones() != nil {
		t.Error("a nil map should be empty")
	}
}

func TestSharedSample(t *testing.T) {
	s := testSample("shared")
	m, err := sampler.NewMap(
		sampler.Zone{Pitch: sampler.Range[sampler.Hz]{Min: 0, Max: 100}, Velocity: sampler.AllVelocities, Sample: s},
		sampler.Zone{Pitch: sampler.Range[sampler.Hz]{Min: 1000, Max: 2000}, Velocity: sampler.AllVelocities, Sample: s},
	)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := m.Resolve(50, 0.5)
	b, _ := m.Resolve(1500, 0.5)
	if a != s || b != s {
		t.Error("both zones should resolve to the same sample")
	}
	if got := m.Samples(); len(got) != 1 {
		t.Errorf("Samples() returned %d samples, want 1", len(got))
	}
}

func TestInvalidZones(t *testing.T) {
	for _, c := range []struct {
		name string
		zone sampler.Zone
		want error
	}{
		{"inverted pitch", sampler.Zone{Pitch: sampler.Range[sampler.Hz]{Min: 500, Max: 200}, Velocity: sampler.AllVelocities, Sample: testSample("a")}, sampler.ErrInvalidRange},
		{"inverted velocity", sampler.Zone{Pitch: sampler.AllPitches, Velocity: sampler.Range[sampler.Velocity]{Min: 1, Max: 0}, Sample: testSample("a")}, sampler.ErrInvalidRange},
		{"no sample", sampler.Zone{Pitch: sampler.AllPitches, Velocity: sampler.AllVelocities}, sampler.ErrNoSample},
		{"bad sample", sampler.Zone{Pitch: sampler.AllPitches, Velocity: sampler.AllVelocities, Sample: &sampler.Sample{Channels: 1}}, sampler.ErrInvalidSample},
	} {
		t.Run(c.name, func(t *testing.T) {
			if _, err := sampler.NewMap(c.zone); !errors.Is(err, c.want) {
				t.Errorf("NewMap error = %v, want %v", err, c.want)
			}
		})
	}
}

func TestSequentialMap(t *testing.T) {
	low, mid, high := testSample("low"), testSample("mid"), testSample("high")
	m, err := sampler.SequentialMap(
		sampler.Mapping{Upper: 200, Sample: low},
		sampler.Mapping{Upper: 400, Sample: mid},
		sampler.Mapping{Upper: sampler.AllPitches.Max, Sample: high},
	)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		pitch sampler.Hz
		want  *sampler.Sample
	}{
		{10, low},
		{200, low},
		{200.01, mid},
		{400, mid},
		{10000, high},
	} {
		if got, _ := m.Resolve(c.pitch, 0.5); got != c.want {
			t.Errorf("Resolve(%v) = %v, want %v", c.pitch, sampleName(got), c.want.Name)
		}
	}
	if _, err := sampler.SequentialMap(sampler.Mapping{Upper: 400, Sample: low}, sampler.Mapping{Upper: 200, Sample: mid}); !errors.Is(err, sampler.ErrInvalidRange) {
		t.Errorf("unsorted mappings gave %v", err)
	}
}
