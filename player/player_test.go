package player_test

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"github.com/vsariola/sampler"
	"github.com/vsariola/sampler/engine"
	"github.com/vsariola/sampler/player"
)

type fakeSynth struct {
	calls    []string
	next     int
	live     map[sampler.VoiceID]bool
	rendered []int
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{live: map[sampler.VoiceID]bool{}}
}

func (s *fakeSynth) Trigger(pitch sampler.Hz, velocity sampler.Velocity) (sampler.VoiceID, bool) {
	s.next++
	id := sampler.VoiceID{Slot: s.next, Gen: 1}
	s.live[id] = true
	s.calls = append(s.calls, fmt.Sprintf("trigger %d %.0f vel %.2f", s.next, math.Round(pitch.Note()), velocity))
	return id, true
}

func (s *fakeSynth) Legato(id sampler.VoiceID, pitch sampler.Hz, velocity sampler.Velocity) (sampler.VoiceID, bool) {
	if !s.live[id] {
		return s.Trigger(pitch, velocity)
	}
	s.calls = append(s.calls, fmt.Sprintf("legato %d %.0f", id.Slot, math.Round(pitch.Note())))
	return id, true
}

func (s *fakeSynth) Release(id sampler.VoiceID) {
	if s.live[id] {
		delete(s.live, id)
		s.calls = append(s.calls, fmt.Sprintf("release %d", id.Slot))
	}
}

func (s *fakeSynth) ReleaseAll() {
	clear(s.live)
	s.calls = append(s.calls, "release all")
}

func (s *fakeSynth) Render(buffer sampler.AudioBuffer) {
	s.rendered = append(s.rendered, len(buffer))
	for i := range buffer {
		buffer[i] = [2]float32{float32(len(s.live)), 0}
	}
}

func (s *fakeSynth) Live() int { return len(s.live) }

func on(frame int, note, vel byte) player.MIDIEvent {
	return player.MIDIEvent{Frame: frame, Kind: player.NoteOn, Note: note, Value: vel}
}

func off(frame int, note byte) player.MIDIEvent {
	return player.MIDIEvent{Frame: frame, Kind: player.NoteOff, Note: note}
}

func cc(frame int, controller, value byte) player.MIDIEvent {
	return player.MIDIEvent{Frame: frame, Kind: player.ControlChange, Note: controller, Value: value}
}

func handleAll(p *player.Player, events ...player.MIDIEvent) {
	for _, e := range events {
		p.Handle(e)
	}
}

func expectCalls(t *testing.T, s *fakeSynth, want ...string) {
	t.Helper()
	if !slices.Equal(s.calls, want) {
		t.Fatalf("calls:\n got %q\nwant %q", s.calls, want)
	}
}

func TestProcessSplitsAtEventFrames(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Poly)
	list := player.NewEventList([]player.MIDIEvent{on(0, 60, 127), on(10, 64, 127), off(10, 60), off(30, 64), on(70, 67, 127)})
	buffer := make(sampler.AudioBuffer, 64)
	p.Process(buffer, list)
	if want := []int{10, 20, 34}; !slices.Equal(s.rendered, want) {
		t.Fatalf("render calls %v, want %v", s.rendered, want)
	}
	if buffer[9][0] != 1 || buffer[10][0] != 1 || buffer[30][0] != 0 {
		t.Fatalf("events were not applied at their frames")
	}
	s.rendered = nil
	p.Process(buffer, list)
	if want := []int{6, 58}; !slices.Equal(s.rendered, want) {
		t.Fatalf("second block render calls %v, want %v", s.rendered, want)
	}
	if buffer[5][0] != 0 || buffer[6][0] != 1 {
		t.Fatalf("event of the next block was not applied at frame 6")
	}
	if !list.Done() {
		t.Fatalf("event list should be exhausted")
	}
}

func TestPolyRetriggerReleasesPrevious(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Poly)
	handleAll(p, on(0, 60, 127), on(0, 60, 64), on(0, 64, 127), on(0, 64, 0), off(0, 60))
	expectCalls(t, s,
		"trigger 1 60 vel 1.00",
		"release 1",
		"trigger 2 60 vel 0.50",
		"trigger 3 64 vel 1.00",
		"release 3",
		"release 2")
}

func TestChannelsAreSeparate(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Poly)
	a := on(0, 60, 127)
	b := on(0, 60, 127)
	b.Channel = 1
	offB := off(0, 60)
	offB.Channel = 1
	handleAll(p, a, b, offB)
	expectCalls(t, s, "trigger 1 60 vel 1.00", "trigger 2 60 vel 1.00", "release 2")
}

func TestSustainPedalDefersNoteOff(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Poly)
	handleAll(p, on(0, 60, 127), cc(0, player.CCSustain, 127), off(0, 60), on(0, 62, 127), off(0, 62))
	expectCalls(t, s, "trigger 1 60 vel 1.00", "trigger 2 62 vel 1.00")
	handleAll(p, cc(0, player.CCSustain, 0))
	expectCalls(t, s, "trigger 1 60 vel 1.00", "trigger 2 62 vel 1.00", "release 1", "release 2")
}

func TestPedalHeldNoteIsNotReleased(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Poly)
	handleAll(p, cc(0, player.CCSustain, 127), on(0, 60, 127), off(0, 60), on(0, 60, 127), cc(0, player.CCSustain, 0))
	// the second note-on cancels the deferred note-off, so lifting the pedal
	// leaves the new voice sounding
	expectCalls(t, s, "trigger 1 60 vel 1.00", "release 1", "trigger 2 60 vel 1.00")
}

func TestAllNotesOff(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Poly)
	handleAll(p, on(0, 60, 127), on(0, 72, 127), cc(0, player.CCSustain, 127), cc(0, player.CCAllNotesOff, 0))
	if s.Live() != 0 {
		t.Fatalf("all notes off left %d voices", s.Live())
	}
}

func TestLegatoMode(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Legato)
	handleAll(p, on(0, 60, 127), on(0, 64, 127), off(0, 64), on(0, 67, 127), off(0, 60), off(0, 67))
	expectCalls(t, s,
		"trigger 1 60 vel 1.00",
		"legato 1 64",
		"legato 1 60",
		"legato 1 67",
		"release 1")
}

func TestRetriggerMode(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Retrigger)
	handleAll(p, on(0, 60, 127), on(0, 64, 127), off(0, 64), off(0, 60))
	expectCalls(t, s,
		"trigger 1 60 vel 1.00",
		"release 1",
		"trigger 2 64 vel 1.00",
		"release 2",
		"trigger 3 60 vel 1.00",
		"release 3")
}

func TestDetuneKeepsZoneLookup(t *testing.T) {
	smp := &sampler.Sample{Name: "a4", Data: make([]float32, 100), Channels: 1, SampleRate: 1000, Root: 440}
	m, err := sampler.NewMap(sampler.Zone{Pitch: sampler.Range[sampler.Hz]{Min: 440, Max: 440}, Velocity: sampler.AllVelocities, Sample: smp})
	if err != nil {
		t.Fatal(err)
	}
	c := engine.DefaultConfig()
	c.SampleRate = 1000
	c.Detune = 10
	s, err := engine.New(m, c)
	if err != nil {
		t.Fatal(err)
	}
	p := player.New(s, player.Poly)
	handleAll(p, on(0, 69, 127))
	if s.Live() != 1 {
		t.Fatalf("detuned note 69 should still resolve the 440 Hz zone, %d voices live", s.Live())
	}
	p.Process(make(sampler.AudioBuffer, 1), player.NewEventList(nil))
	if s.Live() != 1 {
		t.Fatalf("voice finished too early")
	}
	p.Reset()
	id, ok := s.Trigger(440, 1)
	if !ok {
		t.Fatal("direct trigger failed")
	}
	st, _ := s.Voice(id)
	if want := math.Pow(2, 10.0/1200); math.Abs(st.Ratio-want) > 1e-12 {
		t.Fatalf("ratio %v, want %v", st.Ratio, want)
	}
}

func TestReset(t *testing.T) {
	s := newFakeSynth()
	p := player.New(s, player.Legato)
	handleAll(p, on(0, 60, 127))
	p.Reset()
	handleAll(p, on(0, 62, 127))
	expectCalls(t, s, "trigger 1 60 vel 1.00", "release all", "trigger 2 62 vel 1.00")
}

func TestRenderStopsWhenQuiet(t *testing.T) {
	s := newFakeSynth()
	out := player.Render(s, []player.MIDIEvent{off(100, 60), on(0, 60, 127)}, 1000)
	if len(out) != 101 {
		t.Fatalf("rendered %d frames, want 101", len(out))
	}
	if out[99][0] != 1 || out[100][0] != 0 {
		t.Fatalf("note should sound until frame 100")
	}
}

func TestRenderIsBoundedByTail(t *testing.T) {
	s := newFakeSynth()
	out := player.Render(s, []player.MIDIEvent{on(0, 60, 127)}, 50)
	if len(out) != 51 {
		t.Fatalf("rendered %d frames, want 51", len(out))
	}
	if out := player.Render(newFakeSynth(), nil, 50); len(out) != 0 {
		t.Fatalf("rendering no events gave %d frames", len(out))
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []player.Mode{player.Poly, player.Legato, player.Retrigger} {
		got, err := player.ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := player.ParseMode("chord"); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}
