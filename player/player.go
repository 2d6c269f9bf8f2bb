// Package player drives a sampler.Synth with MIDI style note events, applying
// each event at its exact frame within the rendered buffer.
package player

import (
	"fmt"
	"strings"

	"github.com/vsariola/sampler"
)

type (
	// Player turns note and controller events into Synth calls. It is not
	// safe for concurrent use; run it on the audio goroutine.
	Player struct {
		synth sampler.Synth
		mode  Mode

		voices  [numChannels][128]sampler.VoiceID // sounding voice per key, Poly mode
		pending [numChannels][128]bool            // note-off deferred by the sustain pedal
		pedal   [numChannels]bool

		// held keys in Legato and Retrigger modes, most recent last
		held []heldNote
		mono sampler.VoiceID
	}

	// EventSource tells the player which events happen during the current
	// buffer. Frames are relative to the start of the buffer.
	EventSource interface {
		// NextEvent returns the next event, or ok == false if there are no
		// more events available right now.
		NextEvent(frame int) (event MIDIEvent, ok bool)
		// FinishBlock is called when the buffer is full; frame is the
		// number of frames rendered.
		FinishBlock(frame int)
	}

	// MIDIEvent is a channel voice message at a frame offset. For NoteOn and
	// NoteOff, Note is the key and Value the velocity; for ControlChange,
	// Note is the controller number and Value its value.
	MIDIEvent struct {
		Frame   int
		Kind    EventKind
		Channel int
		Note    byte
		Value   byte
	}

	EventKind int

	// Mode selects how overlapping notes are played.
	Mode int

	heldNote struct {
		channel  int
		note     byte
		velocity byte
	}
)

const (
	NoteOn EventKind = iota
	NoteOff
	ControlChange
)

const (
	// Poly plays every note on its own voice.
	Poly Mode = iota
	// Legato plays a single voice; a new note continues the play position of
	// the sounding one, and releasing it falls back to the most recent held
	// note.
	Legato
	// Retrigger plays a single voice that restarts from the beginning on
	// every note change.
	Retrigger
)

const (
	CCSustain     = 64
	CCAllSoundOff = 120
	CCAllNotesOff = 123
)

const numChannels = 16

// New returns a player for synth. Notes are tuned in equal temperament with
// A4 at 440 Hz; detuning is up to the synth.
func New(synth sampler.Synth, mode Mode) *Player {
	return &Player{
		synth: synth,
		mode:  mode,
		held:  make([]heldNote, 0, numChannels*128),
	}
}

func (p *Player) Synth() sampler.Synth { return p.synth }

func (p *Player) Mode() Mode { return p.mode }

// Process renders audio to the buffer, filling it completely. Events from ctx
// are applied at their frame, splitting the render call.
func (p *Player) Process(buffer sampler.AudioBuffer, ctx EventSource) {
	frame := 0
	event, ok := ctx.NextEvent(frame)
	for {
		for ok && frame >= event.Frame {
			p.Handle(event)
			event, ok = ctx.NextEvent(frame)
		}
		framesUntilEvent := len(buffer)
		if delta := event.Frame - frame; ok && delta < framesUntilEvent {
			framesUntilEvent = delta
		}
		p.synth.Render(buffer[:framesUntilEvent])
		buffer = buffer[framesUntilEvent:]
		frame += framesUntilEvent
		if len(buffer) == 0 {
			ctx.FinishBlock(frame)
			return
		}
	}
}

// Handle applies a single event immediately. Events on channels outside
// 0..15 are ignored.
func (p *Player) Handle(e MIDIEvent) {
	if e.Channel < 0 || e.Channel >= numChannels || e.Note > 127 {
		return
	}
	switch e.Kind {
	case NoteOn:
		if e.Value == 0 {
			p.noteOff(e.Channel, e.Note)
			return
		}
		p.noteOn(e.Channel, e.Note, e.Value)
	case NoteOff:
		p.noteOff(e.Channel, e.Note)
	case ControlChange:
		p.controlChange(e.Channel, e.Note, e.Value)
	}
}

// Reset releases every voice and forgets held notes and pedal state.
func (p *Player) Reset() {
	p.synth.ReleaseAll()
	p.voices = [numChannels][128]sampler.VoiceID{}
	p.pending = [numChannels][128]bool{}
	p.pedal = [numChannels]bool{}
	p.held = p.held[:0]
	p.mono = sampler.VoiceID{}
}

func pitch(note byte) sampler.Hz {
	return sampler.NoteHz(float64(note))
}

func velocity(v byte) sampler.Velocity {
	return sampler.Velocity(v) / 127
}

func (p *Player) noteOn(channel int, note, vel byte) {
	p.pending[channel][note] = false
	if p.mode == Poly {
		// a key pressed again releases the voice it started before
		p.synth.Release(p.voices[channel][note])
		id, _ := p.synth.Trigger(pitch(note), velocity(vel))
		p.voices[channel][note] = id
		return
	}
	p.removeHeld(channel, note)
	p.held = append(p.held, heldNote{channel: channel, note: note, velocity: vel})
	p.playMono(note, vel)
}

func (p *Player) noteOff(channel int, note byte) {
	if p.pedal[channel] {
		p.pending[channel][note] = true
		return
	}
	p.pending[channel][note] = false
	if p.mode == Poly {
		p.synth.Release(p.voices[channel][note])
		p.voices[channel][note] = sampler.VoiceID{}
		return
	}
	wasTop := len(p.held) > 0 && p.held[len(p.held)-1].channel == channel && p.held[len(p.held)-1].note == note
	if !p.removeHeld(channel, note) || !wasTop {
		return
	}
	if len(p.held) == 0 {
		p.synth.Release(p.mono)
		p.mono = sampler.VoiceID{}
		return
	}
	top := p.held[len(p.held)-1]
	p.playMono(top.note, top.velocity)
}

func (p *Player) playMono(note, vel byte) {
	if p.mode == Legato && p.mono.Valid() {
		p.mono, _ = p.synth.Legato(p.mono, pitch(note), velocity(vel))
		return
	}
	p.synth.Release(p.mono)
	p.mono, _ = p.synth.Trigger(pitch(note), velocity(vel))
}

func (p *Player) removeHeld(channel int, note byte) bool {
	for i, h := range p.held {
		if h.channel == channel && h.note == note {
			p.held = append(p.held[:i], p.held[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Player) controlChange(channel int, controller, value byte) {
	switch controller {
	case CCSustain:
		down := value >= 64
		if p.pedal[channel] == down {
			return
		}
		p.pedal[channel] = down
		if down {
			return
		}
		for note := range p.pending[channel] {
			if p.pending[channel][note] {
				p.noteOff(channel, byte(note))
			}
		}
	case CCAllSoundOff, CCAllNotesOff:
		p.pedal[channel] = false
		for note := range p.voices[channel] {
			p.pending[channel][note] = false
			p.noteOff(channel, byte(note))
		}
	}
}

func (m Mode) String() string {
	switch m {
	case Poly:
		return "poly"
	case Legato:
		return "legato"
	case Retrigger:
		return "retrigger"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name. The empty string is Poly.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "poly":
		return Poly, nil
	case "legato", "mono":
		return Legato, nil
	case "retrigger":
		return Retrigger, nil
	}
	return Poly, fmt.Errorf("unknown play mode %q", s)
}

func (k EventKind) String() string {
	switch k {
	case NoteOn:
		return "note on"
	case NoteOff:
		return "note off"
	case ControlChange:
		return "control change"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}
