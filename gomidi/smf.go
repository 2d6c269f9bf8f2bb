// Package gomidi connects gitlab.com/gomidi/midi to the player: Standard MIDI
// Files for offline rendering and, in cgo builds, live MIDI input.
package gomidi

import (
	"fmt"
	"io"

	"github.com/vsariola/sampler/player"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// Event converts a channel voice message to a player event. ok is false for
// messages the player does not handle.
func Event(msg midi.Message, frame int) (event player.MIDIEvent, ok bool) {
	var channel, key, value uint8
	switch {
	case msg.GetNoteOn(&channel, &key, &value):
		event.Kind = player.NoteOn
	case msg.GetNoteOff(&channel, &key, &value):
		event.Kind = player.NoteOff
	case msg.GetControlChange(&channel, &key, &value):
		event.Kind = player.ControlChange
	default:
		return player.MIDIEvent{}, false
	}
	event.Frame = frame
	event.Channel = int(channel)
	event.Note = key
	event.Value = value
	return event, true
}

// ReadSMF reads the note and controller events of every track of a Standard
// MIDI File, timed in frames at sampleRate.
func ReadSMF(r io.Reader, sampleRate int) ([]player.MIDIEvent, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	var events []player.MIDIEvent
	tracks := smf.ReadTracksFrom(r).Do(func(ev smf.TrackEvent) {
		frame := MicrosecondsToFrames(ev.AbsMicroSeconds, sampleRate)
		if e, ok := Event(midi.Message(ev.Message), frame); ok {
			events = append(events, e)
		}
	})
	if err := tracks.Error(); err != nil {
		return nil, fmt.Errorf("could not read MIDI file: %w", err)
	}
	return events, nil
}

// MicrosecondsToFrames rounds a time in microseconds to the nearest frame.
func MicrosecondsToFrames(us int64, sampleRate int) int {
	return int((us*int64(sampleRate) + 500000) / 1000000)
}
