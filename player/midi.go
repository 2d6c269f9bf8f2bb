package player

import (
	"errors"
	"fmt"
	"strings"
)

type (
	// MIDIContext is a live EventSource fed by MIDI input devices.
	MIDIContext interface {
		EventSource
		Inputs(yield func(input MIDIInputDevice) bool)
		Close()
		Support() MIDISupport
	}

	MIDIInputDevice interface {
		Open() error
		Close() error
		IsOpen() bool
		String() string
	}

	MIDISupport int

	// NullMIDIContext has no inputs and never produces events.
	NullMIDIContext struct{}
)

const (
	MIDISupportNotCompiled MIDISupport = iota
	MIDISupportNoDriver
	MIDISupported
)

var ErrNoMIDIInput = errors.New("no MIDI input found")

// OpenInput opens the first input whose name starts with prefix. An empty
// prefix takes the first input.
func OpenInput(ctx MIDIContext, prefix string) (MIDIInputDevice, error) {
	switch ctx.Support() {
	case MIDISupportNotCompiled:
		return nil, fmt.Errorf("%w: built without MIDI support", ErrNoMIDIInput)
	case MIDISupportNoDriver:
		return nil, fmt.Errorf("%w: no MIDI driver available", ErrNoMIDIInput)
	}
	var found MIDIInputDevice
	for input := range ctx.Inputs {
		if strings.HasPrefix(input.String(), prefix) {
			found = input
			break
		}
	}
	if found == nil {
		if prefix == "" {
			return nil, ErrNoMIDIInput
		}
		return nil, fmt.Errorf("%w: no input starting with %q", ErrNoMIDIInput, prefix)
	}
	if err := found.Open(); err != nil {
		return nil, err
	}
	return found, nil
}

func (m NullMIDIContext) NextEvent(frame int) (event MIDIEvent, ok bool) {
	return MIDIEvent{}, false
}

func (m NullMIDIContext) FinishBlock(frame int) {}

func (m NullMIDIContext) Inputs(yield func(input MIDIInputDevice) bool) {}

func (m NullMIDIContext) Close() {}

func (m NullMIDIContext) Support() MIDISupport { return MIDISupportNotCompiled }

func (s MIDISupport) String() string {
	switch s {
	case MIDISupportNotCompiled:
		return "not compiled"
	case MIDISupportNoDriver:
		return "no driver"
	case MIDISupported:
		return "supported"
	}
	return fmt.Sprintf("MIDISupport(%d)", int(s))
}
