package player

import (
	"cmp"
	"slices"

	"github.com/vsariola/sampler"
)

// EventList is an EventSource playing back a list of events with absolute
// frame positions, e.g. read from a MIDI file.
type EventList struct {
	events []MIDIEvent
	offset int // absolute frame of the start of the current block
	index  int // next event to return
	lastOK bool
}

const renderBlock = 1024

// NewEventList sorts a copy of events by frame; events on the same frame
// keep their order.
func NewEventList(events []MIDIEvent) *EventList {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b MIDIEvent) int { return cmp.Compare(a.Frame, b.Frame) })
	return &EventList{events: sorted}
}

func (l *EventList) NextEvent(frame int) (event MIDIEvent, ok bool) {
	if l.index >= len(l.events) {
		l.lastOK = false
		return MIDIEvent{}, false
	}
	event = l.events[l.index]
	event.Frame -= l.offset
	l.index++
	l.lastOK = true
	return event, true
}

// FinishBlock moves the list forward by frame frames. The event returned last
// was not handled yet, so it is returned again in the next block.
func (l *EventList) FinishBlock(frame int) {
	l.offset += frame
	if l.lastOK {
		l.index--
	}
	l.lastOK = false
}

// End returns the frame just after the last event.
func (l *EventList) End() int {
	if len(l.events) == 0 {
		return 0
	}
	return l.events[len(l.events)-1].Frame + 1
}

// Done reports whether every event has been handled.
func (l *EventList) Done() bool {
	return l.index >= len(l.events) && !l.lastOK
}

// Render plays events on synth in Poly mode and returns the audio; see
// (*Player).Render.
func Render(synth sampler.Synth, events []MIDIEvent, tail int) sampler.AudioBuffer {
	return New(synth, Poly).Render(events, tail)
}

// Render plays events offline. After the last event, rendering continues
// until the synth goes quiet, but at most tail frames.
func (p *Player) Render(events []MIDIEvent, tail int) sampler.AudioBuffer {
	list := NewEventList(events)
	end := list.End()
	var out sampler.AudioBuffer
	block := make(sampler.AudioBuffer, renderBlock)
	for frame := 0; ; {
		n := renderBlock
		if frame < end {
			n = min(n, end-frame)
		} else {
			if !active(p.synth) || frame >= end+tail {
				break
			}
			n = min(n, end+tail-frame)
		}
		p.Process(block[:n], list)
		out = append(out, block[:n]...)
		frame += n
	}
	return out
}

// active also counts voices that are fading out after being stolen, when
// the synth can tell them apart.
func active(synth sampler.Synth) bool {
	if a, ok := synth.(interface{ Active() bool }); ok {
		return a.Active()
	}
	return synth.Live() > 0
}
