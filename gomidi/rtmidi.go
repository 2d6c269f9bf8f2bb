//go:build cgo

package gomidi

import (
	"errors"
	"fmt"

	"github.com/vsariola/sampler/player"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

type (
	// RTMIDIContext receives messages from MIDI input devices and hands them
	// to the player as events timed within the current buffer.
	RTMIDIContext struct {
		driver        *rtmididrv.Driver
		currentIn     drivers.In
		stop          func()
		sampleRate    int
		events        chan timestampedMsg
		eventsBuf     []timestampedMsg
		eventIndex    int
		startFrame    int
		startFrameSet bool
	}

	RTMIDIDevice struct {
		context *RTMIDIContext
		in      drivers.In
	}

	timestampedMsg struct {
		frame int
		msg   midi.Message
	}
)

var _ player.MIDIContext = (*RTMIDIContext)(nil)

// NewContext opens the rtmidi driver. Timestamps of incoming messages are
// converted to frames at sampleRate.
func NewContext(sampleRate int) *RTMIDIContext {
	m := RTMIDIContext{events: make(chan timestampedMsg, 1024), sampleRate: sampleRate}
	// there's not much we can do if this fails, so just use m.driver = nil to
	// indicate no driver available
	m.driver, _ = rtmididrv.New()
	return &m
}

func (m *RTMIDIContext) Support() player.MIDISupport {
	if m.driver == nil {
		return player.MIDISupportNoDriver
	}
	return player.MIDISupported
}

func (m *RTMIDIContext) Inputs(yield func(player.MIDIInputDevice) bool) {
	if m.driver == nil {
		return
	}
	ins, err := m.driver.Ins()
	if err != nil {
		return
	}
	for _, in := range ins {
		if !yield(RTMIDIDevice{context: m, in: in}) {
			break
		}
	}
}

// Open the input device, closing the currently open one if necessary.
func (d RTMIDIDevice) Open() error {
	if d.context.currentIn == d.in {
		return nil
	}
	if d.context.driver == nil {
		return errors.New("no driver available")
	}
	d.context.closeInput()
	if err := d.in.Open(); err != nil {
		return fmt.Errorf("opening MIDI input failed: %w", err)
	}
	stop, err := midi.ListenTo(d.in, d.context.HandleMessage)
	if err != nil {
		d.in.Close()
		return fmt.Errorf("listening to MIDI input failed: %w", err)
	}
	d.context.currentIn = d.in
	d.context.stop = stop
	return nil
}

func (d RTMIDIDevice) Close() error {
	if d.context.currentIn != d.in {
		return d.in.Close()
	}
	d.context.closeInput()
	return nil
}

func (d RTMIDIDevice) IsOpen() bool { return d.in.IsOpen() }

func (d RTMIDIDevice) String() string { return d.in.String() }

func (c *RTMIDIContext) closeInput() {
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
	if c.currentIn != nil && c.currentIn.IsOpen() {
		c.currentIn.Close()
	}
	c.currentIn = nil
}

func (c *RTMIDIContext) Close() {
	if c.driver == nil {
		return
	}
	c.closeInput()
	c.driver.Close()
}

// HandleMessage is called by the driver for each incoming message.
func (c *RTMIDIContext) HandleMessage(msg midi.Message, timestampms int32) {
	select {
	case c.events <- timestampedMsg{frame: int(int64(timestampms) * int64(c.sampleRate) / 1000), msg: msg}: // if the channel is full, just drop the message
	default:
	}
}

func (c *RTMIDIContext) NextEvent(frame int) (event player.MIDIEvent, ok bool) {
F:
	for {
		select {
		case msg := <-c.events:
			c.eventsBuf = append(c.eventsBuf, msg)
			if !c.startFrameSet {
				c.startFrame = msg.frame
				c.startFrameSet = true
			}
		default:
			break F
		}
	}
	if c.eventIndex > 0 && c.eventIndex <= len(c.eventsBuf) { // an event was consumed, check how badly we need to adjust the timing
		delta := frame + c.startFrame - c.eventsBuf[c.eventIndex-1].frame
		// delta is positive when the event was consumed late; pull the
		// clock towards it
		c.startFrame -= delta / 5
	}
	for c.eventIndex < len(c.eventsBuf) {
		m := c.eventsBuf[c.eventIndex]
		c.eventIndex++
		if e, ok := Event(m.msg, m.frame-c.startFrame); ok {
			return e, true
		}
	}
	c.eventIndex = len(c.eventsBuf) + 1
	return player.MIDIEvent{}, false
}

func (c *RTMIDIContext) FinishBlock(frame int) {
	c.startFrame += frame
	if c.eventIndex > 0 {
		copy(c.eventsBuf, c.eventsBuf[c.eventIndex-1:])
		c.eventsBuf = c.eventsBuf[:len(c.eventsBuf)-c.eventIndex+1]
		if len(c.eventsBuf) > 0 {
			// the events left over are in the future; move the clock
			// towards them so they render close to when they arrived
			delta := c.startFrame - c.eventsBuf[0].frame
			c.startFrame -= delta / 5
		}
	}
	c.eventIndex = 0
}
