package gomidi_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vsariola/sampler/gomidi"
	"github.com/vsariola/sampler/player"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func TestEvent(t *testing.T) {
	e, ok := gomidi.Event(midi.NoteOn(2, 60, 100), 7)
	require.True(t, ok)
	require.Equal(t, player.MIDIEvent{Frame: 7, Kind: player.NoteOn, Channel: 2, Note: 60, Value: 100}, e)

	e, ok = gomidi.Event(midi.NoteOff(0, 61), 8)
	require.True(t, ok)
	require.Equal(t, player.NoteOff, e.Kind)
	require.Equal(t, byte(61), e.Note)

	e, ok = gomidi.Event(midi.ControlChange(1, 64, 127), 0)
	require.True(t, ok)
	require.Equal(t, player.MIDIEvent{Kind: player.ControlChange, Channel: 1, Note: 64, Value: 127}, e)

	_, ok = gomidi.Event(midi.ProgramChange(0, 5), 0)
	require.False(t, ok)
}

func TestReadSMF(t *testing.T) {
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(960, midi.NoteOff(0, 60))
	tr.Add(480, midi.ControlChange(0, 64, 127))
	tr.Close(0)
	require.NoError(t, s.Add(tr))
	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)

	events, err := gomidi.ReadSMF(&buf, 1000)
	require.NoError(t, err)
	require.Equal(t, []player.MIDIEvent{
		{Frame: 0, Kind: player.NoteOn, Note: 60, Value: 100},
		{Frame: 500, Kind: player.NoteOff, Note: 60},
		{Frame: 750, Kind: player.ControlChange, Note: 64, Value: 127},
	}, events)
}

func TestReadSMFErrors(t *testing.T) {
	_, err := gomidi.ReadSMF(strings.NewReader("not a midi file"), 1000)
	require.Error(t, err)
	_, err = gomidi.ReadSMF(strings.NewReader(""), 0)
	require.Error(t, err)
}

func TestMicrosecondsToFrames(t *testing.T) {
	require.Equal(t, 44100, gomidi.MicrosecondsToFrames(1000000, 44100))
	require.Equal(t, 1, gomidi.MicrosecondsToFrames(20, 44100))
	require.Equal(t, 0, gomidi.MicrosecondsToFrames(0, 48000))
}
