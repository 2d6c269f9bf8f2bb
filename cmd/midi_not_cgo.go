//go:build !cgo

package cmd

import "github.com/vsariola/sampler/player"

func NewMIDIContext(sampleRate int) player.MIDIContext {
	// rtmidi needs cgo
	return player.NullMIDIContext{}
}
