//go:build cgo

package cmd

import (
	"github.com/vsariola/sampler/gomidi"
	"github.com/vsariola/sampler/player"
)

func NewMIDIContext(sampleRate int) player.MIDIContext {
	return gomidi.NewContext(sampleRate)
}
