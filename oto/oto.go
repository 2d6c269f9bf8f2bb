// Package oto plays AudioSources on the default audio device.
package oto

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/vsariola/sampler"
)

type (
	OtoContext struct {
		ctx *oto.Context
	}

	OtoPlayer struct {
		player *oto.Player
		reader *sourceReader
	}

	// sourceReader pulls frames from an AudioSource as the device needs them.
	sourceReader struct {
		src       sampler.AudioSource
		buffer    sampler.AudioBuffer
		tmpBuffer []byte
		mu        sync.Mutex
		err       error
	}
)

const (
	bytesPerFrame = 8 // two float32 channels
	// BufferSize is the latency of the device buffer.
	BufferSize = 50 * time.Millisecond
)

var _ sampler.AudioContext = (*OtoContext)(nil)

// NewContext opens the default output device at sampleRate in stereo. It
// blocks until the device is ready.
func NewContext(sampleRate int) (*OtoContext, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   BufferSize,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready
	return &OtoContext{ctx: ctx}, nil
}

// Play starts playing src. The source is called from the audio goroutine of
// oto.
func (c *OtoContext) Play(src sampler.AudioSource) sampler.CloserWaiter {
	r := &sourceReader{src: src}
	p := c.ctx.NewPlayer(r)
	p.Play()
	return &OtoPlayer{player: p, reader: r}
}

// Close suspends the device; oto contexts cannot be reopened in the same
// process.
func (c *OtoContext) Close() error {
	if err := c.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	return nil
}

func (r *sourceReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return 0, r.err
	}
	frames := len(p) / bytesPerFrame
	if frames == 0 {
		return 0, nil
	}
	if cap(r.buffer) < frames {
		r.buffer = make(sampler.AudioBuffer, frames)
	}
	buffer := r.buffer[:frames]
	if err := r.src(buffer); err != nil {
		r.err = err
		return 0, err
	}
	// we reuse the old capacity tmpBuffer by setting its length to zero
	r.tmpBuffer = AppendFloat32LE(r.tmpBuffer[:0], buffer)
	return copy(p, r.tmpBuffer), nil
}

func (r *sourceReader) finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err != nil
}

// Wait blocks until the source has ended and the device has played it.
func (o *OtoPlayer) Wait() {
	for !o.reader.finished() || o.player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}
}

// Err returns the error that stopped the source, nil if it ended normally.
func (o *OtoPlayer) Err() error {
	o.reader.mu.Lock()
	defer o.reader.mu.Unlock()
	if o.reader.err == io.EOF {
		return nil
	}
	return o.reader.err
}

func (o *OtoPlayer) Close() error {
	if err := o.player.Close(); err != nil {
		return fmt.Errorf("cannot close oto player: %w", err)
	}
	return nil
}
