package sampler

import "io"

type (
	// AudioBuffer is a buffer of stereo frames.
	AudioBuffer [][2]float32

	// AudioSource fills the buffer with the next frames. It returns io.EOF
	// once there is nothing more to play.
	AudioSource func(buf AudioBuffer) error

	// AudioContext plays sources on an audio device.
	AudioContext interface {
		Play(src AudioSource) CloserWaiter
		Close() error
	}

	// CloserWaiter is a handle to a playing source. Wait blocks until the
	// source has been played to the end; Close stops it early.
	CloserWaiter interface {
		Close() error
		Wait()
	}
)

// Clear zeroes the buffer.
func (b AudioBuffer) Clear() {
	for i := range b {
		b[i] = [2]float32{}
	}
}

// Source returns an AudioSource that plays the buffer once.
func (b AudioBuffer) Source() AudioSource {
	pos := 0
	return func(buf AudioBuffer) error {
		n := copy(buf, b[pos:])
		buf[n:].Clear()
		pos += n
		if n == 0 {
			return io.EOF
		}
		return nil
	}
}
