package sampler

// Synth is a polyphonic sample player driven by note events. Implementations
// are not safe for concurrent use: events and Render calls must come from the
// same goroutine, or be serialized by the caller.
type Synth interface {
	// Trigger starts a voice for the pitch and velocity. ok is false if no
	// zone matches, in which case nothing happens.
	Trigger(pitch Hz, velocity Velocity) (id VoiceID, ok bool)
	// Legato moves the voice id to a new pitch without restarting its play
	// position. If id is no longer live, Legato behaves like Trigger.
	Legato(id VoiceID, pitch Hz, velocity Velocity) (VoiceID, bool)
	// Release starts the release of the voice. Stale ids are ignored.
	Release(id VoiceID)
	// ReleaseAll releases every live voice.
	ReleaseAll()
	// Render overwrites the buffer with the next frames of the mix.
	Render(buffer AudioBuffer)
	// Live returns the number of voices that have not finished.
	Live() int
}

// Play renders the buffer full with synth and returns it; a convenience for
// rendering a fixed number of frames in one call.
func Play(synth Synth, frames int) AudioBuffer {
	buffer := make(AudioBuffer, frames)
	synth.Render(buffer)
	return buffer
}
