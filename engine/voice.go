package engine

import (
	"math"

	"github.com/vsariola/sampler"
)

type (
	// Voice is one playing instance of a Sample. Voices live in the slots of
	// a Pool and are only created by it.
	Voice struct {
		sample   *sampler.Sample
		pos      float64 // play-head in source frames
		step     float64 // source frames per output frame
		ratio    float64 // requested pitch / root pitch
		phase    sampler.Phase
		gain     float32
		env      ramp
		looping  bool
		wrapped  bool // the play-head has wrapped the loop at least once
		loop     sampler.Region
		end      float64 // the play-head finishes when it reaches end
		frames   int     // frames in sample
		seq      uint64  // trigger order
		pitch    sampler.Hz
		velocity sampler.Velocity

		releaseLen int
		stealLen   int
	}

	// ramp moves a level linearly from `from` to `to` over n frames. A ramp
	// with n == 0 holds `to`.
	ramp struct {
		from, to float32
		n, i     int
	}

	// voiceEvent is an input of the phase transition function.
	voiceEvent int

	// voiceParams are the engine settings a voice needs, in output frames.
	voiceParams struct {
		outputRate    int
		attack        int
		release       int
		stealFade     int
		velocityCurve float32
		tune          float64 // playback ratio of the detune
	}
)

const (
	noteOff     voiceEvent = iota // note released
	stolen                        // slot reclaimed by the pool
	rampDone                      // envelope ramp reached its target
	materialEnd                   // play-head passed the end of the playable material
)

func steady(level float32) ramp { return ramp{from: level, to: level} }

func (r *ramp) level() float32 {
	if r.i >= r.n {
		return r.to
	}
	return r.from + (r.to-r.from)*float32(r.i)/float32(r.n)
}

func (r *ramp) moving() bool { return r.i < r.n }

func (r *ramp) remaining() int { return r.n - r.i }

// tick advances the ramp by one frame and reports whether it just finished.
func (r *ramp) tick() bool {
	if r.i >= r.n {
		return false
	}
	r.i++
	return r.i == r.n
}

func newVoice(s *sampler.Sample, pitch sampler.Hz, velocity sampler.Velocity, p *voiceParams) Voice {
	v := Voice{
		sample:     s,
		phase:      sampler.Sustaining,
		env:        steady(1),
		frames:     s.NumFrames(),
		releaseLen: p.release,
		stealLen:   p.stealFade,
	}
	v.retune(pitch, velocity, p)
	v.end = float64(v.frames)
	if s.Loop != nil {
		v.looping = true
		v.loop = *s.Loop
	}
	if p.attack > 0 {
		v.phase = sampler.Attacking
		v.env = ramp{from: 0, to: 1, n: p.attack}
	}
	return v
}

func (v *Voice) retune(pitch sampler.Hz, velocity sampler.Velocity, p *voiceParams) {
	v.pitch = pitch
	v.velocity = velocity
	v.ratio = float64(pitch/v.sample.Root) * p.tune
	v.step = v.ratio * float64(v.sample.SampleRate) / float64(p.outputRate)
	v.gain = velocityGain(velocity, p.velocityCurve) * v.sample.Gain()
}

// rebind moves a sounding voice to another sample, keeping its play-head
// where possible.
func (v *Voice) rebind(s *sampler.Sample, pitch sampler.Hz, velocity sampler.Velocity, p *voiceParams) {
	pos := v.pos
	v.sample = s
	v.frames = s.NumFrames()
	v.end = float64(v.frames)
	v.looping = s.Loop != nil
	v.wrapped = false
	if v.looping {
		v.loop = *s.Loop
		if pos >= float64(v.loop.End) {
			pos = float64(v.loop.Start) + math.Mod(pos-float64(v.loop.End), float64(v.loop.Len()))
			v.wrapped = true
		}
	} else if pos >= v.end {
		pos = 0
	}
	v.pos = pos
	v.retune(pitch, velocity, p)
}

func velocityGain(velocity sampler.Velocity, curve float32) float32 {
	vel := min(max(float32(velocity), 0), 1)
	return 1 - curve + curve*vel
}

// Phase returns the playback phase.
func (v *Voice) Phase() sampler.Phase { return v.phase }

// Position returns the play-head in source frames.
func (v *Voice) Position() float64 { return v.pos }

// Ratio returns the pitch ratio: requested pitch divided by root pitch, times
// the detune.
func (v *Voice) Ratio() float64 { return v.ratio }

// Level returns the current amplitude scalar, gain times envelope.
func (v *Voice) Level() float32 { return v.gain * v.env.level() }

func (v *Voice) Sample() *sampler.Sample { return v.sample }

// transition is the phase state machine of a voice.
func (v *Voice) transition(e voiceEvent) {
	switch v.phase {
	case sampler.Attacking, sampler.Sustaining:
		switch e {
		case rampDone:
			if v.phase == sampler.Attacking {
				v.phase = sampler.Sustaining
				v.env = steady(1)
			}
		case noteOff:
			v.phase = sampler.Releasing
			if rel := v.sample.Release; rel != nil {
				v.enterTrail(*rel)
				v.env = steady(v.env.level())
			} else {
				v.fade(v.releaseLen)
			}
		case stolen:
			v.phase = sampler.Releasing
			v.fade(v.stealLen)
		case materialEnd:
			v.phase = sampler.Finished
		}
	case sampler.Releasing:
		switch e {
		case stolen:
			if !v.env.moving() || v.env.remaining() > v.stealLen {
				v.fade(v.stealLen)
			}
		case rampDone, materialEnd:
			v.phase = sampler.Finished
		}
	}
}

func (v *Voice) fade(frames int) {
	lvl := v.env.level()
	if frames <= 0 || lvl <= 0 {
		v.phase = sampler.Finished
		return
	}
	v.env = ramp{from: lvl, to: 0, n: frames}
}

// enterTrail jumps to the release trail, keeping the fractional offset.
func (v *Voice) enterTrail(rel sampler.Region) {
	_, frac := math.Modf(v.pos)
	v.pos = float64(rel.Start) + frac
	v.end = float64(rel.End)
	v.looping = false
}

// render overwrites out, which holds len(out)/2 interleaved stereo frames,
// with the output of the voice, advancing it. Frames after the voice finished
// are zero.
func (v *Voice) render(out []float32, interp Interpolation) {
	n := len(out) / 2
	i := 0
	for ; i < n && v.phase != sampler.Finished; i++ {
		var l, r float32
		if interp == Hermite {
			l, r = v.readHermite()
		} else {
			l, r = v.readLinear()
		}
		g := v.gain * v.env.level()
		out[2*i] = l * g
		out[2*i+1] = r * g
		if v.env.tick() {
			v.transition(rampDone)
		}
		v.advance()
	}
	clear(out[2*i:])
}

func (v *Voice) advance() {
	if v.phase == sampler.Finished {
		return
	}
	v.pos += v.step
	if v.looping {
		if end := float64(v.loop.End); v.pos >= end {
			v.pos = float64(v.loop.Start) + math.Mod(v.pos-end, float64(v.loop.Len()))
			v.wrapped = true
		}
		return
	}
	if v.pos >= v.end {
		v.transition(materialEnd)
	}
}

// index splits the play-head into a frame index, clamped into the sample, and
// a fraction in [0, 1).
func (v *Voice) index() (int, float32) {
	fl := math.Floor(v.pos)
	i := int(fl)
	frac := float32(v.pos - fl)
	if i < 0 || math.IsNaN(v.pos) {
		return 0, 0
	}
	if i >= v.frames {
		return v.frames - 1, 0
	}
	if frac >= 1 {
		frac = 0
	}
	return i, frac
}

// neighbour maps a frame index next to the play-head onto the material being
// played: across the loop seam while looping, silence outside the buffer.
func (v *Voice) neighbour(k int) int {
	if v.looping {
		if k >= v.loop.End {
			return v.loop.Start + (k-v.loop.End)%v.loop.Len()
		}
		if v.wrapped && k < v.loop.Start {
			return k + v.loop.Len()
		}
	}
	return k
}

func (v *Voice) readLinear() (float32, float32) {
	i, t := v.index()
	l0, r0 := v.sample.Frame(i)
	if t == 0 {
		return l0, r0
	}
	l1, r1 := v.sample.Frame(v.neighbour(i + 1))
	return l0 + (l1-l0)*t, r0 + (r1-r0)*t
}

func (v *Voice) readHermite() (float32, float32) {
	i, t := v.index()
	l0, r0 := v.sample.Frame(i)
	if t == 0 {
		return l0, r0
	}
	lm, rm := v.sample.Frame(v.neighbour(i - 1))
	l1, r1 := v.sample.Frame(v.neighbour(i + 1))
	l2, r2 := v.sample.Frame(v.neighbour(i + 2))
	return hermite(lm, l0, l1, l2, t), hermite(rm, r0, r1, r2, t)
}

func hermite(xm1, x0, x1, x2, t float32) float32 {
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)
	return ((c3*t+c2)*t+c1)*t + x0
}
