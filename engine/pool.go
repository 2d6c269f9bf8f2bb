package engine

import (
	"github.com/viterin/vek/vek32"
	"github.com/vsariola/sampler"
)

type (
	// Pool owns a fixed number of voice slots. When every slot is live, a
	// trigger steals a victim chosen by the StealPolicy: the victim moves to a
	// bank of fading tails, where it fades out over the steal window without
	// counting as live, and the new voice takes over its slot.
	Pool struct {
		slots   []slot
		tails   []Voice
		residue residue
		policy  StealPolicy
		interp  Interpolation // of the last AdvanceAll
		seq     uint64
	}

	// residue is the output of tails dropped from a full bank, decaying
	// linearly to silence from the value the tail would have played next.
	residue struct {
		value, step [2]float32
		n           int
	}

	slot struct {
		voice Voice
		gen   uint32
		live  bool
	}
)

// NewPool creates a pool of capacity slots. All storage is allocated here;
// nothing the pool does afterwards allocates.
func NewPool(capacity int, policy StealPolicy) *Pool {
	return &Pool{
		slots:  make([]slot, capacity),
		tails:  make([]Voice, 0, capacity),
		policy: policy,
	}
}

// Cap returns the number of slots.
func (p *Pool) Cap() int { return len(p.slots) }

// Live returns the number of live voices. Fading tails of stolen voices are
// not counted.
func (p *Pool) Live() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].active() {
			n++
		}
	}
	return n
}

// Fading reports whether any stolen voice is still audible.
func (p *Pool) Fading() bool { return len(p.tails) > 0 || p.residue.n > 0 }

// Trigger places v in a free slot, stealing one if needed, and returns its id.
func (p *Pool) Trigger(v Voice) sampler.VoiceID {
	i := p.free()
	if i < 0 {
		i = p.victim()
		p.steal(i)
	}
	p.seq++
	v.seq = p.seq
	s := &p.slots[i]
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	s.voice = v
	s.live = true
	return sampler.VoiceID{Slot: i, Gen: s.gen}
}

// Release sends note-off to the voice. Unknown and stale ids are ignored.
func (p *Pool) Release(id sampler.VoiceID) {
	if v, ok := p.Voice(id); ok {
		v.transition(noteOff)
	}
}

// ReleaseAll sends note-off to every live voice.
func (p *Pool) ReleaseAll() {
	for i := range p.slots {
		if p.slots[i].active() {
			p.slots[i].voice.transition(noteOff)
		}
	}
}

// StealAll moves every live voice to the fading tails, leaving the pool
// empty.
func (p *Pool) StealAll() {
	for i := range p.slots {
		if p.slots[i].active() {
			p.steal(i)
		}
	}
}

// Voice returns the live voice with the id.
func (p *Pool) Voice(id sampler.VoiceID) (*Voice, bool) {
	if id.Slot < 0 || id.Slot >= len(p.slots) {
		return nil, false
	}
	s := &p.slots[id.Slot]
	if !s.active() || s.gen != id.Gen {
		return nil, false
	}
	return &s.voice, true
}

func (p *Pool) free() int {
	for i := range p.slots {
		if !p.slots[i].active() {
			return i
		}
	}
	return -1
}

// active reports whether the slot holds a voice that has not finished. A
// finished voice keeps its slot until the next AdvanceAll, but the slot can
// be reused right away.
func (s *slot) active() bool {
	return s.live && s.voice.phase != sampler.Finished
}

// victim picks the slot to steal. Only called when every slot is live.
func (p *Pool) victim() int {
	best := 0
	for i := 1; i < len(p.slots); i++ {
		if p.prefer(&p.slots[i].voice, &p.slots[best].voice) {
			best = i
		}
	}
	return best
}

// prefer reports whether a is a better victim than b. Strict comparisons keep
// the lower slot on ties.
func (p *Pool) prefer(a, b *Voice) bool {
	switch p.policy {
	case StealQuietest:
		la, lb := a.Level(), b.Level()
		if la != lb {
			return la < lb
		}
	default:
		ra, rb := a.phase == sampler.Releasing, b.phase == sampler.Releasing
		if ra != rb {
			return ra
		}
	}
	return a.seq < b.seq
}

// steal moves the voice of slot i to the tails, fading. If the tail bank is
// full, the quietest tail is replaced and its output continues as residue.
func (p *Pool) steal(i int) {
	s := &p.slots[i]
	v := s.voice
	s.live = false
	v.transition(stolen)
	if v.phase == sampler.Finished {
		return
	}
	if len(p.tails) < cap(p.tails) {
		p.tails = append(p.tails, v)
		return
	}
	q := 0
	for j := 1; j < len(p.tails); j++ {
		if p.tails[j].Level() < p.tails[q].Level() {
			q = j
		}
	}
	p.drop(&p.tails[q])
	p.tails[q] = v
}

func (p *Pool) drop(t *Voice) {
	peek := *t
	var next [2]float32
	peek.render(next[:], p.interp)
	p.residue.add(next[0], next[1], t.env.remaining())
}

func (r *residue) add(l, rt float32, frames int) {
	r.value[0] += l
	r.value[1] += rt
	r.n = max(frames, r.n, 1)
	r.step = [2]float32{r.value[0] / float32(r.n), r.value[1] / float32(r.n)}
}

// mix adds the residue to the interleaved stereo buffer.
func (r *residue) mix(out []float32) {
	for i := 0; i+1 < len(out) && r.n > 0; i += 2 {
		out[i] += r.value[0]
		out[i+1] += r.value[1]
		r.value[0] -= r.step[0]
		r.value[1] -= r.step[1]
		r.n--
	}
	if r.n == 0 {
		*r = residue{}
	}
}

// AdvanceAll renders frames of every live voice and fading tail into
// scratch, sums each contribution into mix and reclaims the slots of voices
// that finished. mix and scratch hold interleaved stereo and must be at least
// 2*frames long. If levels is not nil, levels[slot] is raised to the peak
// amplitude of the slot's voice during the call.
func (p *Pool) AdvanceAll(frames int, mix, scratch, levels []float32, interp Interpolation) {
	if frames <= 0 {
		return
	}
	p.interp = interp
	out := scratch[:2*frames]
	mix = mix[:2*frames]
	for i := range p.slots {
		s := &p.slots[i]
		if !s.active() {
			s.live = false
			continue
		}
		s.voice.render(out, interp)
		vek32.Add_Inplace(mix, out)
		if levels != nil {
			levels[i] = max(levels[i], vek32.Max(out), -vek32.Min(out))
		}
		if s.voice.phase == sampler.Finished {
			s.live = false
		}
	}
	for j := 0; j < len(p.tails); {
		t := &p.tails[j]
		t.render(out, interp)
		vek32.Add_Inplace(mix, out)
		if t.phase == sampler.Finished {
			last := len(p.tails) - 1
			p.tails[j] = p.tails[last]
			p.tails = p.tails[:last]
			continue
		}
		j++
	}
	p.residue.mix(mix)
}
