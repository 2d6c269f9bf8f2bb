// Package meter measures the level of rendered audio: sliding window power
// and sample peaks, in decibels.
package meter

import (
	"fmt"
	"math"

	"github.com/viterin/vek/vek32"
	"github.com/vsariola/sampler"
)

type (
	Decibel float32

	// Meter analyzes audio in blocks of 100 ms. The momentary window is the
	// last 400 ms, the short-term window the last 3 s.
	Meter struct {
		blockSize int
		pending   sampler.AudioBuffer
		powers    [2]ringBuffer[float32]    // 0 = momentary, 1 = short-term
		peaks     [2][2]ringBuffer[float32] // window, channel
		maxPowers [2]float32
		maxPeak   [2]float32
		blocks    int
		tmp, tmp2 []float32
		result    Result
	}

	Result struct {
		Momentary    Decibel
		ShortTerm    Decibel
		MaxMomentary Decibel
		MaxShortTerm Decibel
		// Peak is the highest absolute sample of each channel so far.
		Peak          [2]Decibel
		PeakMomentary [2]Decibel
		PeakShortTerm [2]Decibel
		// Blocks is the number of 100 ms blocks analyzed.
		Blocks int
	}

	ringBuffer[T any] struct {
		Buffer []T
		Cursor int
	}
)

const (
	momentaryBlocks = 4
	shortTermBlocks = 30
)

func New(sampleRate int) *Meter {
	blockSize := max(sampleRate/10, 1)
	return &Meter{
		blockSize: blockSize,
		pending:   make(sampler.AudioBuffer, 0, blockSize),
		powers: [2]ringBuffer[float32]{
			{Buffer: make([]float32, momentaryBlocks)},
			{Buffer: make([]float32, shortTermBlocks)},
		},
		peaks: [2][2]ringBuffer[float32]{
			{{Buffer: make([]float32, momentaryBlocks)}, {Buffer: make([]float32, momentaryBlocks)}},
			{{Buffer: make([]float32, shortTermBlocks)}, {Buffer: make([]float32, shortTermBlocks)}},
		},
		tmp:    make([]float32, blockSize),
		tmp2:   make([]float32, blockSize),
		result: silentResult(),
	}
}

// Measure analyzes a whole buffer.
func Measure(buf sampler.AudioBuffer, sampleRate int) Result {
	m := New(sampleRate)
	m.Write(buf)
	m.Flush()
	return m.Result()
}

// Write feeds audio to the meter. Frames that do not fill a whole block are
// kept until the next call.
func (m *Meter) Write(buf sampler.AudioBuffer) {
	for len(buf) > 0 {
		if len(m.pending) > 0 || len(buf) < m.blockSize {
			l := min(len(buf), m.blockSize-len(m.pending))
			m.pending = append(m.pending, buf[:l]...)
			buf = buf[l:]
			if len(m.pending) < m.blockSize {
				return
			}
			m.update(m.pending)
			m.pending = m.pending[:0]
			continue
		}
		m.update(buf[:m.blockSize])
		buf = buf[m.blockSize:]
	}
}

// Flush analyzes the frames kept from the last Write as a short block.
func (m *Meter) Flush() {
	if len(m.pending) > 0 {
		m.update(m.pending)
		m.pending = m.pending[:0]
	}
}

func (m *Meter) Result() Result { return m.result }

func (m *Meter) Reset() {
	for i := range m.powers {
		m.powers[i].reset()
		m.peaks[i][0].reset()
		m.peaks[i][1].reset()
	}
	m.maxPowers = [2]float32{}
	m.maxPeak = [2]float32{}
	m.blocks = 0
	m.pending = m.pending[:0]
	m.result = silentResult()
}

func (m *Meter) update(chunk sampler.AudioBuffer) {
	var total float32
	for chn := range 2 {
		// deinterleave the channels
		x := m.tmp[:len(chunk)]
		for i := range chunk {
			x[i] = chunk[i][chn]
		}
		total += vek32.Mean(vek32.Mul_Into(m.tmp2[:len(chunk)], x, x))
		vek32.Abs_Inplace(x)
		p := vek32.Max(x)
		for i := range m.peaks {
			m.peaks[i][chn].WriteWrapSingle(p)
		}
		m.maxPeak[chn] = max(m.maxPeak[chn], p)
		m.result.Peak[chn] = amplitude2dB(m.maxPeak[chn])
		m.result.PeakMomentary[chn] = amplitude2dB(vek32.Max(m.peaks[0][chn].Buffer))
		m.result.PeakShortTerm[chn] = amplitude2dB(vek32.Max(m.peaks[1][chn].Buffer))
	}
	for i := range m.powers {
		m.powers[i].WriteWrapSingle(total)
		mean := vek32.Mean(m.powers[i].Buffer)
		m.maxPowers[i] = max(m.maxPowers[i], mean)
	}
	m.blocks++
	m.result.Momentary = power2dB(vek32.Mean(m.powers[0].Buffer))
	m.result.ShortTerm = power2dB(vek32.Mean(m.powers[1].Buffer))
	m.result.MaxMomentary = power2dB(m.maxPowers[0])
	m.result.MaxShortTerm = power2dB(m.maxPowers[1])
	m.result.Blocks = m.blocks
}

func silentResult() Result {
	inf := Decibel(math.Inf(-1))
	return Result{
		Momentary: inf, ShortTerm: inf, MaxMomentary: inf, MaxShortTerm: inf,
		Peak: [2]Decibel{inf, inf}, PeakMomentary: [2]Decibel{inf, inf}, PeakShortTerm: [2]Decibel{inf, inf},
	}
}

func power2dB(power float32) Decibel {
	return Decibel(10 * math.Log10(float64(power)))
}

func amplitude2dB(a float32) Decibel {
	return Decibel(20 * math.Log10(float64(a)))
}

func (d Decibel) String() string {
	if math.IsInf(float64(d), -1) {
		return "-inf dB"
	}
	return fmt.Sprintf("%.1f dB", float32(d))
}

func (r *ringBuffer[T]) WriteWrapSingle(value T) {
	r.Cursor = (r.Cursor + 1) % len(r.Buffer)
	r.Buffer[r.Cursor] = value
}

func (r *ringBuffer[T]) reset() {
	clear(r.Buffer)
	r.Cursor = 0
}
