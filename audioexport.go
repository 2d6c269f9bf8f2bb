package sampler

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Raw returns the buffer as interleaved little-endian stereo, either as
// float32 or, if pcm16 is true, as clamped int16.
func (b AudioBuffer) Raw(pcm16 bool) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(len(b) * 8)
	var err error
	if pcm16 {
		err = binary.Write(buf, binary.LittleEndian, b.PCM16())
	} else {
		err = binary.Write(buf, binary.LittleEndian, b)
	}
	if err != nil {
		return nil, fmt.Errorf("could not binary write data to binary buffer: %v", err)
	}
	return buf.Bytes(), nil
}

// PCM16 converts the buffer to interleaved int16 values, clamping anything
// outside [-1, 1].
func (b AudioBuffer) PCM16() []int16 {
	ret := make([]int16, len(b)*2)
	for i, v := range b {
		ret[2*i] = ToPCM16(v[0])
		ret[2*i+1] = ToPCM16(v[1])
	}
	return ret
}

// ToPCM16 converts one value to int16, clamping it to the representable range.
func ToPCM16(v float32) int16 {
	return int16(clamp(int(v*math.MaxInt16), math.MinInt16, math.MaxInt16))
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
