package oto

import (
	"encoding/binary"
	"math"

	"github.com/vsariola/sampler"
)

// AppendFloat32LE appends the frames of buffer to dst as interleaved
// little-endian float32, the format of the oto context.
func AppendFloat32LE(dst []byte, buffer sampler.AudioBuffer) []byte {
	for _, f := range buffer {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f[0]))
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f[1]))
	}
	return dst
}
