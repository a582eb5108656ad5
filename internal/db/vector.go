package db

import (
	"encoding/binary"
	"math"
)

// VectorBytes encodes a float32 vector as the little-endian blob that HASH
// vector fields and KNN query parameters expect.
func VectorBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
