package audio

import "encoding/binary"

const (
	// ModelSampleRate is the rate every speech processor consumes audio at.
	ModelSampleRate = 16000

	// Channels and SampleWidth describe the wire format: mono 16-bit PCM.
	Channels    = 1
	SampleWidth = 2
)

// BytesToInt16 decodes little-endian 16-bit PCM. A trailing odd byte is
// dropped.
func BytesToInt16(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}

// Int16ToBytes encodes samples as little-endian 16-bit PCM.
func Int16ToBytes(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}

// Int16ToFloat32 converts wire samples to the [-1, 1) float range used by the
// speech processors.
func Int16ToFloat32(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768
	}
	return out
}

// Float32ToInt16 converts float samples to wire format, clipping out-of-range
// values.
func Float32ToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := s * 32768
		switch {
		case v > 32767:
			out[i] = 32767
		case v < -32768:
			out[i] = -32768
		default:
			out[i] = int16(v)
		}
	}
	return out
}
