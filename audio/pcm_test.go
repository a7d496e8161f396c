package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt16BytesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 12345}
	got := BytesToInt16(Int16ToBytes(samples))
	assert.Equal(t, samples, got)
}

func TestBytesToInt16DropsTrailingByte(t *testing.T) {
	data := []byte{0x01, 0x00, 0xff}
	got := BytesToInt16(data)
	assert.Equal(t, []int16{1}, got)
}

func TestInt16ToFloat32Range(t *testing.T) {
	got := Int16ToFloat32([]int16{0, -32768, 16384})
	assert.Equal(t, []float32{0, -1, 0.5}, got)
}

func TestFloat32ToInt16Clips(t *testing.T) {
	got := Float32ToInt16([]float32{0, 0.5, 1.5, -2, -1})
	assert.Equal(t, []int16{0, 16384, 32767, -32768, -32768}, got)
}
