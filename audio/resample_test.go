package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResampleIdentity(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	assert.Equal(t, samples, Resample(samples, 16000, 16000))
	assert.Empty(t, Resample(nil, 48000, 16000))
}

func TestResampleDownsamplesLength(t *testing.T) {
	samples := make([]float32, 48000)
	got := Resample(samples, 48000, 16000)
	assert.Len(t, got, 16000)
}

func TestResamplePreservesConstantSignal(t *testing.T) {
	samples := make([]float32, 800)
	for i := range samples {
		samples[i] = 0.25
	}
	for _, s := range Resample(samples, 8000, 16000) {
		assert.Equal(t, float32(0.25), s)
	}
}

func TestResampleInterpolates(t *testing.T) {
	// Upsampling by 2 places midpoints between neighbouring samples.
	got := Resample([]float32{0, 1}, 1, 2)
	assert.Equal(t, []float32{0, 0.5, 1, 1}, got)
}
