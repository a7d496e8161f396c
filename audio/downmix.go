package audio

import "sync/atomic"

// Downmix reduces a multi-channel block to a single channel. With two or more
// channels the first two are averaged sample-wise; a single channel is copied
// through unchanged; no channels yields nil. Channels are assumed to be of
// equal length, as delivered by fixed-quantum audio callbacks.
func Downmix(channels [][]float32) []float32 {
	switch {
	case len(channels) >= 2:
		left, right := channels[0], channels[1]
		out := make([]float32, len(left))
		for i := range out {
			out[i] = 0.5 * (left[i] + right[i])
		}
		return out
	case len(channels) == 1:
		out := make([]float32, len(channels[0]))
		copy(out, channels[0])
		return out
	default:
		return nil
	}
}

// Downmixer runs inside a real-time audio callback and forwards mono blocks
// to a consumer without ever blocking the audio thread. When the consumer
// lags, blocks are dropped and counted instead of stalling the callback.
type Downmixer struct {
	out       chan []float32
	frameSize int
	dropped   atomic.Uint64
}

// NewDownmixer creates a Downmixer. frameSize is the expected quantum length,
// used to synthesize silence when a callback delivers no input channels.
// buffer is the capacity of the output channel.
func NewDownmixer(frameSize, buffer int) *Downmixer {
	return &Downmixer{
		out:       make(chan []float32, buffer),
		frameSize: frameSize,
	}
}

// Output is the channel the consumer reads mono blocks from.
func (d *Downmixer) Output() <-chan []float32 {
	return d.out
}

// Process downmixes one quantum and hands it off. It emits exactly one block
// per invocation and always returns true so the host keeps the callback
// scheduled. A callback with zero input channels emits silence.
func (d *Downmixer) Process(channels [][]float32) bool {
	block := Downmix(channels)
	if block == nil {
		block = make([]float32, d.frameSize)
	}
	select {
	case d.out <- block:
	default:
		d.dropped.Add(1)
	}
	return true
}

// Dropped reports how many blocks were discarded because the consumer was
// not keeping up.
func (d *Downmixer) Dropped() uint64 {
	return d.dropped.Load()
}

// Close releases the output channel. Process must not be called afterwards.
func (d *Downmixer) Close() {
	close(d.out)
}
