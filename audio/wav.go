package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	wav "github.com/youpy/go-wav"
)

type wavHeader struct {
	ChunkID       [4]byte
	ChunkSize     uint32
	Format        [4]byte
	Subchunk1ID   [4]byte
	Subchunk1Size uint32
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte
	Subchunk2Size uint32
}

// WriteWAVHeader writes a mono 16-bit PCM header for the given sample rate.
// dataSize may be zero when the final length is not known yet; use
// UpdateWAVHeader once it is.
func WriteWAVHeader(w io.Writer, sampleRate int, dataSize uint32) error {
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     dataSize + 36,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   Channels,
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * Channels * SampleWidth,
		BlockAlign:    Channels * SampleWidth,
		BitsPerSample: SampleWidth * 8,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
	return binary.Write(w, binary.LittleEndian, header)
}

// UpdateWAVHeader patches the two size fields after the data has been
// appended.
func UpdateWAVHeader(f *os.File, dataSize uint32) error {
	if _, err := f.Seek(4, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to ChunkSize: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, dataSize+36); err != nil {
		return fmt.Errorf("failed to write ChunkSize: %w", err)
	}
	if _, err := f.Seek(40, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to Subchunk2Size: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, dataSize); err != nil {
		return fmt.Errorf("failed to write Subchunk2Size: %w", err)
	}
	return nil
}

// EncodeWAV renders mono float32 samples as a complete in-memory WAV file.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	pcm := Int16ToBytes(Float32ToInt16(samples))
	w := &appendWriter{buf: make([]byte, 0, 44+len(pcm))}
	if err := WriteWAVHeader(w, sampleRate, uint32(len(pcm))); err != nil {
		return nil, err
	}
	w.buf = append(w.buf, pcm...)
	return w.buf, nil
}

type appendWriter struct{ buf []byte }

func (w *appendWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// ReadWAV decodes a WAV file into mono float32 samples at the file's own
// sample rate. Multi-channel files are downmixed by channel averaging.
func ReadWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer f.Close()

	reader := wav.NewReader(f)
	format, err := reader.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV format: %w", err)
	}

	var samples []float32
	for {
		read, err := reader.ReadSamples(2048)
		for _, s := range read {
			var sum float32
			for ch := 0; ch < int(format.NumChannels); ch++ {
				sum += float32(reader.FloatValue(s, uint(ch)))
			}
			samples = append(samples, sum/float32(format.NumChannels))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read WAV samples: %w", err)
		}
	}
	return samples, int(format.SampleRate), nil
}

// ReadWAVSegment reads offset seconds into a file and returns duration
// seconds of audio, as referenced by the audio-definition files used for
// evaluation. A duration of zero means until end of file.
func ReadWAVSegment(path string, offset, duration float64) ([]float32, int, error) {
	samples, rate, err := ReadWAV(path)
	if err != nil {
		return nil, 0, err
	}
	start := int(offset * float64(rate))
	if start > len(samples) {
		return nil, rate, fmt.Errorf("offset %.2fs is beyond end of %s", offset, path)
	}
	end := len(samples)
	if duration > 0 {
		if e := start + int(duration*float64(rate)); e < end {
			end = e
		}
	}
	return samples[start:end], rate, nil
}
