package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulstream/simulstream/protocol"
)

func TestTranscriptFromEvents(t *testing.T) {
	events := []protocol.Event{
		{New: "hello word"},
		{Deleted: "d", New: "ld"},
		{New: " again"},
	}
	assert.Equal(t, "hello world again", transcriptFromEvents(events))
}

func TestTranscriptFromEventsClampsRetraction(t *testing.T) {
	events := []protocol.Event{
		{New: "hi"},
		{Deleted: "way too much text", New: "bye"},
	}
	// A retraction longer than the transcript leaves the text untouched.
	assert.Equal(t, "hibye", transcriptFromEvents(events))
}

func TestReadWAVList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.txt")
	content := "# evaluation set\n/data/a.wav\n\n  /data/b.wav  \n# skipped\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	paths, err := ReadWAVList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/a.wav", "/data/b.wav"}, paths)
}

func TestNewDefaultsChunkSeconds(t *testing.T) {
	c := New(Config{URI: "ws://localhost:8765"})
	assert.Equal(t, 0.5, c.cfg.ChunkSeconds)
}
