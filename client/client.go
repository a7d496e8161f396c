// Package client implements the command-line streaming clients: a WAV-file
// client that replays audio files over a session and a live microphone
// client.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/protocol"
)

// Config describes a streaming client.
type Config struct {
	// URI of the WebSocket server, e.g. ws://localhost:8765.
	URI string

	SourceLang string
	TargetLang string

	// ChunkSeconds is the duration of each binary audio frame.
	ChunkSeconds float64

	// RealTime paces file streaming at playback speed instead of sending
	// as fast as the connection allows.
	RealTime bool

	// MetricsMetadata is forwarded to the server's metrics log, typically
	// the audio file name of the session.
	MetricsMetadata any
}

// Result collects the server output of one session.
type Result struct {
	Events     []protocol.Event
	Transcript string
}

// Client streams audio sessions to a server.
type Client struct {
	cfg Config
}

func New(cfg Config) *Client {
	if cfg.ChunkSeconds <= 0 {
		cfg.ChunkSeconds = 0.5
	}
	return &Client{cfg: cfg}
}

// StreamFile runs one complete session for a WAV file: configuration, audio
// chunks, end_of_stream, and collection of events until end_of_processing.
func (c *Client) StreamFile(ctx context.Context, path string) (*Result, error) {
	samples, rate, err := audio.ReadWAV(path)
	if err != nil {
		return nil, err
	}

	conn, err := c.dial(ctx, rate)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	events := make(chan protocol.Event, 64)
	readErr := make(chan error, 1)
	go readEvents(conn, events, readErr)

	chunkLen := int(c.cfg.ChunkSeconds * float64(rate))
	pcm := audio.Int16ToBytes(audio.Float32ToInt16(samples))
	chunkBytes := chunkLen * audio.SampleWidth

	var ticker *time.Ticker
	if c.cfg.RealTime {
		ticker = time.NewTicker(time.Duration(c.cfg.ChunkSeconds * float64(time.Second)))
		defer ticker.Stop()
	}

	for start := 0; start < len(pcm); start += chunkBytes {
		end := start + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[start:end]); err != nil {
			return nil, fmt.Errorf("failed to send audio chunk: %w", err)
		}
		if ticker != nil {
			select {
			case <-ticker.C:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if err := c.sendControl(conn, protocol.SessionConfig{EndOfStream: true}); err != nil {
		return nil, err
	}

	result := &Result{}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case err := <-readErr:
			return nil, fmt.Errorf("session ended before end_of_processing: %w", err)
		case event := <-events:
			if event.EndOfProcessing {
				result.Transcript = transcriptFromEvents(result.Events)
				return result, nil
			}
			result.Events = append(result.Events, event)
		}
	}
}

// StreamList runs one session per path in a WAV list file (one path per
// line, blank lines and #-comments skipped) and returns the transcripts in
// order.
func (c *Client) StreamList(ctx context.Context, listPath string) ([]Result, error) {
	paths, err := ReadWAVList(listPath)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(paths))
	for _, path := range paths {
		slog.Info("Streaming audio file", "file", path)
		res, err := c.StreamFile(ctx, path)
		if err != nil {
			return results, fmt.Errorf("streaming %s: %w", path, err)
		}
		results = append(results, *res)
	}
	return results, nil
}

// ReadWAVList parses a WAV list file.
func ReadWAVList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav list: %w", err)
	}
	defer f.Close()

	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read wav list: %w", err)
	}
	return paths, nil
}

func (c *Client) dial(ctx context.Context, sampleRate int) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.cfg.URI, err)
	}
	// Configuration must precede audio.
	err = c.sendControl(conn, protocol.SessionConfig{
		SampleRate:      sampleRate,
		SourceLang:      c.cfg.SourceLang,
		TargetLang:      c.cfg.TargetLang,
		MetricsMetadata: c.cfg.MetricsMetadata,
	})
	if err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Client) sendControl(conn *websocket.Conn, cfg protocol.SessionConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send control message: %w", err)
	}
	return nil
}

func readEvents(conn *websocket.Conn, events chan<- protocol.Event, readErr chan<- error) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			readErr <- err
			return
		}
		var event protocol.Event
		if err := json.Unmarshal(data, &event); err != nil {
			slog.Error("Invalid event from server", "error", err, "message", string(data))
			continue
		}
		events <- event
	}
}

// transcriptFromEvents replays incremental events into the final text:
// each event first retracts its deleted suffix, then appends its new text.
func transcriptFromEvents(events []protocol.Event) string {
	text := []rune{}
	for _, event := range events {
		if n := len([]rune(event.Deleted)); n > 0 && n <= len(text) {
			text = text[:len(text)-n]
		}
		text = append(text, []rune(event.New)...)
	}
	return strings.TrimSpace(string(text))
}
