package server

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/processor"
	"github.com/simulstream/simulstream/protocol"
)

// Time allowed to write an event to the peer.
const writeWait = 10 * time.Second

type session struct {
	id     uuid.UUID
	conn   *websocket.Conn
	server *Server
	proc   processor.SpeechProcessor

	buffer           []byte
	sampleRate       int
	processedSeconds float64

	recording *os.File
	recorded  uint32
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	proc, err := processor.Build(s.procCfg)
	if err != nil {
		slog.Error("Failed to build speech processor for session", "error", err)
		conn.Close()
		return
	}

	sess := &session{
		id:         uuid.New(),
		conn:       conn,
		server:     s,
		proc:       proc,
		sampleRate: audio.ModelSampleRate,
	}
	s.sessions.Add(&SessionInfo{ID: sess.id, Addr: conn.RemoteAddr().String()})
	s.collectors.SessionsTotal.Inc()
	s.collectors.ActiveSessions.Inc()

	slog.Info("Client connected", "sessionID", sess.id, "remoteAddr", conn.RemoteAddr())
	sess.run(r.Context())

	s.sessions.Remove(sess.id)
	s.collectors.ActiveSessions.Dec()
	sess.closeRecording()
	conn.Close()
	slog.Info("Client disconnected", "sessionID", sess.id, "remoteAddr", conn.RemoteAddr())
}

// run iterates over the messages of one connection. Binary frames are audio
// chunks; text frames carry session configuration. Audio is buffered until
// at least speech_processing_frequency seconds are available, then handed to
// the speech processor as one increment.
func (sess *session) run(ctx context.Context) {
	for {
		messageType, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("WebSocket read error", "error", err, "sessionID", sess.id)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			sess.buffer = append(sess.buffer, data...)
			sess.record(data)
			if sess.bufferedSeconds() >= sess.server.cfg.SpeechProcessingFrequency {
				if err := sess.flush(ctx); err != nil {
					slog.Error("Failed to process audio increment", "error", err, "sessionID", sess.id)
				}
			}

		case websocket.TextMessage:
			if err := sess.handleControl(ctx, data); err != nil {
				// Invalid control messages are logged and ignored so a
				// misbehaving client cannot kill its own session.
				slog.Error("Invalid control message", "error", err,
					"message", string(data), "sessionID", sess.id)
			}
		}
	}
}

func (sess *session) handleControl(ctx context.Context, data []byte) error {
	cfg, err := protocol.ParseSessionConfig(data)
	if err != nil {
		return err
	}

	if cfg.SampleRate > 0 {
		sess.sampleRate = cfg.SampleRate
	}
	if cfg.SourceLang != "" {
		if err := sess.proc.SetSourceLanguage(cfg.SourceLang); err != nil {
			return err
		}
		slog.Debug("Source language set", "sessionID", sess.id, "lang", cfg.SourceLang)
	}
	if cfg.TargetLang != "" {
		if err := sess.proc.SetTargetLanguage(cfg.TargetLang); err != nil {
			return err
		}
		slog.Debug("Target language set", "sessionID", sess.id, "lang", cfg.TargetLang)
	}
	if cfg.MetricsMetadata != nil {
		if err := sess.server.metricsLog.AppendMetadata(sess.id.String(), cfg.MetricsMetadata); err != nil {
			slog.Error("Failed to log metrics metadata", "error", err, "sessionID", sess.id)
		}
	}
	if cfg.EndOfStream {
		return sess.endOfStream(ctx)
	}
	return nil
}

// flush converts the buffered wire audio to model-rate float samples and
// runs one processing increment.
func (sess *session) flush(ctx context.Context) error {
	seconds := sess.bufferedSeconds()
	sess.processedSeconds += seconds
	waveform := audio.Int16ToFloat32(audio.BytesToInt16(sess.buffer))
	sess.buffer = sess.buffer[:0]
	if sess.sampleRate != audio.ModelSampleRate {
		waveform = audio.Resample(waveform, sess.sampleRate, audio.ModelSampleRate)
	}

	start := time.Now()
	out, err := sess.proc.ProcessChunk(ctx, waveform)
	if err != nil {
		return err
	}
	computation := time.Since(start).Seconds()

	sess.server.collectors.ChunksProcessed.Inc()
	sess.server.collectors.AudioSeconds.Add(seconds)
	sess.server.collectors.ProcessingTime.Observe(computation)

	if err := sess.server.metricsLog.AppendIncrement(
		sess.id.String(), sess.processedSeconds, computation,
		out.NewTokens, out.DeletedTokens); err != nil {
		slog.Error("Failed to log increment", "error", err, "sessionID", sess.id)
	}

	return sess.sendEvent(out.Event())
}

// endOfStream processes any remaining audio, resets the processor, and
// acknowledges with an end_of_processing event.
func (sess *session) endOfStream(ctx context.Context) error {
	if len(sess.buffer) > 0 {
		if err := sess.flush(ctx); err != nil {
			return err
		}
	}
	if out, err := sess.proc.EndOfStream(ctx); err == nil {
		if out.NewString != "" || out.DeletedString != "" {
			if err := sess.sendEvent(out.Event()); err != nil {
				return err
			}
		}
	} else {
		slog.Error("Processor end of stream failed", "error", err, "sessionID", sess.id)
	}
	sess.buffer = sess.buffer[:0]
	sess.processedSeconds = 0
	sess.proc.Clear()
	sess.closeRecording()
	return sess.sendEvent(protocol.Event{EndOfProcessing: true})
}

func (sess *session) sendEvent(event protocol.Event) error {
	data, err := event.Marshal()
	if err != nil {
		return err
	}
	sess.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		sess.server.collectors.EventSendErrors.Inc()
		return err
	}
	return nil
}

func (sess *session) bufferedSeconds() float64 {
	return float64(len(sess.buffer)) / audio.SampleWidth / float64(sess.sampleRate)
}

// record archives received wire audio to a per-session WAV file when
// recording is enabled.
func (sess *session) record(data []byte) {
	cfg := sess.server.cfg.Recording
	if !cfg.Enabled {
		return
	}
	if sess.recording == nil {
		dir := filepath.Join(cfg.Dir, time.Now().Format("20060102"))
		if err := os.MkdirAll(dir, 0755); err != nil {
			slog.Error("Failed to create recording directory", "error", err, "path", dir)
			return
		}
		f, err := os.Create(filepath.Join(dir, sess.id.String()+".wav"))
		if err != nil {
			slog.Error("Failed to create recording file", "error", err, "sessionID", sess.id)
			return
		}
		if err := audio.WriteWAVHeader(f, sess.sampleRate, 0); err != nil {
			slog.Error("Failed to write WAV header", "error", err, "sessionID", sess.id)
			f.Close()
			return
		}
		sess.recording = f
	}
	if _, err := sess.recording.Write(data); err != nil {
		slog.Error("Failed to write recording", "error", err, "sessionID", sess.id)
		return
	}
	sess.recorded += uint32(len(data))
}

func (sess *session) closeRecording() {
	if sess.recording == nil {
		return
	}
	if err := audio.UpdateWAVHeader(sess.recording, sess.recorded); err != nil {
		slog.Error("Failed to update WAV header", "error", err, "sessionID", sess.id)
	}
	sess.recording.Close()
	sess.recording = nil
	sess.recorded = 0
}
