package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
	"github.com/gorilla/websocket"

	"github.com/simulstream/simulstream/audio"
	"github.com/simulstream/simulstream/protocol"
)

const framesPerBuffer = 1024

// ListDevices returns the available audio input devices.
func ListDevices() ([]portaudio.DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	inputDevices := make([]portaudio.DeviceInfo, 0)
	for _, device := range devices {
		if device.MaxInputChannels > 0 {
			inputDevices = append(inputDevices, *device)
		}
	}
	return inputDevices, nil
}

// StreamMicrophone captures live audio and streams it until the context is
// cancelled. Stereo devices are captured with two channels and reduced to
// the mono wire format by the downmixer inside the audio callback; onEvent
// receives every server event as it arrives. deviceID <= 0 selects the
// default input device.
func (c *Client) StreamMicrophone(ctx context.Context, deviceID int, onEvent func(protocol.Event)) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	device, err := selectDevice(deviceID)
	if err != nil {
		return err
	}
	channels := 1
	if device.MaxInputChannels >= 2 {
		channels = 2
	}
	sampleRate := int(device.DefaultSampleRate)
	slog.Info("Using audio device",
		"deviceName", device.Name,
		"sampleRate", sampleRate,
		"channels", channels)

	conn, err := c.dial(ctx, sampleRate)
	if err != nil {
		return err
	}
	defer conn.Close()

	events := make(chan protocol.Event, 64)
	readErr := make(chan error, 1)
	go readEvents(conn, events, readErr)

	dm := audio.NewDownmixer(framesPerBuffer, 32)
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}, func(in [][]float32) {
		dm.Process(in)
	})
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	defer func() {
		if err := stream.Stop(); err != nil {
			slog.Error("Failed to stop audio stream", "error", err)
		}
		if dropped := dm.Dropped(); dropped > 0 {
			slog.Warn("Dropped audio blocks during capture", "blocks", dropped)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			// Flush whatever the server still holds before leaving.
			if err := c.sendControl(conn, protocol.SessionConfig{EndOfStream: true}); err != nil {
				slog.Error("Failed to send end of stream", "error", err)
				return nil
			}
			return drainFinalEvents(events, readErr, onEvent)
		case err := <-readErr:
			return fmt.Errorf("server connection lost: %w", err)
		case event := <-events:
			if onEvent != nil && !event.EndOfProcessing {
				onEvent(event)
			}
		case block := <-dm.Output():
			pcm := audio.Int16ToBytes(audio.Float32ToInt16(block))
			if err := conn.WriteMessage(websocket.BinaryMessage, pcm); err != nil {
				return fmt.Errorf("failed to send audio chunk: %w", err)
			}
		}
	}
}

// drainFinalEvents collects the output the server flushes after end_of_stream
// until the session acknowledges with end_of_processing.
func drainFinalEvents(events <-chan protocol.Event, readErr <-chan error, onEvent func(protocol.Event)) error {
	timeout := time.NewTimer(10 * time.Second)
	defer timeout.Stop()
	for {
		select {
		case event := <-events:
			if event.EndOfProcessing {
				return nil
			}
			if onEvent != nil {
				onEvent(event)
			}
		case <-readErr:
			return nil
		case <-timeout.C:
			slog.Warn("Timed out waiting for end of processing")
			return nil
		}
	}
}

func selectDevice(deviceID int) (*portaudio.DeviceInfo, error) {
	if deviceID <= 0 {
		device, err := portaudio.DefaultInputDevice()
		if err != nil {
			return nil, fmt.Errorf("failed to get default input device: %w", err)
		}
		return device, nil
	}
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get audio devices: %w", err)
	}
	if deviceID >= len(devices) {
		return nil, fmt.Errorf("invalid device ID %d", deviceID)
	}
	device := devices[deviceID]
	if device.MaxInputChannels == 0 {
		return nil, fmt.Errorf("device %d (%s) is not an input device", deviceID, device.Name)
	}
	return device, nil
}
