package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simulstream/simulstream/config"
)

func TestExtractTranscript(t *testing.T) {
	output := `
[00:00:00.000 --> 00:00:02.000]  Hello world.
[00:00:02.000 --> 00:00:04.000]  [BLANK_AUDIO]
[00:00:04.000 --> 00:00:06.000]  How are you?

`
	got := extractTranscript(output)
	assert.Equal(t, "Hello world. How are you?", got)

	assert.Equal(t, "", extractTranscript("[BLANK_AUDIO]\n"))
	assert.Equal(t, "", extractTranscript("[00:00:00.000 --> 00:00:02.000]  [BLANK_AUDIO]\n"))
	assert.Equal(t, "one two", extractTranscript("one two"))
}

func TestWhisperFactoryValidation(t *testing.T) {
	_, err := newWhisper(&config.Processor{Type: "whisper"})
	assert.Error(t, err)

	_, err = newWhisper(&config.Processor{Type: "whisper", WhisperPath: "/usr/bin/whisper"})
	assert.Error(t, err)

	proc, err := newWhisper(&config.Processor{
		Type: "whisper", WhisperPath: "/usr/bin/whisper", WhisperModel: "base.en",
		WindowLenSeconds: 30, MatchingThreshold: 0.1,
	})
	require.NoError(t, err)
	assert.NoError(t, proc.SetSourceLanguage("en"))
	assert.NoError(t, proc.SetTargetLanguage("en"))
	assert.Error(t, proc.SetTargetLanguage("de"))
}

func TestOpenAIFactoryValidation(t *testing.T) {
	t.Setenv(APIKeyEnv, "")
	_, err := newOpenAI(&config.Processor{Type: "openai"})
	assert.Error(t, err)

	t.Setenv(APIKeyEnv, "test-key")
	proc, err := newOpenAI(&config.Processor{Type: "openai", Task: "translate"})
	require.NoError(t, err)
	assert.NoError(t, proc.SetTargetLanguage("en"))
	assert.Error(t, proc.SetTargetLanguage("de"))
}
