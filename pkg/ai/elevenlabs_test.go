package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"redub/pkg/ai"

	"github.com/stretchr/testify/require"
)

func TestElevenLabsSynthesizeSuccess(t *testing.T) {
	t.Parallel()

	var observed map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/text-to-speech/voice-1", r.URL.Path)
		require.Equal(t, "mp3_44100_192", r.URL.Query().Get("output_format"))
		require.Equal(t, "secret", r.Header.Get("xi-api-key"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &observed))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ID3...."))
	}))
	defer srv.Close()

	client := ai.NewElevenLabsClient(srv.Client(), &ai.ElevenLabsConfig{
		URL:    srv.URL,
		APIKey: "secret",
	})

	audio, err := client.Synthesize(context.Background(), "  hello world ", "voice-1")
	require.NoError(t, err)
	require.Equal(t, []byte("ID3...."), audio)

	require.Equal(t, "hello world", observed["text"])
	require.Equal(t, "eleven_multilingual_v2", observed["model_id"])

	settings, ok := observed["voice_settings"].(map[string]any)
	require.True(t, ok)
	require.EqualValues(t, 1, settings["stability"])
	require.EqualValues(t, 0.8, settings["similarity_boost"])
	require.EqualValues(t, 0.1, settings["style"])
}

func TestElevenLabsDefaultVoice(t *testing.T) {
	t.Parallel()

	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte("audio"))
	}))
	defer srv.Close()

	client := ai.NewElevenLabsClient(srv.Client(), &ai.ElevenLabsConfig{URL: srv.URL + "/"})

	_, err := client.Synthesize(context.Background(), "hi", "")
	require.NoError(t, err)
	require.Equal(t, "/v1/text-to-speech/"+ai.DefaultVoice, path)
}

func TestElevenLabsSynthesizeError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":{"status":"invalid_api_key"}}`))
	}))
	defer srv.Close()

	client := ai.NewElevenLabsClient(srv.Client(), &ai.ElevenLabsConfig{URL: srv.URL})

	_, err := client.Synthesize(context.Background(), "hello", "v")
	require.Error(t, err)

	var serr *ai.StatusError
	require.True(t, errors.As(err, &serr))
	require.Equal(t, http.StatusUnauthorized, serr.StatusCode)
	require.Contains(t, err.Error(), "invalid_api_key")
}

func TestElevenLabsRejectsEmptyText(t *testing.T) {
	t.Parallel()

	client := ai.NewElevenLabsClient(nil, nil)

	_, err := client.Synthesize(context.Background(), "   ", "v")
	require.Error(t, err)
}

func TestElevenLabsEmptyAudio(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := ai.NewElevenLabsClient(srv.Client(), &ai.ElevenLabsConfig{URL: srv.URL})

	_, err := client.Synthesize(context.Background(), "hello", "v")
	require.Error(t, err)
}
