package ai

import (
	"redub/pkg/tools"

	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type VoiceSettings struct {
	Stability       float64 `yaml:"stability" json:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost" json:"similarity_boost"`
	Style           float64 `yaml:"style" json:"style"`
}

type ElevenLabsConfig struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`

	Model        string         `yaml:"model"`
	OutputFormat string         `yaml:"output_format"`
	DefaultVoice string         `yaml:"default_voice"`
	Voice        *VoiceSettings `yaml:"voice_settings"`
}

const (
	defaultURL          = "https://api.elevenlabs.io"
	defaultModel        = "eleven_multilingual_v2"
	defaultOutputFormat = "mp3_44100_192"
	DefaultVoice        = "AZnzlk1XvdvUeBnXmlld"
)

var defaultVoiceSettings = VoiceSettings{
	Stability:       1,
	SimilarityBoost: 0.8,
	Style:           0.1,
}

type ElevenLabsClient struct {
	httpClient HTTPClient
	cfg        *ElevenLabsConfig
}

func NewElevenLabsClient(httpClient HTTPClient, cfg *ElevenLabsConfig) *ElevenLabsClient {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if cfg == nil {
		cfg = &ElevenLabsConfig{}
	}

	return &ElevenLabsClient{
		httpClient: httpClient,
		cfg:        cfg,
	}
}

type ttsReq struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type ttsErrResp struct {
	Detail json.RawMessage `json:"detail"`
}

// StatusError is a non 2xx answer from the tts api.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status code %d, err - %s", e.StatusCode, e.Body)
}

// Synthesize returns the encoded speech for text. An empty voiceID selects
// the configured default voice.
func (c *ElevenLabsClient) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text must not be empty")
	}

	if voiceID == "" {
		voiceID = c.defaultVoice()
	}

	start := time.Now()

	data, err := json.Marshal(&ttsReq{
		Text:          text,
		ModelID:       valueOr(c.cfg.Model, defaultModel),
		VoiceSettings: c.voiceSettings(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(voiceID), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	request.Header.Add("Content-Type", "application/json")
	request.Header.Add("Accept", "audio/mpeg")
	request.Header.Add("xi-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		metrics.TTSErrors.WithLabelValues("transport").Inc()
		return nil, fmt.Errorf("failed to post to tts server: %w", err)
	}
	defer tools.DrainAndClose(resp.Body)

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if resp.StatusCode > 299 {
		metrics.TTSErrors.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: errDetail(respData)}
	}

	if len(respData) == 0 {
		metrics.TTSErrors.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("tts server returned no audio")
	}

	metrics.TTSQueryTime.Observe(time.Since(start).Seconds())
	metrics.TTSChars.Add(float64(len(text)))

	return respData, nil
}

func (c *ElevenLabsClient) endpoint(voiceID string) string {
	base := strings.TrimRight(valueOr(c.cfg.URL, defaultURL), "/")

	q := url.Values{}
	q.Set("output_format", valueOr(c.cfg.OutputFormat, defaultOutputFormat))

	return base + "/v1/text-to-speech/" + url.PathEscape(voiceID) + "?" + q.Encode()
}

func (c *ElevenLabsClient) defaultVoice() string {
	return valueOr(c.cfg.DefaultVoice, DefaultVoice)
}

func (c *ElevenLabsClient) voiceSettings() VoiceSettings {
	if c.cfg.Voice == nil {
		return defaultVoiceSettings
	}
	return *c.cfg.Voice
}

func errDetail(body []byte) string {
	var resp ttsErrResp
	if err := json.Unmarshal(body, &resp); err == nil && len(resp.Detail) > 0 {
		return string(resp.Detail)
	}

	return string(body)
}

func valueOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
