package cfg_test

import (
	"testing"
	"time"

	"redub/cfg"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert := require.New(t)

	t.Setenv("ELEVENLABS_API_KEY", "from-env")
	t.Setenv("POSTGRES_CONN_STR", "")

	conf, err := cfg.Parse([]byte(`
api:
  port: 8080
db:
  conn_str: postgres://localhost/test
eleven_labs:
  api_key: from-file
  voice_settings:
    stability: 0.5
dubbing:
  videos_dir: /data/videos
  synthesis_concurrency: 8
  run_timeout: 15m
`))
	assert.NoError(err)

	assert.Equal(8080, conf.Api.Port)
	assert.Equal("postgres://localhost/test", conf.DB.ConnStr, "empty env doesn't override")
	assert.Equal("from-env", conf.ElevenLabs.APIKey)
	assert.Equal(0.5, conf.ElevenLabs.Voice.Stability)
	assert.Equal("/data/videos", conf.Dubbing.VideosDir)
	assert.Equal(8, conf.Dubbing.SynthesisConcurrency)
	assert.Equal(15*time.Minute, conf.Dubbing.RunTimeout)
	assert.False(conf.InfluxDB.Enabled())
	assert.False(conf.S3.Enabled())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := cfg.Load(t.TempDir() + "/nope.yaml")
	require.Error(t, err)
}

func TestExampleConfigParses(t *testing.T) {
	conf, err := cfg.Load("cfg.example.yaml")
	require.NoError(t, err)
	require.Equal(t, "eleven_multilingual_v2", conf.ElevenLabs.Model)
}
