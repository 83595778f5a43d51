package cfg

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"redub/db"
	"redub/internal/app/api"
	"redub/internal/app/dubbing"
	"redub/pkg/ai"
	"redub/pkg/ffmpeg"
	"redub/pkg/s3client"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Api api.Config `yaml:"api"`

	DB db.Config `yaml:"db"`

	Ffmpeg     ffmpeg.Config       `yaml:"ffmpeg"`
	ElevenLabs ai.ElevenLabsConfig `yaml:"eleven_labs"`
	S3         s3client.Config     `yaml:"s3"`

	InfluxDB InfluxConfig `yaml:"influx"`

	Dubbing dubbing.Config `yaml:"dubbing"`
}

type InfluxConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

func (c *InfluxConfig) Enabled() bool {
	return c.URL != ""
}

// Load reads the yaml config at path. A .env file in the working directory,
// if present, is loaded first, and secrets in the environment override the
// file.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't open %s file: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var conf Config
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, fmt.Errorf("can't unmarshal config: %w", err)
	}

	applyEnv(&conf)

	return &conf, nil
}

func applyEnv(conf *Config) {
	if v := os.Getenv("ELEVENLABS_API_KEY"); v != "" {
		conf.ElevenLabs.APIKey = v
	}
	if v := os.Getenv("POSTGRES_CONN_STR"); v != "" {
		conf.DB.ConnStr = v
	}
	if v := os.Getenv("INFLUX_TOKEN"); v != "" {
		conf.InfluxDB.Token = v
	}
	if v := os.Getenv("S3_SECRET_ACCESS_KEY"); v != "" {
		conf.S3.SecretAccessKey = v
	}
}
