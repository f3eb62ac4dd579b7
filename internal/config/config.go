// Package config provides the configuration structure for tts-dataset.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/pelletier/go-toml/v2"
)

// Default settings, used when neither a config file nor the central
// configuration overrides them.
const (
	DefaultSampleRateHertz    = 16000
	DefaultRateLimitDelayMS   = 2000
	DefaultProvider           = "Google Cloud TTS"
	DefaultConversionBinary   = "sox"
	DefaultSilenceTrack       = "silence.wav"
	DefaultUploaderBinary     = "edge-impulse-uploader"
	DefaultProgressIntervalMS = 3000
	DefaultMP3Dir             = "out-mp3"
	DefaultWAVDir             = "out-wav"
)

// SweepConfig holds the fixed axes of the option sweep.
type SweepConfig struct {
	Pitches       []int     `toml:"pitches"`
	Genders       []string  `toml:"genders"`
	SpeakingRates []float64 `toml:"speaking_rates"`
}

// SynthesisConfig holds the settings for the speech synthesis API.
type SynthesisConfig struct {
	SampleRateHertz  int    `toml:"sample_rate_hertz"`
	RateLimitDelayMS int    `toml:"rate_limit_delay_ms"`
	Provider         string `toml:"provider"`
}

// ConversionConfig holds the settings for the audio conversion tool.
type ConversionConfig struct {
	Binary       string `toml:"binary"`
	SilenceTrack string `toml:"silence_track"`
}

// UploadConfig holds the settings for the dataset uploader tool.
type UploadConfig struct {
	Binary             string `toml:"binary"`
	ProgressIntervalMS int    `toml:"progress_interval_ms"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	MP3Dir      string `toml:"mp3_dir"`
	WAVDir      string `toml:"wav_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// NATSConfig holds the configuration for the optional dataset mirror.
// The mirror is disabled when URL is empty.
type NATSConfig struct {
	URL                      string `toml:"url"`
	AudioObjectStoreBucket   string `toml:"audio_object_store_bucket"`
	AudioChunkCreatedSubject string `toml:"audio_chunk_created_subject"`
}

// Config is the root configuration structure.
type Config struct {
	Sweep      SweepConfig      `toml:"sweep"`
	Synthesis  SynthesisConfig  `toml:"synthesis"`
	Conversion ConversionConfig `toml:"conversion"`
	Upload     UploadConfig     `toml:"upload"`
	Paths      PathsConfig      `toml:"paths"`
	NATS       NATSConfig       `toml:"nats"`
}

// Default returns the configuration the tool runs with out of the box.
func Default() *Config {
	return &Config{
		Sweep: SweepConfig{
			Pitches:       []int{-10, 0, 10},
			Genders:       []string{"FEMALE", "MALE"},
			SpeakingRates: []float64{0.75, 1, 1.25},
		},
		Synthesis: SynthesisConfig{
			SampleRateHertz:  DefaultSampleRateHertz,
			RateLimitDelayMS: DefaultRateLimitDelayMS,
			Provider:         DefaultProvider,
		},
		Conversion: ConversionConfig{
			Binary:       DefaultConversionBinary,
			SilenceTrack: DefaultSilenceTrack,
		},
		Upload: UploadConfig{
			Binary:             DefaultUploaderBinary,
			ProgressIntervalMS: DefaultProgressIntervalMS,
		},
		Paths: PathsConfig{
			MP3Dir:      DefaultMP3Dir,
			WAVDir:      DefaultWAVDir,
			BaseLogsDir: os.TempDir(),
		},
		NATS: NATSConfig{
			URL:                      "",
			AudioObjectStoreBucket:   "TTS_DATASET",
			AudioChunkCreatedSubject: "tts.dataset.audio.created",
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path. With an
// empty path the central project configuration is consulted instead; if it
// cannot be loaded the defaults stay in force.
func Load(path string, log *logger.Logger) (*Config, error) {
	cfg := Default()

	if path == "" {
		loadErr := configurator.Load(cfg, log)
		if loadErr != nil {
			log.Warn("Central configuration unavailable, using defaults: %v", loadErr)

			return cfg, nil
		}

		return cfg, nil
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, readErr)
	}

	parseErr := toml.Unmarshal(data, cfg)
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, parseErr)
	}

	return cfg, nil
}

// RateLimitDelay is the pause after each option that hit the synthesis API.
func (c *Config) RateLimitDelay() time.Duration {
	return time.Duration(c.Synthesis.RateLimitDelayMS) * time.Millisecond
}

// MirrorEnabled reports whether generated files are mirrored to NATS.
func (c *Config) MirrorEnabled() bool {
	return c.NATS.URL != ""
}
