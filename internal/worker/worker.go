// Package worker runs the synthesis-and-cache loop that turns sweep options
// into dataset files.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/core"
	"github.com/book-expert/tts-dataset/internal/manifest"
	"github.com/book-expert/tts-dataset/internal/sweep"
	"github.com/book-expert/tts-dataset/internal/tts/audio"
	"github.com/book-expert/tts-dataset/internal/tts/ttsutils"
)

const (
	filePermissions = 0o600
	wavSuffix       = ".tts"
)

var (
	// ErrLabelEmpty indicates that the dataset label is empty.
	ErrLabelEmpty = errors.New("label cannot be empty")
	// ErrOutputDirEmpty indicates that an output directory is not configured.
	ErrOutputDirEmpty = errors.New("output directory cannot be empty")
	// ErrSilenceTrackEmpty indicates that no reference silence track is configured.
	ErrSilenceTrackEmpty = errors.New("silence track cannot be empty")
	// ErrNegativeDelay indicates a negative rate-limit delay.
	ErrNegativeDelay = errors.New("rate limit delay must be non-negative")
)

// Settings configures a Generator.
type Settings struct {
	Label          string
	OutLength      string
	MP3Dir         string
	WAVDir         string
	SilenceTrack   string
	SampleRate     int
	RateLimitDelay time.Duration
	Provider       string

	// Progress receives one human-readable line per pipeline step.
	// Nil discards them.
	Progress io.Writer
}

// WaitFunc pauses for d or until ctx is done.
type WaitFunc func(ctx context.Context, d time.Duration) error

// Result summarizes a run.
type Result struct {
	Files       []manifest.File
	Synthesized int
	Converted   int
	CacheHits   int
}

// Generator synthesizes and converts sweep options one at a time.
type Generator struct {
	synthesizer core.Synthesizer
	converter   core.Converter
	settings    Settings
	log         *logger.Logger
	wait        WaitFunc
}

// NewGenerator creates a Generator after validating settings.
func NewGenerator(
	synthesizer core.Synthesizer,
	converter core.Converter,
	settings Settings,
	log *logger.Logger,
) (*Generator, error) {
	validationErr := validateSettings(settings)
	if validationErr != nil {
		return nil, validationErr
	}

	if settings.Progress == nil {
		settings.Progress = io.Discard
	}

	return &Generator{
		synthesizer: synthesizer,
		converter:   converter,
		settings:    settings,
		log:         log,
		wait:        SleepContext,
	}, nil
}

// SetWaitFunc replaces the pause used for rate limiting.
func (g *Generator) SetWaitFunc(wait WaitFunc) {
	g.wait = wait
}

// Paths returns the synthesized and converted file paths for an option.
func (g *Generator) Paths(option sweep.Option) (mp3Path, wavPath string) {
	stem := sweep.FileStem(g.settings.Label, option)

	mp3Path = filepath.Join(g.settings.MP3Dir, stem+audio.FORMAT_MP3.Extension())
	wavPath = filepath.Join(g.settings.WAVDir, stem+wavSuffix+audio.FORMAT_WAV.Extension())

	return mp3Path, wavPath
}

// Run processes the options strictly in order. The first error aborts the
// run; files recorded before it are still returned in the result.
func (g *Generator) Run(ctx context.Context, options []sweep.Option) (*Result, error) {
	result := &Result{
		Files:       make([]manifest.File, 0, len(options)),
		Synthesized: 0,
		Converted:   0,
		CacheHits:   0,
	}

	for index, option := range options {
		hitAPI, processErr := g.processOption(ctx, index, len(options), option, result)
		if processErr != nil {
			return result, fmt.Errorf(
				"option %d/%d (%s): %w",
				index+1,
				len(options),
				sweep.FileStem(g.settings.Label, option),
				processErr,
			)
		}

		if hitAPI {
			waitErr := g.wait(ctx, g.settings.RateLimitDelay)
			if waitErr != nil {
				return result, fmt.Errorf("rate limit wait interrupted: %w", waitErr)
			}
		}
	}

	return result, nil
}

// processOption synthesizes and converts one option when its files are
// missing and records the waveform. It reports whether the API was called.
func (g *Generator) processOption(
	ctx context.Context,
	index, total int,
	option sweep.Option,
	result *Result,
) (bool, error) {
	mp3Path, wavPath := g.Paths(option)

	hitAPI, synthErr := g.synthesizeIfMissing(ctx, index, total, option, mp3Path)
	if synthErr != nil {
		return hitAPI, synthErr
	}

	converted, convertErr := g.convertIfMissing(ctx, index, total, mp3Path, wavPath)
	if convertErr != nil {
		return hitAPI, convertErr
	}

	if hitAPI {
		result.Synthesized++
	}

	if converted {
		result.Converted++
	}

	if !hitAPI && !converted {
		result.CacheHits++
	}

	absPath, absErr := ttsutils.AbsPath(wavPath)
	if absErr != nil {
		return hitAPI, absErr
	}

	result.Files = append(result.Files, manifest.NewFile(absPath, g.settings.Label, g.settings.Provider))

	return hitAPI, nil
}

func (g *Generator) synthesizeIfMissing(
	ctx context.Context,
	index, total int,
	option sweep.Option,
	mp3Path string,
) (bool, error) {
	exists, existsErr := ttsutils.FileExists(mp3Path)
	if existsErr != nil {
		return false, existsErr
	}

	if exists {
		return false, nil
	}

	fmt.Fprintf(g.settings.Progress, "[%d/%d] Text-to-speeching...\n", index+1, total)

	audioData, synthErr := g.synthesizer.Synthesize(ctx, core.SynthesisRequest{
		Text:            option.Text,
		LanguageCode:    option.Language,
		Gender:          string(option.Gender),
		AudioEncoding:   "MP3",
		SampleRateHertz: g.settings.SampleRate,
		Pitch:           float64(option.Pitch),
		SpeakingRate:    option.SpeakingRate,
	})
	if synthErr != nil {
		return true, fmt.Errorf("failed to synthesize: %w", synthErr)
	}

	writeErr := os.WriteFile(mp3Path, audioData, filePermissions)
	if writeErr != nil {
		return true, fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	g.log.Info("Synthesized %s (%s)", mp3Path, ttsutils.FormatFileSize(int64(len(audioData))))

	return true, nil
}

func (g *Generator) convertIfMissing(
	ctx context.Context,
	index, total int,
	mp3Path, wavPath string,
) (bool, error) {
	exists, existsErr := ttsutils.FileExists(wavPath)
	if existsErr != nil {
		return false, existsErr
	}

	if exists {
		return false, nil
	}

	fmt.Fprintf(g.settings.Progress, "[%d/%d] Converting to WAV...\n", index+1, total)

	convertErr := g.converter.Convert(ctx, core.ConversionJob{
		InputPath:     mp3Path,
		ReferencePath: g.settings.SilenceTrack,
		OutputPath:    wavPath,
		SampleRate:    g.settings.SampleRate,
		TrimLength:    g.settings.OutLength,
	})
	if convertErr != nil {
		return false, fmt.Errorf("failed to convert: %w", convertErr)
	}

	g.log.Info("Converted %s", wavPath)

	return true, nil
}

// SleepContext waits for d, returning early with the context error if ctx
// is done first.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateSettings(settings Settings) error {
	if settings.Label == "" {
		return ErrLabelEmpty
	}

	if settings.MP3Dir == "" || settings.WAVDir == "" {
		return ErrOutputDirEmpty
	}

	if settings.SilenceTrack == "" {
		return ErrSilenceTrackEmpty
	}

	if settings.RateLimitDelay < 0 {
		return fmt.Errorf("%w: got %s", ErrNegativeDelay, settings.RateLimitDelay)
	}

	return nil
}
