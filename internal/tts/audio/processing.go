// Package audio converts synthesized speech into the dataset waveform format
// by mixing it against a silence track with sox.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/book-expert/tts-dataset/internal/core"
	"github.com/book-expert/tts-dataset/internal/process"
)

// Format represents the audio formats produced by the pipeline.
type Format string

const (
	FORMAT_WAV Format = "wav"
	FORMAT_MP3 Format = "mp3"
)

// Constants for validation limits.
const (
	MAX_SAMPLE_RATE = 192000
)

// Constants for error messages and formats.
const (
	ERR_FMT_SAMPLE_RATE_RANGE = "%w: sample rate must be between 1 and %d Hz"
	ERR_FMT_EMPTY_FIELD       = "%w: %s cannot be empty"
	ERR_FMT_CONVERSION_FAILED = "%w: %s exited with status %d: %s"
)

var (
	// ErrInvalidJob indicates a conversion job with missing or out-of-range fields.
	ErrInvalidJob = errors.New("invalid conversion job")
	// ErrConversionFailed indicates the conversion tool exited with a non-zero status.
	ErrConversionFailed = errors.New("audio conversion failed")
)

// Extension returns the file extension for the format, with the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// SoxConverter implements core.Converter by invoking sox.
type SoxConverter struct {
	binary string
	runner process.Runner
}

// NewSoxConverter creates a converter that runs binary (normally "sox").
func NewSoxConverter(binary string, runner process.Runner) *SoxConverter {
	return &SoxConverter{
		binary: binary,
		runner: runner,
	}
}

// Convert mixes the input against the reference track, resamples the result
// and trims it to the job's length:
//
//	sox -m <input> <reference> -r <rate> <output> trim 0 <length>
func (c *SoxConverter) Convert(ctx context.Context, job core.ConversionJob) error {
	validateErr := ValidateJob(job)
	if validateErr != nil {
		return validateErr
	}

	spec := process.Spec{
		Name:         c.binary,
		Args:         Args(job),
		Env:          nil,
		InheritStdio: false,
	}

	result, runErr := c.runner.Run(ctx, spec)
	if runErr != nil {
		return fmt.Errorf("failed to convert '%s': %w", job.InputPath, runErr)
	}

	if result.ExitCode != 0 {
		return fmt.Errorf(
			ERR_FMT_CONVERSION_FAILED,
			ErrConversionFailed,
			c.binary,
			result.ExitCode,
			strings.TrimSpace(string(result.Output)),
		)
	}

	return nil
}

// Args builds the sox argument list for a job.
func Args(job core.ConversionJob) []string {
	return []string{
		"-m", job.InputPath, job.ReferencePath,
		"-r", strconv.Itoa(job.SampleRate),
		job.OutputPath,
		"trim", "0", job.TrimLength,
	}
}

// ValidateJob checks that a job is complete before any process is started.
func ValidateJob(job core.ConversionJob) error {
	fields := []struct {
		name  string
		value string
	}{
		{"input path", job.InputPath},
		{"reference path", job.ReferencePath},
		{"output path", job.OutputPath},
		{"trim length", job.TrimLength},
	}

	for _, field := range fields {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf(ERR_FMT_EMPTY_FIELD, ErrInvalidJob, field.name)
		}
	}

	return validateSampleRate(job.SampleRate)
}

func validateSampleRate(sampleRate int) error {
	if sampleRate <= 0 || sampleRate > MAX_SAMPLE_RATE {
		return fmt.Errorf(
			ERR_FMT_SAMPLE_RATE_RANGE,
			ErrInvalidJob,
			MAX_SAMPLE_RATE,
		)
	}

	return nil
}
