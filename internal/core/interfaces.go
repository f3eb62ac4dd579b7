// Package core defines the interfaces between the dataset pipeline and its
// external collaborators.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// SynthesisRequest holds everything needed for a single synthesis call.
type SynthesisRequest struct {
	Text            string
	LanguageCode    string
	Gender          string
	AudioEncoding   string
	SampleRateHertz int
	Pitch           float64
	SpeakingRate    float64
}

// Synthesizer turns text into encoded audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}

// ConversionJob describes one transcode of synthesized audio into the
// dataset waveform format.
type ConversionJob struct {
	InputPath     string
	ReferencePath string
	OutputPath    string
	SampleRate    int
	TrimLength    string
}

// Converter transcodes synthesized audio into the dataset waveform format.
type Converter interface {
	Convert(ctx context.Context, job ConversionJob) error
}
