// Package tts provides the Google Cloud Text-to-Speech implementation of
// core.Synthesizer.
package tts

import (
	"context"
	"errors"
	"fmt"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/core"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

var (
	// ErrTextEmpty is returned when there is nothing to synthesize.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrUnsupportedGender is returned for a voice gender the API does not know.
	ErrUnsupportedGender = errors.New("unsupported voice gender")
	// ErrUnsupportedEncoding is returned for an audio encoding the API does not know.
	ErrUnsupportedEncoding = errors.New("unsupported audio encoding")
	// ErrSynthesisFailed wraps errors returned by the synthesis API.
	ErrSynthesisFailed = errors.New("speech synthesis failed")
	// ErrEmptyAudio is returned when the API answers without audio content.
	ErrEmptyAudio = errors.New("received empty audio content")
)

// SpeechClient is the subset of the Cloud Text-to-Speech client used here.
type SpeechClient interface {
	SynthesizeSpeech(
		ctx context.Context,
		req *texttospeechpb.SynthesizeSpeechRequest,
		opts ...gax.CallOption,
	) (*texttospeechpb.SynthesizeSpeechResponse, error)
	Close() error
}

// GoogleSynthesizer implements core.Synthesizer with Google Cloud Text-to-Speech.
type GoogleSynthesizer struct {
	client SpeechClient
	log    *logger.Logger
}

// NewGoogleSynthesizer creates a client authenticated with an API key.
func NewGoogleSynthesizer(ctx context.Context, apiKey string, log *logger.Logger) (*GoogleSynthesizer, error) {
	client, err := texttospeech.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}

	return NewGoogleSynthesizerWithClient(client, log), nil
}

// NewGoogleSynthesizerWithClient wraps an existing client.
func NewGoogleSynthesizerWithClient(client SpeechClient, log *logger.Logger) *GoogleSynthesizer {
	return &GoogleSynthesizer{
		client: client,
		log:    log,
	}
}

// Synthesize performs one synthesis request and returns the encoded audio.
func (s *GoogleSynthesizer) Synthesize(ctx context.Context, req core.SynthesisRequest) ([]byte, error) {
	pbReq, buildErr := BuildRequest(req)
	if buildErr != nil {
		return nil, buildErr
	}

	resp, err := s.client.SynthesizeSpeech(ctx, pbReq)
	if err != nil {
		s.log.Error("Synthesis failed for %s/%s: %v", req.LanguageCode, req.Gender, err)

		return nil, fmt.Errorf("%w (%s): %w", ErrSynthesisFailed, status.Code(err), err)
	}

	if len(resp.GetAudioContent()) == 0 {
		return nil, fmt.Errorf("%w for %s/%s", ErrEmptyAudio, req.LanguageCode, req.Gender)
	}

	return resp.GetAudioContent(), nil
}

// Close releases the underlying client connection.
func (s *GoogleSynthesizer) Close() error {
	closeErr := s.client.Close()
	if closeErr != nil {
		return fmt.Errorf("failed to close text-to-speech client: %w", closeErr)
	}

	return nil
}

// BuildRequest translates a core.SynthesisRequest into the API request.
func BuildRequest(req core.SynthesisRequest) (*texttospeechpb.SynthesizeSpeechRequest, error) {
	if req.Text == "" {
		return nil, ErrTextEmpty
	}

	gender, genderErr := ssmlGender(req.Gender)
	if genderErr != nil {
		return nil, genderErr
	}

	encoding, encodingErr := audioEncoding(req.AudioEncoding)
	if encodingErr != nil {
		return nil, encodingErr
	}

	return &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: req.Text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: req.LanguageCode,
			SsmlGender:   gender,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   encoding,
			SampleRateHertz: int32(req.SampleRateHertz),
			Pitch:           req.Pitch,
			SpeakingRate:    req.SpeakingRate,
		},
	}, nil
}

func ssmlGender(gender string) (texttospeechpb.SsmlVoiceGender, error) {
	switch gender {
	case "FEMALE":
		return texttospeechpb.SsmlVoiceGender_FEMALE, nil
	case "MALE":
		return texttospeechpb.SsmlVoiceGender_MALE, nil
	case "NEUTRAL":
		return texttospeechpb.SsmlVoiceGender_NEUTRAL, nil
	default:
		return texttospeechpb.SsmlVoiceGender_SSML_VOICE_GENDER_UNSPECIFIED,
			fmt.Errorf("%w: %q", ErrUnsupportedGender, gender)
	}
}

func audioEncoding(encoding string) (texttospeechpb.AudioEncoding, error) {
	switch encoding {
	case "MP3", "":
		return texttospeechpb.AudioEncoding_MP3, nil
	case "LINEAR16", "WAV":
		return texttospeechpb.AudioEncoding_LINEAR16, nil
	case "OGG_OPUS":
		return texttospeechpb.AudioEncoding_OGG_OPUS, nil
	case "MULAW":
		return texttospeechpb.AudioEncoding_MULAW, nil
	default:
		return texttospeechpb.AudioEncoding_AUDIO_ENCODING_UNSPECIFIED,
			fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}
}
