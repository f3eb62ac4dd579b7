// Package tts_test tests the Google Cloud synthesizer.
package tts_test

import (
	"context"
	"testing"

	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/core"
	"github.com/book-expert/tts-dataset/internal/tts"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// mockSpeechClient records requests and returns canned responses.
type mockSpeechClient struct {
	requests []*texttospeechpb.SynthesizeSpeechRequest
	audio    []byte
	err      error
	closed   bool
}

func (m *mockSpeechClient) SynthesizeSpeech(
	_ context.Context,
	req *texttospeechpb.SynthesizeSpeechRequest,
	_ ...gax.CallOption,
) (*texttospeechpb.SynthesizeSpeechResponse, error) {
	m.requests = append(m.requests, req)

	if m.err != nil {
		return nil, m.err
	}

	return &texttospeechpb.SynthesizeSpeechResponse{AudioContent: m.audio}, nil
}

func (m *mockSpeechClient) Close() error {
	m.closed = true

	return nil
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	lg, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return lg
}

func sampleRequest() core.SynthesisRequest {
	return core.SynthesisRequest{
		Text:            "hello world",
		LanguageCode:    "nl-NL",
		Gender:          "MALE",
		AudioEncoding:   "MP3",
		SampleRateHertz: 16000,
		Pitch:           -10,
		SpeakingRate:    1.25,
	}
}

func TestGoogleSynthesizer_Synthesize(t *testing.T) {
	t.Parallel()

	client := &mockSpeechClient{audio: []byte("ID3 mp3 bytes")}
	synth := tts.NewGoogleSynthesizerWithClient(client, createTestLogger(t))

	audio, err := synth.Synthesize(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3 mp3 bytes"), audio)

	require.Len(t, client.requests, 1)
	req := client.requests[0]
	assert.Equal(t, "hello world", req.GetInput().GetText())
	assert.Equal(t, "nl-NL", req.GetVoice().GetLanguageCode())
	assert.Equal(t, texttospeechpb.SsmlVoiceGender_MALE, req.GetVoice().GetSsmlGender())
	assert.Equal(t, texttospeechpb.AudioEncoding_MP3, req.GetAudioConfig().GetAudioEncoding())
	assert.Equal(t, int32(16000), req.GetAudioConfig().GetSampleRateHertz())
	assert.InDelta(t, -10.0, req.GetAudioConfig().GetPitch(), 0.0001)
	assert.InDelta(t, 1.25, req.GetAudioConfig().GetSpeakingRate(), 0.0001)

	require.NoError(t, synth.Close())
	assert.True(t, client.closed)
}

func TestGoogleSynthesizer_APIError(t *testing.T) {
	t.Parallel()

	apiErr := status.Error(codes.ResourceExhausted, "quota exceeded")
	client := &mockSpeechClient{err: apiErr}
	synth := tts.NewGoogleSynthesizerWithClient(client, createTestLogger(t))

	_, err := synth.Synthesize(context.Background(), sampleRequest())
	require.ErrorIs(t, err, tts.ErrSynthesisFailed)
	require.ErrorIs(t, err, apiErr)
	assert.Contains(t, err.Error(), "ResourceExhausted")
}

func TestGoogleSynthesizer_EmptyAudio(t *testing.T) {
	t.Parallel()

	client := &mockSpeechClient{audio: nil}
	synth := tts.NewGoogleSynthesizerWithClient(client, createTestLogger(t))

	_, err := synth.Synthesize(context.Background(), sampleRequest())
	require.ErrorIs(t, err, tts.ErrEmptyAudio)
}

func TestBuildRequest_Validation(t *testing.T) {
	t.Parallel()

	req := sampleRequest()
	req.Text = ""
	_, err := tts.BuildRequest(req)
	require.ErrorIs(t, err, tts.ErrTextEmpty)

	req = sampleRequest()
	req.Gender = "ROBOT"
	_, err = tts.BuildRequest(req)
	require.ErrorIs(t, err, tts.ErrUnsupportedGender)

	req = sampleRequest()
	req.AudioEncoding = "FLAC"
	_, err = tts.BuildRequest(req)
	require.ErrorIs(t, err, tts.ErrUnsupportedEncoding)
}

func TestBuildRequest_DefaultsToMP3(t *testing.T) {
	t.Parallel()

	req := sampleRequest()
	req.AudioEncoding = ""
	req.Gender = "FEMALE"

	pbReq, err := tts.BuildRequest(req)
	require.NoError(t, err)
	assert.Equal(t, texttospeechpb.AudioEncoding_MP3, pbReq.GetAudioConfig().GetAudioEncoding())
	assert.Equal(t, texttospeechpb.SsmlVoiceGender_FEMALE, pbReq.GetVoice().GetSsmlGender())
}
