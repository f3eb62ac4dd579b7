package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/objectstore"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockDownload = errors.New("mock download error")

type mockSource struct {
	objects map[string][]byte
	failOn  string
}

func (m *mockSource) Keys() ([]string, error) {
	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}

	return keys, nil
}

func (m *mockSource) Download(_ context.Context, key string) ([]byte, error) {
	if key == m.failOn {
		return nil, errMockDownload
	}

	return m.objects[key], nil
}

func newMockSource() *mockSource {
	return &mockSource{
		objects: map[string][]byte{
			"hello.en-US-FEMALE--10-1.tts.wav":   []byte("a"),
			"hello.nl-NL-MALE-0-1.25.tts.wav":    []byte("b"),
			"helloworld.en-US-MALE-10-1.tts.wav": []byte("c"),
		},
		failOn: "",
	}
}

func TestParseFlags(t *testing.T) {
	t.Parallel()

	flags, err := parseFlags([]string{"--label", "hello", "--url", "nats://example:4222", "--list"})
	require.NoError(t, err)
	assert.Equal(t, "hello", flags.label)
	assert.Equal(t, "nats://example:4222", flags.url)
	assert.Equal(t, defaultOutputDirName, flags.output)
	assert.True(t, flags.list)

	_, err = parseFlags([]string{"--bogus"})
	require.Error(t, err)
}

func TestMatchingKeys_FiltersByLabel(t *testing.T) {
	t.Parallel()

	keys, total, err := matchingKeys(newMockSource(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"hello.en-US-FEMALE--10-1.tts.wav", "hello.nl-NL-MALE-0-1.25.tts.wav"}, keys)

	all, _, err := matchingKeys(newMockSource(), "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFetchSamples_WritesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	log, err := logger.New(dir, "test.log")
	require.NoError(t, err)

	var stdout bytes.Buffer

	output := filepath.Join(dir, "out")
	flags := appFlags{output: output, label: "helloworld", config: "", url: "", list: false}

	require.NoError(t, fetchSamples(context.Background(), newMockSource(), flags, log, &stdout))

	target := filepath.Join(output, "helloworld.en-US-MALE-10-1.tts.wav")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), data)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(filePermissions), info.Mode().Perm())
	assert.Contains(t, stdout.String(), "Fetched 1 of 3 samples")
}

func TestFetchSamples_DownloadError(t *testing.T) {
	t.Parallel()

	source := newMockSource()
	source.failOn = "hello.nl-NL-MALE-0-1.25.tts.wav"

	dir := t.TempDir()

	log, err := logger.New(dir, "test.log")
	require.NoError(t, err)

	flags := appFlags{output: filepath.Join(dir, "out"), label: "hello", config: "", url: "", list: false}

	err = fetchSamples(context.Background(), source, flags, log, &bytes.Buffer{})
	require.ErrorIs(t, err, errMockDownload)
}

func TestRun_ListsMirroredSamples(t *testing.T) {
	t.Parallel()

	opts := test.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)
	t.Cleanup(natsServer.Shutdown)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, "TTS_DATASET")
	require.NoError(t, err)
	require.NoError(t, store.Upload(context.Background(), "kw.en-US-FEMALE--10-1.tts.wav", []byte("RIFF")))

	var stdout bytes.Buffer

	require.NoError(t, run(context.Background(), []string{"--url", natsServer.ClientURL(), "--list"}, &stdout))
	assert.Equal(t, "kw.en-US-FEMALE--10-1.tts.wav\n", stdout.String())
}

func TestCloseLogger_ClosesLogFile(t *testing.T) {
	t.Parallel()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	assert.NotPanics(t, func() { closeLogger(log) })
}

func TestRun_NoURL(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[nats]\nurl = \"\"\n"), 0o600))

	err := run(context.Background(), []string{"--config", configPath}, &bytes.Buffer{})
	require.ErrorIs(t, err, ErrNoNATSURL)
}
