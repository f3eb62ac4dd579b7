// Package objectstore_test tests the NATS object store and the dataset mirror.
package objectstore_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/objectstore"
	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errMockPublish = errors.New("mock publish error")

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func newStore(t *testing.T, bucket string) (*objectstore.NatsObjectStore, *nats.Conn) {
	t.Helper()

	natsServer, natsConnection := StartTestServer(t)
	t.Cleanup(natsServer.Shutdown)
	t.Cleanup(natsConnection.Close)

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	store, err := objectstore.New(jetstreamContext, bucket)
	require.NoError(t, err)

	return store, natsConnection
}

func writeSamples(t *testing.T, names ...string) []string {
	t.Helper()

	dir := t.TempDir()
	paths := make([]string, 0, len(names))

	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("RIFF "+name), 0o600))

		paths = append(paths, path)
	}

	return paths
}

func TestNatsObjectStore_UploadDownload(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "test-bucket")
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "kw.en-US-FEMALE--10-1.tts.wav", []byte("RIFF data")))

	data, err := store.Download(ctx, "kw.en-US-FEMALE--10-1.tts.wav")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF data"), data)
	assert.Equal(t, "test-bucket", store.Bucket())
}

func TestNatsObjectStore_BindsExistingBucket(t *testing.T) {
	t.Parallel()

	store, natsConnection := newStore(t, "shared")
	require.NoError(t, store.Upload(context.Background(), "a.wav", []byte("a")))

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	again, err := objectstore.New(jetstreamContext, "shared")
	require.NoError(t, err)

	keys, err := again.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.wav"}, keys)
}

func TestNatsObjectStore_EmptyKey(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "empty-key")

	require.ErrorIs(t, store.Upload(context.Background(), "", []byte("x")), objectstore.ErrKeyEmpty)

	_, err := store.Download(context.Background(), "")
	require.ErrorIs(t, err, objectstore.ErrKeyEmpty)
}

func TestNatsObjectStore_KeysOnEmptyBucket(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "nothing-here")

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestMirror_SyncUploadsAndAnnounces(t *testing.T) {
	t.Parallel()

	store, natsConnection := newStore(t, "TTS_DATASET")

	sub, err := natsConnection.SubscribeSync("tts.dataset.audio.created")
	require.NoError(t, err)
	require.NoError(t, natsConnection.Flush())

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	mirror, err := objectstore.NewMirror(store, natsConnection, "tts.dataset.audio.created", log)
	require.NoError(t, err)

	paths := writeSamples(t, "kw.en-US-FEMALE--10-1.tts.wav", "kw.nl-NL-MALE-10-0.9.tts.wav")

	workflowID, err := mirror.Sync(context.Background(), paths)
	require.NoError(t, err)
	assert.NotEmpty(t, workflowID)

	eventIDs := make(map[string]struct{})

	for index, path := range paths {
		msg, nextErr := sub.NextMsg(2 * time.Second)
		require.NoError(t, nextErr)

		var event events.AudioChunkCreatedEvent
		require.NoError(t, json.Unmarshal(msg.Data, &event))

		assert.Equal(t, workflowID, event.Header.WorkflowID)
		assert.Equal(t, filepath.Base(path), event.AudioKey)
		assert.Equal(t, index+1, event.PageNumber)
		assert.Equal(t, len(paths), event.TotalPages)

		eventIDs[event.Header.EventID] = struct{}{}

		stored, downloadErr := store.Download(context.Background(), event.AudioKey)
		require.NoError(t, downloadErr)
		assert.Equal(t, []byte("RIFF "+filepath.Base(path)), stored)
	}

	assert.Len(t, eventIDs, len(paths), "every event gets its own ID")
}

type failingPublisher struct{}

func (failingPublisher) Publish(string, []byte) error {
	return errMockPublish
}

func TestMirror_PublishFailureStopsSync(t *testing.T) {
	t.Parallel()

	store, _ := newStore(t, "publish-fails")

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	mirror, err := objectstore.NewMirror(store, failingPublisher{}, "subject", log)
	require.NoError(t, err)

	_, err = mirror.Sync(context.Background(), writeSamples(t, "a.wav", "b.wav"))
	require.ErrorIs(t, err, errMockPublish)

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.wav"}, keys)
}

func TestMirror_MissingFile(t *testing.T) {
	t.Parallel()

	store, natsConnection := newStore(t, "missing-file")

	mirror, err := objectstore.NewMirror(store, natsConnection, "subject", nil)
	require.NoError(t, err)

	_, err = mirror.Sync(context.Background(), []string{filepath.Join(t.TempDir(), "absent.wav")})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewMirror_RequiresSubject(t *testing.T) {
	t.Parallel()

	_, err := objectstore.NewMirror(nil, nil, "", nil)
	require.ErrorIs(t, err, objectstore.ErrSubjectEmpty)
}
