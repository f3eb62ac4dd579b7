package objectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/core"
	"github.com/google/uuid"
)

// ErrSubjectEmpty indicates that no announcement subject is configured.
var ErrSubjectEmpty = errors.New("publish subject cannot be empty")

// Publisher sends a message on a subject. *nats.Conn satisfies it.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Mirror copies dataset files into an object store and announces each one.
type Mirror struct {
	store     core.ObjectStore
	publisher Publisher
	subject   string
	log       *logger.Logger
	now       func() time.Time
}

// NewMirror creates a Mirror.
func NewMirror(store core.ObjectStore, publisher Publisher, subject string, log *logger.Logger) (*Mirror, error) {
	if subject == "" {
		return nil, ErrSubjectEmpty
	}

	return &Mirror{
		store:     store,
		publisher: publisher,
		subject:   subject,
		log:       log,
		now:       time.Now,
	}, nil
}

// Sync uploads every file under its base name and publishes one
// AudioChunkCreatedEvent per file. All events share a workflow ID. It
// returns that ID.
func (m *Mirror) Sync(ctx context.Context, paths []string) (string, error) {
	workflowID := uuid.NewString()

	for index, path := range paths {
		key := filepath.Base(path)

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return workflowID, fmt.Errorf("failed to read %s: %w", path, readErr)
		}

		uploadErr := m.store.Upload(ctx, key, data)
		if uploadErr != nil {
			return workflowID, uploadErr
		}

		event := &events.AudioChunkCreatedEvent{
			Header: events.EventHeader{
				Timestamp:  m.now(),
				WorkflowID: workflowID,
				EventID:    uuid.NewString(),
				UserID:     "",
				TenantID:   "",
			},
			AudioKey:   key,
			PageNumber: index + 1,
			TotalPages: len(paths),
		}

		publishErr := m.publish(event)
		if publishErr != nil {
			return workflowID, publishErr
		}
	}

	m.log.Info("Mirrored %d files (workflow %s)", len(paths), workflowID)

	return workflowID, nil
}

func (m *Mirror) publish(event *events.AudioChunkCreatedEvent) error {
	payload, marshalErr := json.Marshal(event)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal event: %w", marshalErr)
	}

	publishErr := m.publisher.Publish(m.subject, payload)
	if publishErr != nil {
		return fmt.Errorf("failed to publish event for '%s': %w", event.AudioKey, publishErr)
	}

	return nil
}
