// Package uploader hands a manifest to the external dataset uploader tool.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/process"
)

// Environment variables passed to the uploader.
const (
	envIngestionHost         = "EI_HOST"
	envPath                  = "PATH"
	envTLSRejectUnauthorized = "NODE_TLS_REJECT_UNAUTHORIZED"
)

var (
	// ErrUploaderFailed indicates that the uploader exited with a non-zero status.
	ErrUploaderFailed = errors.New("running the uploader failed")
	// ErrManifestPathEmpty indicates that no manifest path was given.
	ErrManifestPathEmpty = errors.New("manifest path cannot be empty")
)

// Config holds what the uploader needs besides the manifest.
type Config struct {
	Binary                string
	APIKey                string
	IngestionHost         string
	TLSRejectUnauthorized string
	ProgressIntervalMS    int
}

// Uploader runs the uploader tool with inherited standard streams.
type Uploader struct {
	config Config
	runner process.Runner
	log    *logger.Logger
}

// New creates an Uploader.
func New(cfg Config, runner process.Runner, log *logger.Logger) *Uploader {
	return &Uploader{
		config: cfg,
		runner: runner,
		log:    log,
	}
}

// Upload runs the uploader on the manifest at manifestPath and waits for it.
// A non-zero exit status is returned as ErrUploaderFailed.
func (u *Uploader) Upload(ctx context.Context, manifestPath string) error {
	if manifestPath == "" {
		return ErrManifestPathEmpty
	}

	spec := u.Spec(manifestPath)

	u.log.Info("Running %s with manifest %s", spec.Name, manifestPath)

	result, runErr := u.runner.Run(ctx, spec)
	if runErr != nil {
		return fmt.Errorf("failed to start uploader: %w", runErr)
	}

	if result.ExitCode != 0 {
		u.log.Error("Uploader exited with status %d", result.ExitCode)

		return fmt.Errorf("%w: exit status %d", ErrUploaderFailed, result.ExitCode)
	}

	return nil
}

// Spec builds the process description for a manifest. The child gets an
// explicit environment: the ingestion host, PATH and, when set, the TLS
// verification policy.
func (u *Uploader) Spec(manifestPath string) process.Spec {
	env := map[string]string{
		envIngestionHost: u.config.IngestionHost,
		envPath:          os.Getenv(envPath),
	}

	if u.config.TLSRejectUnauthorized != "" {
		env[envTLSRejectUnauthorized] = u.config.TLSRejectUnauthorized
	}

	return process.Spec{
		Name: u.config.Binary,
		Args: []string{
			"--info-file", manifestPath,
			"--api-key", u.config.APIKey,
			"--silent",
			"--progress-interval", strconv.Itoa(u.config.ProgressIntervalMS),
		},
		Env:          env,
		InheritStdio: true,
	}
}
