package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvTTSAPIKey             = "GOOGLE_CLOUD_TTS_API_KEY"
	EnvProjectID             = "EI_PROJECT_ID"
	EnvProjectAPIKey         = "EI_PROJECT_API_KEY"
	EnvAPIEndpoint           = "EI_API_ENDPOINT"
	EnvIngestionHost         = "EI_INGESTION_HOST"
	EnvTLSRejectUnauthorized = "NODE_TLS_REJECT_UNAUTHORIZED"

	apiVersionSuffix = "/v1"
	dotEnvFile       = ".env"
)

var (
	// ErrMissingEnv indicates that a required environment variable is not set.
	ErrMissingEnv = errors.New("missing environment variable")
	// ErrInvalidProjectID indicates that the project id is not numeric.
	ErrInvalidProjectID = errors.New("project id must be numeric")
)

// Env holds the values taken from the process environment.
type Env struct {
	TTSAPIKey             string
	ProjectID             int
	ProjectAPIKey         string
	APIEndpoint           string
	IngestionHost         string
	TLSRejectUnauthorized string
}

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already present in the environment are left untouched.
func LoadDotEnv() error {
	loadErr := godotenv.Load(dotEnvFile)
	if loadErr != nil && !errors.Is(loadErr, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", dotEnvFile, loadErr)
	}

	return nil
}

// LoadEnv validates and returns the required environment. The first missing
// variable is reported.
func LoadEnv(lookup LookupFunc) (*Env, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	required := []string{
		EnvTTSAPIKey,
		EnvProjectID,
		EnvProjectAPIKey,
		EnvAPIEndpoint,
		EnvIngestionHost,
	}

	values := make(map[string]string, len(required))

	for _, key := range required {
		value, ok := lookup(key)
		if !ok || value == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingEnv, key)
		}

		values[key] = value
	}

	projectID, convErr := strconv.Atoi(strings.TrimSpace(values[EnvProjectID]))
	if convErr != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidProjectID, EnvProjectID, values[EnvProjectID])
	}

	tlsPolicy, _ := lookup(EnvTLSRejectUnauthorized)

	return &Env{
		TTSAPIKey:             values[EnvTTSAPIKey],
		ProjectID:             projectID,
		ProjectAPIKey:         values[EnvProjectAPIKey],
		APIEndpoint:           strings.Replace(values[EnvAPIEndpoint], apiVersionSuffix, "", 1),
		IngestionHost:         values[EnvIngestionHost],
		TLSRejectUnauthorized: tlsPolicy,
	}, nil
}
