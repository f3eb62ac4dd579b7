// main package for dataset-fetch, which copies mirrored dataset samples from
// the NATS object store back onto local disk.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/config"
	"github.com/book-expert/tts-dataset/internal/objectstore"
	"github.com/book-expert/tts-dataset/internal/tts/ttsutils"
	"github.com/nats-io/nats.go"
	"github.com/spf13/pflag"
)

// Flag descriptions.
const (
	flagOutputDesc = "Directory to write the samples to"
	flagLabelDesc  = "Only fetch samples with this dataset label"
	flagConfigDesc = "Path to a TOML config file"
	flagURLDesc    = "NATS server URL (overrides [nats] url)"
	flagListDesc   = "List the stored samples and exit"
)

// Flag names.
const (
	flagOutput = "output"
	flagLabel  = "label"
	flagConfig = "config"
	flagURL    = "url"
	flagList   = "list"
)

// Error and log messages.
const (
	errNoNATSURL         = "no NATS url configured; set [nats] url or pass --url"
	logFetchedSample     = "Fetched %s (%s)"
	logFetchedSummary    = "Fetched %d of %d samples into %s\n"
	logListedSample      = "%s\n"
	logFileNameDefault   = "dataset-fetch.log"
	defaultOutputDirName = "fetched-wav"
	filePermissions      = 0o600
)

// ErrNoNATSURL indicates that neither the config nor the flags name a server.
var ErrNoNATSURL = errors.New(errNoNATSURL)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	output string
	label  string
	config string
	url    string
	list   bool
}

// source is the part of the object store the fetcher needs.
type source interface {
	Keys() ([]string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

func main() {
	err := run(context.Background(), os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func closeLogger(log *logger.Logger) {
	closeErr := log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}

// run is the main application entry point, returning an error on failure.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags, err := parseFlags(args)
	if err != nil {
		return err
	}

	log, err := logger.New(os.TempDir(), logFileNameDefault)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer closeLogger(log)

	cfg, err := config.Load(flags.config, log)
	if err != nil {
		return err
	}

	url := cfg.NATS.URL
	if flags.url != "" {
		url = flags.url
	}

	if url == "" {
		return ErrNoNATSURL
	}

	natsConnection, err := nats.Connect(url)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to get JetStream context: %w", err)
	}

	store, err := objectstore.New(jetstreamContext, cfg.NATS.AudioObjectStoreBucket)
	if err != nil {
		return err
	}

	if flags.list {
		return listSamples(store, flags.label, stdout)
	}

	return fetchSamples(ctx, store, flags, log, stdout)
}

// parseFlags defines and parses command-line flags, returning them in a struct.
func parseFlags(args []string) (appFlags, error) {
	var flags appFlags

	flagSet := pflag.NewFlagSet("dataset-fetch", pflag.ContinueOnError)
	flagSet.StringVar(&flags.output, flagOutput, defaultOutputDirName, flagOutputDesc)
	flagSet.StringVar(&flags.label, flagLabel, "", flagLabelDesc)
	flagSet.StringVar(&flags.config, flagConfig, "", flagConfigDesc)
	flagSet.StringVar(&flags.url, flagURL, "", flagURLDesc)
	flagSet.BoolVar(&flags.list, flagList, false, flagListDesc)

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return flags, fmt.Errorf("failed to parse flags: %w", parseErr)
	}

	return flags, nil
}

// matchingKeys returns the sorted keys that belong to label. Sample names
// start with "<label>." so an empty label matches everything.
func matchingKeys(store source, label string) ([]string, int, error) {
	keys, err := store.Keys()
	if err != nil {
		return nil, 0, err
	}

	matched := make([]string, 0, len(keys))

	for _, key := range keys {
		if label == "" || strings.HasPrefix(key, label+".") {
			matched = append(matched, key)
		}
	}

	sort.Strings(matched)

	return matched, len(keys), nil
}

func listSamples(store source, label string, stdout io.Writer) error {
	keys, _, err := matchingKeys(store, label)
	if err != nil {
		return err
	}

	for _, key := range keys {
		fmt.Fprintf(stdout, logListedSample, key)
	}

	return nil
}

func fetchSamples(ctx context.Context, store source, flags appFlags, log *logger.Logger, stdout io.Writer) error {
	keys, total, err := matchingKeys(store, flags.label)
	if err != nil {
		return err
	}

	ensureErr := ttsutils.EnsureDir(flags.output)
	if ensureErr != nil {
		return ensureErr
	}

	for _, key := range keys {
		data, downloadErr := store.Download(ctx, key)
		if downloadErr != nil {
			return downloadErr
		}

		target := filepath.Join(flags.output, filepath.Base(key))

		writeErr := os.WriteFile(target, data, filePermissions)
		if writeErr != nil {
			return fmt.Errorf("failed to write %s: %w", target, writeErr)
		}

		log.Info(logFetchedSample, target, ttsutils.FormatFileSize(int64(len(data))))
	}

	fmt.Fprintf(stdout, logFetchedSummary, len(keys), total, flags.output)

	return nil
}
