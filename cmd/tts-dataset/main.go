// main package for tts-dataset, which generates a keyword-spotting dataset
// with a speech synthesis API and imports it into a project.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-dataset/internal/config"
	"github.com/book-expert/tts-dataset/internal/core"
	"github.com/book-expert/tts-dataset/internal/manifest"
	"github.com/book-expert/tts-dataset/internal/objectstore"
	"github.com/book-expert/tts-dataset/internal/process"
	"github.com/book-expert/tts-dataset/internal/sweep"
	"github.com/book-expert/tts-dataset/internal/tts"
	"github.com/book-expert/tts-dataset/internal/tts/audio"
	"github.com/book-expert/tts-dataset/internal/tts/text"
	"github.com/book-expert/tts-dataset/internal/tts/ttsutils"
	"github.com/book-expert/tts-dataset/internal/uploader"
	"github.com/book-expert/tts-dataset/internal/worker"
	"github.com/nats-io/nats.go"
)

const logFileName = "tts-dataset.log"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// synthesizer is a core.Synthesizer that holds a connection.
type synthesizer interface {
	core.Synthesizer
	Close() error
}

// synthesizerFactory opens the synthesis client for an API key.
type synthesizerFactory func(ctx context.Context, apiKey string, log *logger.Logger) (synthesizer, error)

// deps holds the collaborators run reaches the outside world through.
type deps struct {
	newSynthesizer synthesizerFactory
	runner         process.Runner
}

func defaultDeps() deps {
	return deps{
		newSynthesizer: func(ctx context.Context, apiKey string, log *logger.Logger) (synthesizer, error) {
			return tts.NewGoogleSynthesizer(ctx, apiKey, log)
		},
		runner: process.NewExecRunner(),
	}
}

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func closeLogger(log *logger.Logger) {
	closeErr := log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer, d deps) error {
	// 1. Optional .env, then a temporary logger for the bootstrap process
	dotEnvErr := config.LoadDotEnv()
	if dotEnvErr != nil {
		return dotEnvErr
	}

	bootstrapLog, err := setupLogger(os.TempDir(), "tts-dataset-bootstrap.log")
	if err != nil {
		return err
	}
	defer closeLogger(bootstrapLog)

	// 2. Flags; --version and --list-languages need nothing else, so the
	// environment is checked after them
	flags, err := config.ParseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	if flags.Version {
		fmt.Fprintln(stdout, version)

		return nil
	}

	if flags.ListLanguages {
		fmt.Fprintln(stdout, strings.Join(config.LanguageCatalog(), "\n"))

		return nil
	}

	// 3. Environment, configuration and the final logger
	env, err := config.LoadEnv(os.LookupEnv)
	if err != nil {
		return err
	}

	cfg, err := config.Load(flags.ConfigPath, bootstrapLog)
	if err != nil {
		return err
	}

	log, err := setupLogger(cfg.Paths.BaseLogsDir, logFileName)
	if err != nil {
		return err
	}
	defer closeLogger(log)

	log.System("tts-dataset %s starting (project %d, endpoint %s)", version, env.ProjectID, env.APIEndpoint)

	// 4. Sweep
	options, err := buildOptions(cfg, flags, log, stdout)
	if err != nil {
		return err
	}

	// 5. Synthesize and convert
	start := time.Now()

	result, err := generate(ctx, d, cfg, env, flags, log, stdout, options)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "Done text-to-speeching")
	fmt.Fprintf(stdout, "%d files (%d synthesized, %d converted, %d cached) in %s\n",
		len(result.Files), result.Synthesized, result.Converted, result.CacheHits,
		ttsutils.FormatDuration(time.Since(start).Seconds()))

	// 6. Optional mirror
	if cfg.MirrorEnabled() {
		mirrorErr := mirror(ctx, cfg, log, result.Files)
		if mirrorErr != nil {
			return mirrorErr
		}
	}

	// 7. Upload
	if flags.SkipUpload {
		fmt.Fprintln(stdout, "skip upload is enabled, stopping now")
		log.Info("Skipping upload of %d files", len(result.Files))

		return nil
	}

	return upload(ctx, d.runner, cfg, env, log, stdout, result.Files)
}

// buildOptions resolves the languages and produces the subsampled sweep.
// An unknown language is reported but the run continues with the selection.
func buildOptions(cfg *config.Config, flags *config.Flags, log *logger.Logger, stdout io.Writer) ([]sweep.Option, error) {
	labelErr := text.ValidateLabel(flags.Label)
	if labelErr != nil {
		return nil, labelErr
	}

	keyword, err := text.NewNormalizer().Keyword(flags.Keyword)
	if err != nil {
		return nil, err
	}

	languages, langErr := config.ResolveLanguages(flags.Lang)
	if langErr != nil {
		fmt.Fprintln(os.Stderr, langErr)
		log.Warn("%v", langErr)
	}

	axes, err := axesFromConfig(cfg.Sweep, languages, keyword)
	if err != nil {
		return nil, err
	}

	options, err := sweep.Build(axes, flags.Count)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(stdout, "Generating %d of %d options for %q\n", len(options), axes.Size(), keyword)

	return options, nil
}

func axesFromConfig(sweepCfg config.SweepConfig, languages []string, keyword string) (sweep.Axes, error) {
	genders := make([]sweep.Gender, 0, len(sweepCfg.Genders))

	for _, name := range sweepCfg.Genders {
		gender, err := sweep.ParseGender(name)
		if err != nil {
			return sweep.Axes{}, err
		}

		genders = append(genders, gender)
	}

	return sweep.Axes{
		Pitches:       sweepCfg.Pitches,
		Genders:       genders,
		Languages:     languages,
		Texts:         []string{keyword},
		SpeakingRates: sweepCfg.SpeakingRates,
	}, nil
}

// prepareDirs resets the waveform directory and makes sure the cache exists.
func prepareDirs(paths config.PathsConfig, log *logger.Logger) error {
	resetErr := ttsutils.RemoveDirTolerant(paths.WAVDir)
	if resetErr != nil {
		log.Warn("Could not fully remove %s: %v", paths.WAVDir, resetErr)
	}

	for _, dir := range []string{paths.MP3Dir, paths.WAVDir} {
		ensureErr := ttsutils.EnsureDir(dir)
		if ensureErr != nil {
			return ensureErr
		}
	}

	return nil
}

func generate(
	ctx context.Context,
	d deps,
	cfg *config.Config,
	env *config.Env,
	flags *config.Flags,
	log *logger.Logger,
	stdout io.Writer,
	options []sweep.Option,
) (*worker.Result, error) {
	dirErr := prepareDirs(cfg.Paths, log)
	if dirErr != nil {
		return nil, dirErr
	}

	synth, err := d.newSynthesizer(ctx, env.TTSAPIKey, log)
	if err != nil {
		return nil, err
	}

	defer func() {
		closeErr := synth.Close()
		if closeErr != nil {
			log.Warn("Failed to close synthesis client: %v", closeErr)
		}
	}()

	converter := audio.NewSoxConverter(cfg.Conversion.Binary, d.runner)

	generator, err := worker.NewGenerator(synth, converter, worker.Settings{
		Label:          flags.Label,
		OutLength:      flags.OutLength,
		MP3Dir:         cfg.Paths.MP3Dir,
		WAVDir:         cfg.Paths.WAVDir,
		SilenceTrack:   cfg.Conversion.SilenceTrack,
		SampleRate:     cfg.Synthesis.SampleRateHertz,
		RateLimitDelay: cfg.RateLimitDelay(),
		Provider:       cfg.Synthesis.Provider,
		Progress:       stdout,
	}, log)
	if err != nil {
		return nil, err
	}

	return generator.Run(ctx, options)
}

func mirror(ctx context.Context, cfg *config.Config, log *logger.Logger, files []manifest.File) error {
	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
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

	datasetMirror, err := objectstore.NewMirror(store, natsConnection, cfg.NATS.AudioChunkCreatedSubject, log)
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(files))
	for _, file := range files {
		paths = append(paths, file.Path)
	}

	_, err = datasetMirror.Sync(ctx, paths)
	if err != nil {
		return err
	}

	return natsConnection.Flush()
}

// upload writes the manifest to a temporary directory, runs the uploader on
// it and removes the directory again.
func upload(
	ctx context.Context,
	runner process.Runner,
	cfg *config.Config,
	env *config.Env,
	log *logger.Logger,
	stdout io.Writer,
	files []manifest.File,
) error {
	manifestPath, err := manifest.WriteTemp(os.TempDir(), manifest.New(files))
	if err != nil {
		return err
	}

	defer func() {
		removeErr := os.RemoveAll(filepath.Dir(manifestPath))
		if removeErr != nil {
			log.Warn("Failed to remove manifest directory: %v", removeErr)
		}
	}()

	fmt.Fprintln(stdout, "Importing files into project...")

	up := uploader.New(uploaderConfig(cfg, env), runner, log)

	uploadErr := up.Upload(ctx, manifestPath)
	if uploadErr != nil {
		return uploadErr
	}

	fmt.Fprintln(stdout, "Importing files into project OK")

	return nil
}

func uploaderConfig(cfg *config.Config, env *config.Env) uploader.Config {
	return uploader.Config{
		Binary:                cfg.Upload.Binary,
		APIKey:                env.ProjectAPIKey,
		IngestionHost:         env.IngestionHost,
		TLSRejectUnauthorized: env.TLSRejectUnauthorized,
		ProgressIntervalMS:    cfg.Upload.ProgressIntervalMS,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:], os.Stdout, defaultDeps())

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
