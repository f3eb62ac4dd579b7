package config

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// Flag names.
const (
	FlagKeyword       = "keyword"
	FlagLabel         = "label"
	FlagLang          = "lang"
	FlagCount         = "count"
	FlagOutLength     = "out-length"
	FlagSkipUpload    = "skip-upload"
	FlagConfig        = "config"
	FlagListLanguages = "list-languages"
	FlagVersion       = "version"

	DefaultOutLength = "00:01"
)

// Flag descriptions.
const (
	flagKeywordDesc       = `Keyword or short sentence (e.g. "hello world")`
	flagLabelDesc         = `Label to be used in the dataset (e.g. "helloworld")`
	flagLangDesc          = `Languages (comma-separated, or "all" for all), e.g. nl-NL,en-US`
	flagCountDesc         = "Number of keywords to generate"
	flagOutLengthDesc     = "Out length passed to the trim step"
	flagSkipUploadDesc    = "Skip uploading the dataset"
	flagConfigDesc        = "Path to a TOML config file"
	flagListLanguagesDesc = "Print the supported languages and exit"
	flagVersionDesc       = "Print the version and exit"
)

var (
	// ErrMissingFlag indicates that a required flag was not provided.
	ErrMissingFlag = errors.New("missing required flag")
	// ErrInvalidCount indicates that --count is not a positive integer.
	ErrInvalidCount = errors.New("invalid value --count, should be a positive integer")
)

// Flags holds the parsed command-line flag values.
type Flags struct {
	Keyword       string
	Label         string
	Lang          string
	Count         int
	OutLength     string
	SkipUpload    bool
	ConfigPath    string
	ListLanguages bool
	Version       bool
}

// ParseFlags parses args (without the program name). Unknown flags are
// tolerated. Required flags are not enforced when --version or
// --list-languages is given.
func ParseFlags(args []string, output io.Writer) (*Flags, error) {
	var (
		flags    Flags
		rawCount string
	)

	flagSet := pflag.NewFlagSet("tts-dataset", pflag.ContinueOnError)
	flagSet.ParseErrorsWhitelist = pflag.ParseErrorsWhitelist{UnknownFlags: true}
	flagSet.SetOutput(output)

	flagSet.StringVar(&flags.Keyword, FlagKeyword, "", flagKeywordDesc)
	flagSet.StringVar(&flags.Label, FlagLabel, "", flagLabelDesc)
	flagSet.StringVar(&flags.Lang, FlagLang, "", flagLangDesc)
	flagSet.StringVar(&rawCount, FlagCount, "", flagCountDesc)
	flagSet.StringVar(&flags.OutLength, FlagOutLength, DefaultOutLength, flagOutLengthDesc)
	flagSet.BoolVar(&flags.SkipUpload, FlagSkipUpload, false, flagSkipUploadDesc)
	flagSet.StringVar(&flags.ConfigPath, FlagConfig, "", flagConfigDesc)
	flagSet.BoolVar(&flags.ListLanguages, FlagListLanguages, false, flagListLanguagesDesc)
	flagSet.BoolVar(&flags.Version, FlagVersion, false, flagVersionDesc)

	parseErr := flagSet.Parse(args)
	if parseErr != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", parseErr)
	}

	if flags.Version || flags.ListLanguages {
		return &flags, nil
	}

	required := []struct {
		name  string
		value string
	}{
		{FlagKeyword, flags.Keyword},
		{FlagLabel, flags.Label},
		{FlagLang, flags.Lang},
		{FlagCount, rawCount},
	}

	for _, flag := range required {
		if strings.TrimSpace(flag.value) == "" {
			return nil, fmt.Errorf("%w: --%s", ErrMissingFlag, flag.name)
		}
	}

	count, countErr := parseCount(rawCount)
	if countErr != nil {
		return nil, countErr
	}

	flags.Count = count

	if flags.OutLength == "" {
		flags.OutLength = DefaultOutLength
	}

	return &flags, nil
}

func parseCount(raw string) (int, error) {
	count, convErr := strconv.Atoi(strings.TrimSpace(raw))
	if convErr != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, raw)
	}

	if count <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	return count, nil
}
