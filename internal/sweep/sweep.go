// Package sweep generates the voice-parameter combinations for a dataset
// and reduces them to a requested size.
package sweep

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Gender is the SSML voice gender requested from the synthesizer.
type Gender string

// Supported voice genders.
const (
	GenderFemale Gender = "FEMALE"
	GenderMale   Gender = "MALE"
)

var (
	// ErrEmptyAxis indicates that one of the sweep axes has no values.
	ErrEmptyAxis = errors.New("sweep axis cannot be empty")
	// ErrUnsupportedGender indicates a gender other than FEMALE or MALE.
	ErrUnsupportedGender = errors.New("unsupported gender")
	// ErrInvalidCount indicates a non-positive target count.
	ErrInvalidCount = errors.New("count must be positive")
)

// Option is one combination of voice parameters. It maps to exactly one
// synthesis request and one pair of output files.
type Option struct {
	Pitch        int
	Gender       Gender
	Language     string
	Text         string
	SpeakingRate float64
}

// Axes holds the values swept over. Construct it once and pass it to
// Generate; it is not modified.
type Axes struct {
	Pitches       []int
	Genders       []Gender
	Languages     []string
	Texts         []string
	SpeakingRates []float64
}

// DefaultAxes returns the standard axes for a keyword over languages.
func DefaultAxes(languages []string, keyword string) Axes {
	return Axes{
		Pitches:       []int{-10, 0, 10},
		Genders:       []Gender{GenderFemale, GenderMale},
		Languages:     languages,
		Texts:         []string{keyword},
		SpeakingRates: []float64{0.75, 1, 1.25},
	}
}

// ParseGender converts a configured gender name into a Gender.
func ParseGender(name string) (Gender, error) {
	gender := Gender(strings.ToUpper(strings.TrimSpace(name)))

	switch gender {
	case GenderFemale, GenderMale:
		return gender, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedGender, name)
	}
}

// Validate reports an error if any axis is empty.
func (a Axes) Validate() error {
	axes := []struct {
		name string
		size int
	}{
		{"pitches", len(a.Pitches)},
		{"genders", len(a.Genders)},
		{"languages", len(a.Languages)},
		{"texts", len(a.Texts)},
		{"speaking rates", len(a.SpeakingRates)},
	}

	for _, axis := range axes {
		if axis.size == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyAxis, axis.name)
		}
	}

	return nil
}

// Size is the number of options in the full sweep.
func (a Axes) Size() int {
	return len(a.Pitches) * len(a.Genders) * len(a.Languages) * len(a.Texts) * len(a.SpeakingRates)
}

// Generate returns the full sweep. The nesting order, outermost first, is
// pitch, gender, language, text, speaking rate; Subsample depends on it.
func Generate(axes Axes) []Option {
	options := make([]Option, 0, axes.Size())

	for _, pitch := range axes.Pitches {
		for _, gender := range axes.Genders {
			for _, language := range axes.Languages {
				for _, text := range axes.Texts {
					for _, rate := range axes.SpeakingRates {
						options = append(options, Option{
							Pitch:        pitch,
							Gender:       gender,
							Language:     language,
							Text:         text,
							SpeakingRate: rate,
						})
					}
				}
			}
		}
	}

	return options
}

// Subsample keeps roughly count evenly spaced options, in order. Options are
// returned unchanged when there are no more than count of them.
//
// The stride is len(options)/count as a real number. An index is kept only
// when it is strictly greater than the running threshold, which then
// advances by one stride. Index 0 is therefore never kept, and the result
// may differ from count by rounding.
func Subsample(options []Option, count int) []Option {
	if len(options) <= count {
		return options
	}

	stride := float64(len(options)) / float64(count)
	threshold := 0.0
	selected := make([]Option, 0, count)

	for index, option := range options {
		if float64(index) > threshold {
			threshold += stride

			selected = append(selected, option)
		}
	}

	return selected
}

// Build generates the sweep for axes and reduces it to count options.
func Build(axes Axes, count int) ([]Option, error) {
	if count <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}

	validateErr := axes.Validate()
	if validateErr != nil {
		return nil, validateErr
	}

	return Subsample(Generate(axes), count), nil
}

// FormatRate prints a speaking rate in its shortest form (0.75, 1, 1.25).
func FormatRate(rate float64) string {
	return strconv.FormatFloat(rate, 'f', -1, 64)
}

// FileStem returns the output file name shared by both files of an option,
// without directory or extension:
//
//	<label>.<language>-<gender>-<pitch>-<speakingRate>
func FileStem(label string, option Option) string {
	return fmt.Sprintf("%s.%s-%s-%d-%s",
		label,
		option.Language,
		option.Gender,
		option.Pitch,
		FormatRate(option.SpeakingRate),
	)
}
