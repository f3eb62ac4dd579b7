// Package text cleans up the keyword and label given on the command line
// before they reach the synthesis API and the file system.
package text

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const whitespaceRegexPattern = `\s+`

// Punctuation that some keyboards and shells substitute for plain ASCII.
const (
	emDash       = "—"
	enDash       = "–"
	figureDash   = "‒"
	ellipsis     = "..."
	ellipsisChar = "…"
)

// unsafeLabelChars are invalid in file names on at least one common file system.
const unsafeLabelChars = `<>:"/\|?*`

var (
	// ErrEmptyKeyword indicates that the keyword is empty after normalization.
	ErrEmptyKeyword = errors.New("keyword cannot be empty")
	// ErrUnsafeLabel indicates a label that cannot be used in a file name.
	ErrUnsafeLabel = errors.New("label contains characters not allowed in file names")
)

// Normalizer tidies keywords for speech synthesis.
type Normalizer struct {
	whitespacePattern *regexp.Regexp
	punctuation       *strings.Replacer
}

// NewNormalizer creates a Normalizer with its patterns compiled.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
		punctuation: strings.NewReplacer(
			emDash, "-",
			enDash, "-",
			figureDash, "-",
			ellipsisChar, ellipsis,
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
		),
	}
}

// Keyword collapses runs of whitespace, trims the ends and replaces
// typographic quotes and dashes with ASCII. Wording and case are kept.
func (n *Normalizer) Keyword(keyword string) (string, error) {
	normalized := n.whitespacePattern.ReplaceAllString(keyword, " ")
	normalized = strings.TrimSpace(n.punctuation.Replace(normalized))

	if normalized == "" {
		return "", ErrEmptyKeyword
	}

	return normalized, nil
}

// ValidateLabel reports ErrUnsafeLabel when label would not survive as part
// of a file name.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: empty", ErrUnsafeLabel)
	}

	if index := strings.IndexAny(label, unsafeLabelChars); index >= 0 {
		return fmt.Errorf("%w: %q at position %d", ErrUnsafeLabel, label[index], index)
	}

	for _, r := range label {
		if r < ' ' {
			return fmt.Errorf("%w: control character %U", ErrUnsafeLabel, r)
		}
	}

	return nil
}
