package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// AllLanguages selects the whole catalog when it appears in --lang.
const AllLanguages = "all"

// ErrInvalidLanguage indicates that a requested locale is not in the catalog.
var ErrInvalidLanguage = errors.New("invalid language")

// languageCatalog lists the supported locale codes in catalog order.
var languageCatalog = []string{
	"ar-XA", "bn-IN", "en-GB", "fr-CA",
	"en-US", "es-ES", "fi-FI", "gu-IN",
	"ja-JP", "kn-IN", "ml-IN", "sv-SE",
	"ta-IN", "tr-TR", "cs-CZ", "de-DE",
	"en-AU", "en-IN", "fr-FR", "hi-IN",
	"id-ID", "it-IT", "ko-KR", "ru-RU",
	"uk-UA", "cmn-CN", "cmn-TW", "da-DK",
	"el-GR", "fil-PH", "hu-HU", "nb-NO",
	"nl-NL", "pt-PT", "sk-SK", "vi-VN",
	"pl-PL", "pt-BR", "ca-ES", "yue-HK",
	"af-ZA", "bg-BG", "lv-LV", "ro-RO",
	"sr-RS", "th-TH", "te-IN", "is-IS",
}

// LanguageCatalog returns a copy of the supported locale codes.
func LanguageCatalog() []string {
	return slices.Clone(languageCatalog)
}

// IsSupportedLanguage reports whether code is in the catalog.
func IsSupportedLanguage(code string) bool {
	return slices.Contains(languageCatalog, code)
}

// ResolveLanguages turns the --lang value into the working language list.
//
// If any entry is "all" the full catalog is returned. Otherwise the entries
// are returned as given, in order. Entries missing from the catalog are
// reported through ErrInvalidLanguage, but they stay in the returned list:
// callers decide whether to stop.
func ResolveLanguages(value string) ([]string, error) {
	selected := strings.Split(value, ",")

	if slices.Contains(selected, AllLanguages) {
		return LanguageCatalog(), nil
	}

	var invalid []string

	for _, code := range selected {
		if !IsSupportedLanguage(code) {
			invalid = append(invalid, code)
		}
	}

	if len(invalid) > 0 {
		return selected, fmt.Errorf(
			"%w %s, not in list of valid languages [%s]",
			ErrInvalidLanguage,
			strings.Join(invalid, ", "),
			strings.Join(languageCatalog, ", "),
		)
	}

	return selected, nil
}
