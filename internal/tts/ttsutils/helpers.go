// Package ttsutils provides the file and path helpers used by the dataset
// pipeline: directory setup, the destructive output reset, existence checks
// and human-readable formatting for log lines.
package ttsutils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Common path constants.
const (
	defaultDirPermissions = 0o750
	nfsArtifactPrefix     = ".nfs"
)

// Data size constants.
const (
	byteUnit = 1
	kilobyte = byteUnit * 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Time and size formatting constants.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
	formatSeconds   = "%.1fs"
	formatMinutes   = "%dm %.1fs"
	formatHours     = "%dh %dm"
	formatGB        = "%.1f GB"
	formatMB        = "%.1f MB"
	formatKB        = "%.1f KB"
	formatBytes     = "%d B"
)

// Error message and format string constants.
const (
	errFmtFailedToCreateDir           = "failed to create directory %s: %w"
	errFmtCouldNotResolveAbsolutePath = "could not resolve absolute path for %q: %w"
	errFmtErrorCheckingPath           = "error checking path %q: %w"
	errFmtFailedToReadDir             = "failed to read directory %s: %w"
	errFmtFailedToRemoveDir           = "failed to remove %s: %w"
)

// EnsureDir ensures a directory exists at the given path, creating it if it doesn't.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		// MkdirAll is used to create parent directories as needed.
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf(
				errFmtFailedToCreateDir,
				path,
				mkdirErr,
			)
		}
	}

	return nil
}

// FileExists reports whether something exists at path. Errors other than
// "not found" are returned.
func FileExists(path string) (bool, error) {
	_, statErr := os.Stat(path)
	if statErr == nil {
		return true, nil
	}

	if errors.Is(statErr, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf(errFmtErrorCheckingPath, path, statErr)
}

// AbsPath resolves path against the working directory.
func AbsPath(path string) (string, error) {
	absPath, absErr := filepath.Abs(path)
	if absErr != nil {
		return "", fmt.Errorf(errFmtCouldNotResolveAbsolutePath, path, absErr)
	}

	return absPath, nil
}

// RemoveDirTolerant deletes a directory tree, leaving alone entries whose
// name starts with ".nfs". Networked filesystems keep those while a file is
// still open somewhere. Failures to unlink single files are ignored;
// failures to read or remove directories are collected and returned so the
// caller can log them. A missing directory is not an error.
func RemoveDirTolerant(path string) error {
	exists, existsErr := FileExists(path)
	if existsErr != nil {
		return existsErr
	}

	if !exists {
		return nil
	}

	entries, readErr := os.ReadDir(path)
	if readErr != nil {
		return fmt.Errorf(errFmtFailedToReadDir, path, readErr)
	}

	var errs []error

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), nfsArtifactPrefix) {
			continue
		}

		fullPath := filepath.Join(path, entry.Name())

		if entry.IsDir() {
			childErr := RemoveDirTolerant(fullPath)
			if childErr != nil {
				errs = append(errs, childErr)
			}

			continue
		}

		_ = os.Remove(fullPath)
	}

	removeErr := os.Remove(path)
	if removeErr != nil {
		errs = append(errs, fmt.Errorf(errFmtFailedToRemoveDir, path, removeErr))
	}

	return errors.Join(errs...)
}

// FormatDuration formats a duration in a human-readable string (e.g., "1h 15m", "5m
// 30.5s", "45.2s").
func FormatDuration(seconds float64) string {
	if seconds < secondsInMinute {
		return fmt.Sprintf(formatSeconds, seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remainingSeconds := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf(formatMinutes, minutes, remainingSeconds)
	}

	hours := int(seconds / secondsInHour)
	remainingSeconds := seconds - float64(hours*secondsInHour)
	remainingMinutes := int(remainingSeconds / secondsInMinute)

	return fmt.Sprintf(formatHours, hours, remainingMinutes)
}

// FormatFileSize formats a file size in a human-readable string (e.g., "1.2 GB", "500.5
// MB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf(formatGB, float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}
