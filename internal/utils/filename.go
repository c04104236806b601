// Package utils provides utility functions for the APK portal.
package utils

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"
)

// fallbackFilename replaces client names that reduce to nothing usable.
const fallbackFilename = "package.apk"

// SanitizeFilename reduces a client-supplied file name to its last path
// element, so the resulting key can never leave the package prefix.
func SanitizeFilename(name string) string {
	// Browsers on Windows may send backslash-separated paths.
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")

	base := path.Base(name)
	switch base {
	case ".", "..", "/":
		return fallbackFilename
	}
	return base
}

// GeneratePackageKey creates the storage key for a newly uploaded package.
// Format: <prefix><unix-millis>-<sanitized-filename>
func GeneratePackageKey(prefix string, uploaded time.Time, filename string) string {
	return fmt.Sprintf("%s%d-%s", prefix, uploaded.UnixMilli(), SanitizeFilename(filename))
}

// ParsePackageKey extracts the upload time and original file name from a key
// produced by GeneratePackageKey.
func ParsePackageKey(prefix, key string) (time.Time, string, error) {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok {
		return time.Time{}, "", fmt.Errorf("key %q is outside prefix %q", key, prefix)
	}

	stamp, name, ok := strings.Cut(rest, "-")
	if !ok || name == "" {
		return time.Time{}, "", fmt.Errorf("key %q has no timestamp separator", key)
	}

	ms, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil || ms < 0 {
		return time.Time{}, "", fmt.Errorf("key %q has invalid timestamp %q", key, stamp)
	}

	return time.UnixMilli(ms).UTC(), name, nil
}
