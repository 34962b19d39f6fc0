// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"path"
	"regexp"
	"strings"
)

// NormalizePath converts an archive/internal path to normalized slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func NormalizePath(raw string) string {
	raw = normalizePathForMatching(raw)
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// normalizePathForMatching normalizes user/input paths for matcher use.
func normalizePathForMatching(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, `\`, `/`)
	raw = strings.TrimPrefix(raw, "./")
	return raw
}

// windowsDriveRoot matches a Windows drive-root prefix like "C:/", which an
// extraction target path must never be allowed to resolve to regardless of
// which platform a given PAK was cooked for — the archive's own entries are
// always slash-relative, so seeing one is always a malformed or hostile path.
var windowsDriveRoot = regexp.MustCompile(`^[A-Za-z]:/`)

// normalizeExtractEntryPath normalizes an archive path ahead of output path
// construction, rejecting absolute and traversal inputs: it replaces
// backslashes with forward slashes, drops empty and "." segments, and
// rejects any ".." segment with ErrInvalidExtractPath.
func normalizeExtractEntryPath(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" || strings.ContainsRune(raw, 0) {
		return "", ErrInvalidExtractPath
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidExtractPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if windowsDriveRoot.MatchString(raw) {
		return "", ErrInvalidExtractPath
	}

	segments := strings.Split(raw, "/")
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		switch segment {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidExtractPath
		default:
			kept = append(kept, segment)
		}
	}
	if len(kept) == 0 {
		return "", ErrInvalidExtractPath
	}

	return strings.Join(kept, "/"), nil
}
