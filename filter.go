// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import "strings"

// filterEntriesByPrefix keeps entries under prefix (or exact match if it points to a file).
func filterEntriesByPrefix(entries []FileEntry, prefix string) []FileEntry {
	prefix = NormalizePath(prefix)
	if prefix == "" {
		return entries
	}

	normalizedPrefix := prefix + "/"
	out := make([]FileEntry, 0, len(entries))
	for _, entry := range entries {
		entryPath := NormalizePath(entry.Path)
		if entryPath == prefix || strings.HasPrefix(entryPath, normalizedPrefix) {
			out = append(out, entry)
		}
	}

	return out
}

// EntriesUnderPrefix returns every resolved entry whose normalized path
// equals prefix or falls under it, in decode order.
func (s *Session) EntriesUnderPrefix(prefix string) []FileEntry {
	if s == nil || s.index == nil {
		return nil
	}

	return filterEntriesByPrefix(s.index.Entries, prefix)
}
