// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"fmt"
	"hash/fnv"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// maxSanitizedSegmentLen limits one path segment to common filesystem-safe length.
const maxSanitizedSegmentLen = 240

// reservedDOSNames contains case-insensitive reserved DOS/Windows/OS2 device names.
// Cooked Unreal content is never built against these, but a PAK can be
// extracted to a Windows host regardless of the target platform it was
// cooked for, so the names are still worth guarding against.
var reservedDOSNames = map[string]struct{}{
	"$":        {},
	"$addstor": {},
	"$idle$":   {},
	"386max$$": {},
	"4dosstak": {},
	"82164a":   {},
	"aux":      {},
	"cloak$$$": {},
	"clock":    {},
	"clock$":   {},
	"com1":     {},
	"com2":     {},
	"com3":     {},
	"com4":     {},
	"com5":     {},
	"com6":     {},
	"com7":     {},
	"com8":     {},
	"com9":     {},
	"con":      {},
	"config$":  {},
	"dblssys$": {},
	"dpmixxx0": {},
	"dpmsxxx0": {},
	"emm$$$$$": {},
	"emmqxxx0": {},
	"emmxxxx0": {},
	"emmxxxq0": {},
	"hmaldsys": {},
	"ifs$hlp$": {},
	"kbd$":     {},
	"keybd$":   {},
	"lpt1":     {},
	"lpt2":     {},
	"lpt3":     {},
	"lpt4":     {},
	"lpt5":     {},
	"lpt6":     {},
	"lpt7":     {},
	"lpt8":     {},
	"lpt9":     {},
	"lst":      {},
	"mouse$":   {},
	"ndosstak": {},
	"nul":      {},
	"pc$mouse": {},
	"plt":      {},
	"pointer$": {},
	"prn":      {},
	"protman$": {},
	"qdpmi$$$": {},
	"qemm386$": {},
	"qextxxx0": {},
	"qmmxxxx0": {},
	"screen$":  {},
	"vcpixxx0": {},
	"xmsxxxx0": {},
}

// vendorGUIDSuffix matches a trailing ".{xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx}"
// token, as it appears on some vendor-tagged plugin content folders shipped
// inside Plugins/ (the plugin's marketplace GUID embedded directly in the
// cooked directory name). Left alone it aliases a Windows shell namespace
// class identifier once extracted to disk.
var vendorGUIDSuffix = regexp.MustCompile(`(?i)\.\{[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\}$`)

// SanitizePath rewrites one path to deterministic filesystem-safe slash-separated form.
func SanitizePath(pathValue string) (string, error) {
	normalizedPath := NormalizePath(pathValue)
	if normalizedPath == "" {
		return "", nil
	}

	sanitized, err := sanitizeRelativePath(normalizedPath)
	if err != nil {
		return "", err
	}

	if _, err := normalizeExtractEntryPath(sanitized); err != nil {
		return "", err
	}

	return sanitized, nil
}

// sanitizeFileEntryPaths rewrites entry paths to deterministic filesystem-safe
// names, resolving collisions with a numeric suffix. Used by Extract when
// ExtractOptions.SanitizeNames is set, ahead of output path construction.
func sanitizeFileEntryPaths(entries []FileEntry) ([]FileEntry, error) {
	out := make([]FileEntry, len(entries))
	collisions := newPathCollisionTracker()

	for i := range entries {
		relativePath := entries[i].Path
		if normalized, err := normalizeExtractEntryPath(entries[i].Path); err == nil {
			relativePath = normalized
		} else {
			// Stay resilient for mangled/obfuscated cooked names: fall back to
			// a bare slash conversion instead of failing the whole extraction.
			relativePath = strings.ReplaceAll(relativePath, `\`, `/`)
		}

		sanitized, err := sanitizeRelativePath(relativePath)
		if err != nil {
			return nil, fmt.Errorf("sanitize path %s: %w", entries[i].Path, err)
		}

		sanitized, err = collisions.resolve(sanitized)
		if err != nil {
			return nil, fmt.Errorf("sanitize path %s: %w", entries[i].Path, err)
		}

		if _, err := normalizeExtractEntryPath(sanitized); err != nil {
			return nil, fmt.Errorf("sanitize path %s: %w", entries[i].Path, err)
		}

		out[i] = entries[i]
		out[i].Path = sanitized
	}

	return out, nil
}

// sanitizeRelativePath sanitizes each segment of a relative slash-separated path.
func sanitizeRelativePath(relativePath string) (string, error) {
	parts := strings.Split(relativePath, "/")
	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "." {
			continue
		}

		segment, err := sanitizePathSegment(part)
		if err != nil {
			return "", err
		}

		sanitized = append(sanitized, segment)
	}
	if len(sanitized) == 0 {
		return "_", nil
	}

	return strings.Join(sanitized, "/"), nil
}

// sanitizePathSegment sanitizes one path segment for broad filesystem
// compatibility: characters are substituted first, then the resulting name
// is checked against the reserved-device table. Cooked content never
// disguises a reserved name behind a confusable Unicode character the way
// an adversarially-crafted archive might, so a single post-substitution
// check is enough here.
func sanitizePathSegment(segment string) (string, error) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return "_", nil
	}

	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		if isUnsafeControlCharRune(r) || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	sanitized := strings.TrimRight(b.String(), ". ")
	if sanitized == "" {
		sanitized = "_"
	}

	sanitized = rewriteVendorGUIDSuffix(sanitized)

	base := sanitized
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		base = base[:dot]
	}
	if isReservedDeviceName(base) {
		sanitized = "_" + sanitized
	}

	if len(sanitized) > maxSanitizedSegmentLen {
		sanitized = shortenSegmentDeterministic(sanitized, maxSanitizedSegmentLen)
	}
	if sanitized == "" {
		return "", ErrInvalidExtractPath
	}

	return sanitized, nil
}

// isUnsafeControlCharRune reports whether rune is unsafe for textual output and should be replaced.
func isUnsafeControlCharRune(r rune) bool {
	if unicode.IsControl(r) || unicode.In(r, unicode.Cf) {
		return true
	}

	// U+FFFD often appears from invalid byte sequences in obfuscated names.
	return r == '�'
}

// rewriteVendorGUIDSuffix breaks up a trailing plugin-vendor-GUID suffix so
// it no longer matches the Windows shell's braced-CLSID folder convention.
func rewriteVendorGUIDSuffix(segment string) string {
	if !vendorGUIDSuffix.MatchString(segment) {
		return segment
	}

	dotIndex := strings.LastIndex(segment, ".{")
	return segment[:dotIndex] + "_" + segment[dotIndex+1:]
}

// isReservedDeviceName reports whether name matches reserved DOS/Windows/OS2
// device identifier. The trim set includes "_" as well as the usual
// trailing dot/colon/space, since sanitizePathSegment's own character
// substitution runs before this check and would already have turned a
// trailing "aux:" into "aux_" by the time this sees it.
func isReservedDeviceName(name string) bool {
	candidate := strings.TrimSpace(name)
	candidate = strings.TrimRight(candidate, ". :_")
	candidate = strings.ToLower(candidate)
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	candidate = strings.TrimRight(candidate, ". :_")
	if candidate == "" {
		return false
	}

	_, ok := reservedDOSNames[candidate]
	return ok
}

// pathCollisionTracker resolves sanitized-path collisions with a
// deterministic numeric suffix, remembering both which paths are already
// taken and, per colliding key, which suffix to try next so repeated
// collisions on the same original name don't restart the search from zero.
type pathCollisionTracker struct {
	nextSuffix map[string]int
}

func newPathCollisionTracker() *pathCollisionTracker {
	return &pathCollisionTracker{nextSuffix: make(map[string]int)}
}

// resolve returns pathValue unchanged the first time it's seen, or a
// "~N"-suffixed variant on every subsequent collision (case-insensitively).
func (t *pathCollisionTracker) resolve(pathValue string) (string, error) {
	key := strings.ToLower(pathValue)
	if _, taken := t.nextSuffix[key]; !taken {
		t.nextSuffix[key] = 2
		return pathValue, nil
	}

	dir := path.Dir(pathValue)
	name := path.Base(pathValue)

	for idx := t.nextSuffix[key]; idx < 1000000; idx++ {
		candidate := withNumericSuffix(name, idx)
		if dir != "." {
			candidate = dir + "/" + candidate
		}

		candidateKey := strings.ToLower(candidate)
		if _, taken := t.nextSuffix[candidateKey]; taken {
			continue
		}

		t.nextSuffix[candidateKey] = 2
		t.nextSuffix[key] = idx + 1
		return candidate, nil
	}

	return "", ErrInvalidExtractPath
}

// withNumericSuffix appends "~N" before extension and preserves max segment length.
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := "~" + strconv.Itoa(n)
	allowedBaseLen := max(maxSanitizedSegmentLen-len(ext)-len(suffix), 1)
	if len(base) > allowedBaseLen {
		base = shortenSegmentDeterministic(base, allowedBaseLen)
	}

	return base + suffix + ext
}

// shortenSegmentDeterministic shortens long segment while preserving deterministic identity suffix.
func shortenSegmentDeterministic(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 10 {
		return value[:maxLen]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	hashPart := fmt.Sprintf("~%08x", h.Sum32())
	prefixLen := max(maxLen-len(hashPart), 1)

	return value[:prefixLen] + hashPart
}
