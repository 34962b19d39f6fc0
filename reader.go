// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Session owns a decoded archive: its Byte Source, Trailer and Index.
// It is the library's public entry point, mirroring the teacher's Reader
// type and its Open/OpenWithOptions/Entries/Close surface.
type Session struct {
	src     *byteSource
	file    *os.File
	trailer *Trailer
	index   *Index
	opts    ReaderOptions

	mu     sync.Mutex
	closed bool
}

// Open opens a PAK archive by path and decodes its trailer and index.
func Open(path string) (*Session, error) {
	return OpenWithOptions(path, ReaderOptions{})
}

// OpenWithOptions opens a PAK archive by path using explicit reader options.
func OpenWithOptions(path string, opts ReaderOptions) (*Session, error) {
	opts.applyDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	s, err := NewSessionFromReaderAtWithOptions(f, fi.Size(), opts)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	s.file = f
	return s, nil
}

// NewSessionFromReaderAt decodes a PAK archive from an existing io.ReaderAt
// of known size, using default reader options.
func NewSessionFromReaderAt(ra io.ReaderAt, size int64) (*Session, error) {
	return NewSessionFromReaderAtWithOptions(ra, size, ReaderOptions{})
}

// NewSessionFromReaderAtWithOptions decodes a PAK archive from an existing
// io.ReaderAt of known size, using explicit reader options.
func NewSessionFromReaderAtWithOptions(ra io.ReaderAt, size int64, opts ReaderOptions) (*Session, error) {
	opts.applyDefaults()

	if ra == nil {
		return nil, ErrNilArchive
	}

	src := newByteSource(ra, size)

	magicOffset, version, err := locateTrailer(src)
	if err != nil {
		opts.Logger.Warn("trailer locate failed", "err", err)
		return nil, err
	}

	trailer, err := decodeTrailer(src, version, magicOffset)
	if err != nil {
		opts.Logger.Warn("trailer decode failed", "version", version, "err", err)
		return nil, err
	}

	opts.Logger.Info("trailer decoded", "version", trailer.Version, "index_offset", trailer.IndexOffset)

	idx, err := decodeIndex(src, trailer)
	if err != nil {
		opts.Logger.Warn("index decode failed", "err", err)
		return nil, err
	}

	opts.Logger.Info("index decoded", "entries", len(idx.Entries), "mount_point", idx.MountPoint)

	return &Session{src: src, trailer: trailer, index: idx, opts: opts}, nil
}

// Entries returns a copy of every resolved file entry, legacy and modern alike.
func (s *Session) Entries() []FileEntry {
	if s == nil || s.index == nil {
		return nil
	}

	entries := make([]FileEntry, len(s.index.Entries))
	copy(entries, s.index.Entries)
	return entries
}

// MountPoint returns the archive's declared mount point.
func (s *Session) MountPoint() string {
	if s == nil || s.index == nil {
		return ""
	}

	return s.index.MountPoint
}

// CompressionMethods returns the trailer's ordered compression method name table.
func (s *Session) CompressionMethods() []string {
	if s == nil || s.trailer == nil {
		return nil
	}

	out := make([]string, len(s.trailer.CompressionMethods))
	copy(out, s.trailer.CompressionMethods)
	return out
}

// Version returns the archive's trailer version.
func (s *Session) Version() int32 {
	if s == nil || s.trailer == nil {
		return 0
	}

	return s.trailer.Version
}

// entryByPath finds a resolved entry by its exact normalized path.
func (s *Session) entryByPath(p string) (FileEntry, bool) {
	normalized := NormalizePath(p)
	for _, e := range s.index.Entries {
		if NormalizePath(e.Path) == normalized {
			return e, true
		}
	}

	return FileEntry{}, false
}

// Open returns a streaming reader over one archived file's decompressed
// payload. The returned ReadCloser must be closed by the caller.
func (s *Session) Open(path string) (io.ReadCloser, error) {
	if s == nil || s.src == nil {
		return nil, ErrNilArchive
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	entry, ok := s.entryByPath(path)
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrEntryNotFound)
	}

	if entry.Data.Encrypted {
		return nil, newDecodeError("", entry.Path, entry.Data.Offset, KindEncryptionUnsupported, nil)
	}

	return newEntryReader(s.src, &entry, s.opts.Decompressors)
}

// Close releases the underlying file if the Session owns one. Close is
// idempotent.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.file != nil {
		return s.file.Close()
	}

	return nil
}
