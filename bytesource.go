// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"fmt"
	"io"
)

// byteSource is a seekable random-access reader over the archive. It wraps
// an io.ReaderAt (cheap random access is the only assumption) with a
// mutable cursor so callers can mix absolute reads (the Trailer Locator's
// backward scan) and cursor-relative sequential reads (index/record
// walking) without passing position explicitly at every call, the way the
// teacher's Reader mixes io.ReaderAt access with sequential index parsing.
type byteSource struct {
	ra  io.ReaderAt
	pos int64
	len int64
}

// newByteSource wraps ra, known to span exactly length bytes.
func newByteSource(ra io.ReaderAt, length int64) *byteSource {
	return &byteSource{ra: ra, len: length}
}

// Len reports the total archive length in bytes.
func (b *byteSource) Len() int64 {
	return b.len
}

// Pos reports the current sequential-read cursor.
func (b *byteSource) Pos() int64 {
	return b.pos
}

// Seek repositions the sequential-read cursor to an absolute offset.
func (b *byteSource) Seek(offset int64) {
	b.pos = offset
}

// ReadAt performs an absolute read of len(buf) bytes without moving the cursor.
// It fails with KindIO on a short read.
func (b *byteSource) ReadAt(buf []byte, offset int64) error {
	if offset < 0 || offset > b.len {
		return fmt.Errorf("read at %d: %w", offset, ErrOffsetOutOfRange)
	}

	n, err := b.ra.ReadAt(buf, offset)
	if n == len(buf) {
		return nil
	}

	if err == nil {
		err = io.ErrUnexpectedEOF
	}

	return fmt.Errorf("read at %d: %w: %w", offset, ErrIO, err)
}

// Read reads len(buf) bytes starting at the cursor and advances it.
func (b *byteSource) Read(buf []byte) error {
	if err := b.ReadAt(buf, b.pos); err != nil {
		return err
	}

	b.pos += int64(len(buf))
	return nil
}

// Peek reads up to n bytes at offset without moving the cursor, returning
// fewer bytes near end-of-archive rather than failing.
func (b *byteSource) Peek(offset int64, n int) ([]byte, error) {
	if offset < 0 || offset > b.len {
		return nil, fmt.Errorf("peek at %d: %w", offset, ErrOffsetOutOfRange)
	}

	remaining := b.len - offset
	if int64(n) > remaining {
		n = int(remaining)
	}

	buf := make([]byte, n)
	if n == 0 {
		return buf, nil
	}

	read, err := b.ra.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("peek at %d: %w: %w", offset, ErrIO, err)
	}

	return buf[:read], nil
}

// sectionReader returns an io.SectionReader over [offset, offset+length) of the archive.
func (b *byteSource) sectionReader(offset, length int64) *io.SectionReader {
	return io.NewSectionReader(b.ra, offset, length)
}
