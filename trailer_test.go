// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestLocateTrailerFindsMagicAndVersion(t *testing.T) {
	t.Parallel()

	b := newArchiveBuilder()
	b.raw(make([]byte, 512)) // archive body
	indexOffset := b.pos()
	b.nulString("../../")
	b.u32(0) // legacy entry count
	b.appendTrailer(trailerOptions{
		version:     1,
		indexOffset: indexOffset,
		indexSize:   b.pos() - indexOffset,
		guid:        uuid.Nil,
	})

	src := newByteSource(bytes.NewReader(b.bytes()), b.pos())

	offset, version, err := locateTrailer(src)
	if err != nil {
		t.Fatalf("locateTrailer: %v", err)
	}
	if version != 1 {
		t.Fatalf("version=%d, want 1", version)
	}

	trailer, err := decodeTrailer(src, version, offset)
	if err != nil {
		t.Fatalf("decodeTrailer: %v", err)
	}
	if trailer.IndexOffset != indexOffset {
		t.Fatalf("IndexOffset=%d, want %d", trailer.IndexOffset, indexOffset)
	}
}

func TestLocateTrailerTooSmall(t *testing.T) {
	t.Parallel()

	src := newByteSource(bytes.NewReader(make([]byte, 10)), 10)
	_, _, err := locateTrailer(src)
	if !errors.Is(err, ErrTooSmall) {
		t.Fatalf("err=%v, want ErrTooSmall", err)
	}
}

func TestLocateTrailerMagicNotFound(t *testing.T) {
	t.Parallel()

	src := newByteSource(bytes.NewReader(make([]byte, maxTrailerSize+16)), maxTrailerSize+16)
	_, _, err := locateTrailer(src)
	if !errors.Is(err, ErrMagicNotFound) {
		t.Fatalf("err=%v, want ErrMagicNotFound", err)
	}
}

func TestDecodeTrailerWithGUIDAndMethodTable(t *testing.T) {
	t.Parallel()

	b := newArchiveBuilder()
	b.raw(make([]byte, 256))
	indexOffset := b.pos()
	b.nulString("mount/")
	b.u32(0)
	indexEnd := b.pos()

	id := uuid.MustParse("12345678-1234-1234-1234-123456789abc")
	b.appendTrailer(trailerOptions{
		version:        8,
		indexOffset:    indexOffset,
		indexSize:      indexEnd - indexOffset,
		methods:        []string{"Zlib", "Oodle"},
		encryptedIndex: true,
		guid:           id,
	})

	src := newByteSource(bytes.NewReader(b.bytes()), b.pos())
	offset, version, err := locateTrailer(src)
	if err != nil {
		t.Fatalf("locateTrailer: %v", err)
	}

	trailer, err := decodeTrailer(src, version, offset)
	if err != nil {
		t.Fatalf("decodeTrailer: %v", err)
	}

	if !trailer.HasEncryptionGUID || trailer.EncryptionGUID != id {
		t.Fatalf("EncryptionGUID=%v, want %v", trailer.EncryptionGUID, id)
	}
	if !trailer.EncryptedIndex {
		t.Fatal("EncryptedIndex=false, want true")
	}
	if got, want := trailer.MethodName(1), "Zlib"; got != want {
		t.Fatalf("MethodName(1)=%q, want %q", got, want)
	}
	if got, want := trailer.MethodName(2), "Oodle"; got != want {
		t.Fatalf("MethodName(2)=%q, want %q", got, want)
	}
	if got := trailer.MethodName(CompressionMethodNone); got != "" {
		t.Fatalf("MethodName(0)=%q, want empty", got)
	}
}

func TestDecodeTrailerFrozenIndexFlag(t *testing.T) {
	t.Parallel()

	b := newArchiveBuilder()
	b.raw(make([]byte, 64))
	indexOffset := b.pos()
	b.nulString("/")
	b.u32(0)
	indexEnd := b.pos()

	b.appendTrailer(trailerOptions{
		version:     frozenIndexVersion,
		indexOffset: indexOffset,
		indexSize:   indexEnd - indexOffset,
		frozenIndex: true,
	})

	src := newByteSource(bytes.NewReader(b.bytes()), b.pos())
	offset, version, err := locateTrailer(src)
	if err != nil {
		t.Fatalf("locateTrailer: %v", err)
	}

	trailer, err := decodeTrailer(src, version, offset)
	if err != nil {
		t.Fatalf("decodeTrailer: %v", err)
	}
	if !trailer.HasFrozenIndex || !trailer.FrozenIndex {
		t.Fatalf("FrozenIndex=%v HasFrozenIndex=%v, want true/true", trailer.FrozenIndex, trailer.HasFrozenIndex)
	}
}

func TestDecodeTrailerRejectsVersionMismatch(t *testing.T) {
	t.Parallel()

	// Hand-craft a trailer whose version word disagrees with the version
	// passed to decodeTrailer (as if locateTrailer had reported 2).
	b := newArchiveBuilder()
	b.raw(make([]byte, 64))
	indexOffset := b.pos()
	b.nulString("/")
	b.u32(0)
	indexEnd := b.pos()

	b.appendTrailer(trailerOptions{
		version:     2,
		indexOffset: indexOffset,
		indexSize:   indexEnd - indexOffset,
	})

	raw := b.bytes()
	// trailerSize(2) has no GUID/encrypted flag; version word sits right after magic.
	versionWordStart := len(raw) - int(trailerSize(2)) + 4
	raw[versionWordStart] = 9 // corrupt the version word's low byte; the caller still passes 2

	src := newByteSource(bytes.NewReader(raw), int64(len(raw)))
	_, err := decodeTrailer(src, 2, int64(len(raw))-trailerSize(2))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err=%v, want ErrUnsupportedVersion", err)
	}
}
