// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"bytes"
	"testing"
)

func TestDecodeIndexLegacyResolvesEmbeddedRecord(t *testing.T) {
	t.Parallel()

	b := newArchiveBuilder()

	recordStart := b.pos()
	payload := []byte("legacy payload bytes")
	b.appendRecord(1, recordOptions{
		offset:           recordStart,
		compressedSize:   int64(len(payload)),
		uncompressedSize: int64(len(payload)),
		methodIndex:      CompressionMethodNone,
		timestamp:        7,
	})
	payloadOffset := b.pos()
	b.raw(payload)

	indexOffset := b.pos()
	b.nulString("mount/")
	b.u32(1) // entry count
	b.nulStringU32("data/config.cfg")
	b.appendRecord(1, recordOptions{
		offset:           recordStart,
		compressedSize:   int64(len(payload)),
		uncompressedSize: int64(len(payload)),
		methodIndex:      CompressionMethodNone,
		timestamp:        7,
	})
	indexEnd := b.pos()

	b.appendTrailer(trailerOptions{
		version:     1,
		indexOffset: indexOffset,
		indexSize:   indexEnd - indexOffset,
	})

	src := newByteSource(bytes.NewReader(b.bytes()), b.pos())
	trailer := &Trailer{Version: 1, IndexOffset: indexOffset, IndexSize: indexEnd - indexOffset}

	idx, err := decodeIndex(src, trailer)
	if err != nil {
		t.Fatalf("decodeIndex: %v", err)
	}

	if idx.MountPoint != "mount/" {
		t.Fatalf("MountPoint=%q, want %q", idx.MountPoint, "mount/")
	}
	if len(idx.Entries) != 1 {
		t.Fatalf("len(Entries)=%d, want 1", len(idx.Entries))
	}

	entry := idx.Entries[0]
	if entry.Path != "mount/data/config.cfg" {
		t.Fatalf("Path=%q, want %q", entry.Path, "mount/data/config.cfg")
	}
	if entry.Data.UncompressedSize != int64(len(payload)) {
		t.Fatalf("UncompressedSize=%d, want %d", entry.Data.UncompressedSize, len(payload))
	}
	if entry.Data.DataOffset != payloadOffset {
		t.Fatalf("DataOffset=%d, want %d (start of payload)", entry.Data.DataOffset, payloadOffset)
	}
}

func TestDecodeIndexModernFullDirectory(t *testing.T) {
	t.Parallel()

	// Archive layout: [record+payload][full-directory-index section][index header][trailer]
	archiveBuf := newArchiveBuilder()
	recordStart := archiveBuf.pos()
	payload := []byte("modern entry payload")
	archiveBuf.appendRecord(10, recordOptions{
		offset:           recordStart,
		compressedSize:   int64(len(payload)),
		uncompressedSize: int64(len(payload)),
		methodIndex:      CompressionMethodNone,
	})
	archiveBuf.raw(payload)

	blobBuf := newArchiveBuilder()
	entryOffset := blobBuf.pos()
	word := buildEncodedWord(0, 0, false, CompressionMethodNone, true, true, true)
	blobBuf.u32(word)
	blobBuf.u32(uint32(recordStart)) //nolint:gosec // test fixture
	blobBuf.u32(uint32(len(payload)))
	blob := blobBuf.bytes()

	fullDirOffset := archiveBuf.pos()
	archiveBuf.u32(1) // dirCount
	archiveBuf.nulString("cfg")
	archiveBuf.u32(1) // fileCount
	archiveBuf.nulString("settings.ini")
	archiveBuf.u32(uint32(entryOffset)) //nolint:gosec // test fixture

	indexOffset := archiveBuf.pos()
	archiveBuf.nulString("root/")
	archiveBuf.i32(1)  // entry count, informational
	archiveBuf.u64(99) // path hash seed
	archiveBuf.u32(0)  // hasPathHashIndex = false
	archiveBuf.u32(1)  // hasFullDirIndex = true
	archiveBuf.i64(fullDirOffset)
	archiveBuf.i64(int64(len(blob)))
	archiveBuf.zeroHash()
	archiveBuf.i32(int32(len(blob))) //nolint:gosec // test fixture
	archiveBuf.raw(blob)
	archiveBuf.u32(1) // trailing record count, informational
	indexEnd := archiveBuf.pos()

	archiveBuf.appendTrailer(trailerOptions{
		version:     10,
		indexOffset: indexOffset,
		indexSize:   indexEnd - indexOffset,
	})

	src := newByteSource(bytes.NewReader(archiveBuf.bytes()), archiveBuf.pos())
	trailer := &Trailer{Version: 10, IndexOffset: indexOffset, IndexSize: indexEnd - indexOffset}

	idx, err := decodeIndex(src, trailer)
	if err != nil {
		t.Fatalf("decodeIndex: %v", err)
	}

	if idx.PathHashSeed != 99 {
		t.Fatalf("PathHashSeed=%d, want 99", idx.PathHashSeed)
	}
	if idx.HasPathHashIndex {
		t.Fatal("HasPathHashIndex=true, want false")
	}
	if !idx.HasFullDirectoryIndex {
		t.Fatal("HasFullDirectoryIndex=false, want true")
	}
	if len(idx.Directories) != 1 || len(idx.Directories[0].Files) != 1 {
		t.Fatalf("Directories=%+v, want 1 dir with 1 file", idx.Directories)
	}
	if len(idx.Entries) != 1 {
		t.Fatalf("Entries=%+v, want 1 flattened entry", idx.Entries)
	}

	want := "root/cfg/settings.ini"
	if idx.Entries[0].Path != want {
		t.Fatalf("Path=%q, want %q", idx.Entries[0].Path, want)
	}
}
