// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"bytes"
	"fmt"
)

// decodeIndex seeks to trailer.IndexOffset and dispatches to the legacy or
// modern index layout based on trailer.Version, per §4.G.
func decodeIndex(src *byteSource, trailer *Trailer) (*Index, error) {
	if trailer.IndexOffset < 0 || trailer.IndexOffset > src.Len() {
		return nil, newDecodeError("", "index", trailer.IndexOffset, KindOffsetOutOfRange, nil)
	}

	src.Seek(trailer.IndexOffset)
	dec := newPrimitiveDecoder(src, defaultMaxStringLen)

	mountPoint, err := dec.nulString()
	if err != nil {
		return nil, newDecodeError("", "index", src.Pos(), KindMalformedString, err)
	}

	idx := &Index{MountPoint: mountPoint, Version: trailer.Version}

	if trailer.Version < legacyIndexVersionThreshold {
		if err := decodeLegacyIndex(src, trailer, idx); err != nil {
			return nil, err
		}

		return idx, nil
	}

	if err := decodeModernIndexHeader(src, trailer, idx); err != nil {
		return nil, err
	}

	return idx, nil
}

// decodeLegacyIndex reads record count (u32) then that many IndexRecords,
// each {filename length+NUL string (u32 length), embedded Record}. The
// IndexRecord's resolved DataRecord is obtained by seeking to record.Offset
// and decoding a Record there; the cursor then returns to the position the
// main index walk was at, per §4.G's "seeks are scoped" rule.
func decodeLegacyIndex(src *byteSource, trailer *Trailer, idx *Index) error {
	dec := newPrimitiveDecoder(src, defaultMaxStringLen)

	count, err := dec.u32()
	if err != nil {
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}

	entries := make([]FileEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		filename, err := dec.nulStringU32()
		if err != nil {
			return newDecodeError("", "index", src.Pos(), KindMalformedString, err)
		}

		embedded, _, err := decodeRecord(src, trailer.Version)
		if err != nil {
			return err
		}

		resumeAt := src.Pos()

		src.Seek(embedded.Offset)
		resolved, dataOffset, resolveErr := decodeRecord(src, trailer.Version)
		src.Seek(resumeAt)

		if resolveErr != nil {
			return resolveErr
		}

		entries = append(entries, FileEntry{
			Path:       joinMountPoint(idx.MountPoint, filename),
			Data:       DataRecord{Record: resolved, DataOffset: dataOffset},
			MethodName: trailer.MethodName(resolved.CompressionMethodIndex),
		})
	}

	idx.Entries = entries
	return nil
}

// decodeModernIndexHeader reads the v≥10 index header: entry count,
// path-hash seed, optional path-hash-index and full-directory-index
// locators, the encoded-entry-info blob, and a trailing record count, per
// §4.G. It then decodes the full-directory tree (§4.I) when present.
func decodeModernIndexHeader(src *byteSource, trailer *Trailer, idx *Index) error {
	dec := newPrimitiveDecoder(src, defaultMaxStringLen)

	if _, err := dec.i32(); err != nil { // entry count, informational only
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}

	seed, err := dec.u64()
	if err != nil {
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}
	idx.PathHashSeed = seed

	hasPathHashIndex, err := dec.u32()
	if err != nil {
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}
	if hasPathHashIndex != 0 {
		idx.HasPathHashIndex = true
		if idx.PathHashIndexOffset, err = dec.i64(); err != nil {
			return newDecodeError("", "index", src.Pos(), KindIO, err)
		}
		if idx.PathHashIndexSize, err = dec.i64(); err != nil {
			return newDecodeError("", "index", src.Pos(), KindIO, err)
		}
		if idx.PathHashIndexHash, err = dec.hash(); err != nil {
			return newDecodeError("", "index", src.Pos(), KindIO, err)
		}
		if idx.PathHashIndexOffset < 0 || idx.PathHashIndexOffset > src.Len() {
			return newDecodeError("", "index", src.Pos(), KindOffsetOutOfRange, nil)
		}
	}

	hasFullDirIndex, err := dec.u32()
	if err != nil {
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}
	if hasFullDirIndex != 0 {
		idx.HasFullDirectoryIndex = true
		if idx.FullDirectoryIndexOffset, err = dec.i64(); err != nil {
			return newDecodeError("", "index", src.Pos(), KindIO, err)
		}
		if idx.FullDirectoryIndexSize, err = dec.i64(); err != nil {
			return newDecodeError("", "index", src.Pos(), KindIO, err)
		}
		if idx.FullDirectoryIndexHash, err = dec.hash(); err != nil {
			return newDecodeError("", "index", src.Pos(), KindIO, err)
		}
		if idx.FullDirectoryIndexOffset < 0 || idx.FullDirectoryIndexOffset > src.Len() {
			return newDecodeError("", "index", src.Pos(), KindOffsetOutOfRange, nil)
		}
	}

	blobLen, err := dec.i32()
	if err != nil {
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}
	if blobLen < 0 || int64(blobLen) > src.Len()-src.Pos() {
		return newDecodeError("", "index", src.Pos(), KindMalformedLength, nil)
	}

	blobBytes := make([]byte, blobLen)
	if err := src.Read(blobBytes); err != nil {
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}

	if _, err := dec.u32(); err != nil { // trailing record count, informational only
		return newDecodeError("", "index", src.Pos(), KindIO, err)
	}

	if !idx.HasFullDirectoryIndex {
		return nil
	}

	blob := newByteSource(bytes.NewReader(blobBytes), int64(len(blobBytes)))
	dirs, entries, err := decodeDirectoryIndex(src, blob, trailer, idx)
	if err != nil {
		return err
	}

	idx.Directories = dirs
	idx.Entries = entries
	return nil
}

// joinMountPoint prefixes a legacy filename with the index mount point,
// using NormalizePath so both sides agree on separators.
func joinMountPoint(mountPoint, name string) string {
	mp := NormalizePath(mountPoint)
	name = NormalizePath(name)
	if mp == "" {
		return name
	}
	if name == "" {
		return mp
	}

	return fmt.Sprintf("%s/%s", mp, name)
}
