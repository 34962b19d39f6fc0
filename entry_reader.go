// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"fmt"
	"io"
)

// nopCloser wraps a reader and provides a no-op close, the way the teacher's
// uncompressed-entry path avoids a pipe/goroutine when no decoding is needed.
type nopCloser struct {
	io.Reader
}

func (nopCloser) Close() error { return nil }

// newEntryReader opens a streaming reader over one FileEntry's decompressed
// payload. Uncompressed entries are served directly from the archive's
// Byte Source; compressed entries are decoded block-wise into a pipe by a
// background goroutine, mirroring the teacher's streamDecompressEntry.
func newEntryReader(archive *byteSource, entry *FileEntry, registry map[string]Decompressor) (io.ReadCloser, error) {
	rec := entry.Data.Record

	if !rec.IsCompressed() {
		sr := archive.sectionReader(entry.Data.DataOffset, rec.UncompressedSize)
		return nopCloser{Reader: sr}, nil
	}

	if len(rec.CompressionBlocks) == 0 {
		return nil, newDecodeError("", entry.Path, entry.Data.DataOffset, KindBlockMismatch, nil)
	}

	decompressor := resolveDecompressor(registry, entry.MethodName)

	pr, pw := io.Pipe()
	go streamDecompressBlocks(pw, archive, entry.Path, rec, decompressor)

	return pr, nil
}

// streamDecompressBlocks decodes every compression block of rec in order,
// writing each block's inflated bytes to dst. Block offsets are already
// absolute archive positions (adjustCompressionBlockOffsets having run at
// decode time). Each block's declared maximum output is
// CompressionBlockUncompressedSize, except the final block, which is capped
// by whatever remains of UncompressedSize.
func streamDecompressBlocks(dst *io.PipeWriter, archive *byteSource, path string, rec Record, decompressor Decompressor) {
	remaining := rec.UncompressedSize

	for i, blk := range rec.CompressionBlocks {
		if remaining <= 0 {
			break
		}

		blockLen := blk.EndOffset - blk.StartOffset
		if blockLen < 0 {
			_ = dst.CloseWithError(newDecodeError("", path, blk.StartOffset, KindBlockMismatch, nil))
			return
		}

		maxOut := int64(rec.CompressionBlockUncompressedSize)
		if maxOut <= 0 || maxOut > remaining {
			maxOut = remaining
		}

		src := archive.sectionReader(blk.StartOffset, blockLen)
		if err := decompressor.Decompress(dst, src, int(maxOut)); err != nil {
			_ = dst.CloseWithError(fmt.Errorf("decompress %s block %d: %w", path, i, err))
			return
		}

		remaining -= maxOut
	}

	_ = dst.Close()
}
