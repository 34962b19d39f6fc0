// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

// decodeRecord reads a Record starting at the byteSource's current cursor
// position P, applying the version-conditional field layout in §4.F, and
// returns the decoded Record plus the position immediately after it (the
// payload's DataOffset).
func decodeRecord(src *byteSource, version int32) (Record, int64, error) {
	p := src.Pos()
	dec := newPrimitiveDecoder(src, defaultMaxStringLen)

	var r Record
	var err error

	if r.Offset, err = dec.i64(); err != nil {
		return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
	}
	if r.CompressedSize, err = dec.i64(); err != nil {
		return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
	}
	if r.UncompressedSize, err = dec.i64(); err != nil {
		return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
	}
	if r.CompressionMethodIndex, err = dec.u32(); err != nil {
		return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
	}

	if version <= timestampVersionThreshold {
		if r.Timestamp, err = dec.u64(); err != nil {
			return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
		}

		r.HasTimestamp = true
	}

	if r.DataHash, err = dec.hash(); err != nil {
		return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
	}

	if version >= blockTableVersionThreshold {
		if r.CompressionMethodIndex != CompressionMethodNone {
			count, err := dec.u32()
			if err != nil {
				return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
			}

			blocks := make([]CompressionBlock, count)
			for i := range blocks {
				startOff, err := dec.i64()
				if err != nil {
					return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
				}

				endOff, err := dec.i64()
				if err != nil {
					return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
				}

				blocks[i] = CompressionBlock{StartOffset: startOff, EndOffset: endOff}
			}

			adjustCompressionBlockOffsets(blocks, version, p)
			r.CompressionBlocks = blocks
		}

		encryptedFlag, err := dec.u8()
		if err != nil {
			return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
		}
		r.Encrypted = encryptedFlag != 0

		if r.CompressionBlockUncompressedSize, err = dec.u32(); err != nil {
			return r, 0, newDecodeError("", "record", src.Pos(), KindIO, err)
		}
	}

	dataOffset := src.Pos()
	if err := validateRecordBounds(r, src.Len(), dataOffset); err != nil {
		return r, 0, err
	}

	return r, dataOffset, nil
}

// adjustCompressionBlockOffsets applies the relative/absolute distinction
// from §3/§4.F: for v≥7, block offsets are relative to the position at
// which the containing Record began (recordStart); for v≤4 they are left
// as-is (already absolute). v5/v6 are not specified by the source format
// and are treated like v≤4 (absolute), matching shipped behavior.
func adjustCompressionBlockOffsets(blocks []CompressionBlock, version int32, recordStart int64) {
	if version < relativeBlockVersionThreshold {
		return
	}

	for i := range blocks {
		blocks[i].StartOffset += recordStart
		blocks[i].EndOffset += recordStart
	}
}

// validateRecordBounds enforces invariants 1-4 of §3: offsets within
// archive bounds, compressedSize within remaining archive, block byte-sum
// equal to compressedSize, and zero blocks / compressedSize==uncompressedSize
// when uncompressed.
func validateRecordBounds(r Record, archiveLength, dataOffset int64) error {
	if r.Offset < 0 || r.Offset > archiveLength {
		return newDecodeError("", "record", dataOffset, KindOffsetOutOfRange, nil)
	}
	if r.CompressedSize < 0 || r.Offset+r.CompressedSize > archiveLength {
		return newDecodeError("", "record", dataOffset, KindOffsetOutOfRange, nil)
	}

	if r.CompressionMethodIndex == CompressionMethodNone {
		if len(r.CompressionBlocks) != 0 {
			return newDecodeError("", "record", dataOffset, KindBlockMismatch, nil)
		}
		if r.CompressedSize != r.UncompressedSize {
			return newDecodeError("", "record", dataOffset, KindBlockMismatch, nil)
		}

		return nil
	}

	if len(r.CompressionBlocks) == 0 {
		return nil
	}

	var consumed int64
	prevEnd := int64(-1)
	for _, blk := range r.CompressionBlocks {
		if blk.EndOffset < blk.StartOffset {
			return newDecodeError("", "record", dataOffset, KindBlockMismatch, nil)
		}
		if prevEnd >= 0 && blk.StartOffset < prevEnd {
			return newDecodeError("", "record", dataOffset, KindBlockMismatch, nil)
		}

		consumed += blk.EndOffset - blk.StartOffset
		prevEnd = blk.EndOffset
	}

	if consumed != r.CompressedSize {
		return newDecodeError("", "record", dataOffset, KindBlockMismatch, nil)
	}

	return nil
}
