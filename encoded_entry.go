// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

// decodeEncodedRecord consumes one packed entry from the encoded-entry-info
// blob at its current cursor: a fixed 32-bit word (§4.H/§3 bit layout) plus
// its conditional follow-on words (offset, uncompressed size, compressed
// size), each read as u32 or u64 depending on the corresponding "*Is32Safe"
// flag. blob is a byteSource over an in-memory buffer, reusing the same
// primitiveDecoder the archive's own cursor uses, per §9's "separate
// ByteSource" design note.
func decodeEncodedRecord(blob *byteSource) (EncodedRecord, error) {
	dec := newPrimitiveDecoder(blob, defaultMaxStringLen)

	word, err := dec.u32()
	if err != nil {
		return EncodedRecord{}, newDecodeError("", "encoded entry", blob.Pos(), KindIO, err)
	}

	rec := unpackEncodedRecordWord(word)

	if rec.OffsetIs32Safe {
		v, err := dec.u32()
		if err != nil {
			return rec, newDecodeError("", "encoded entry", blob.Pos(), KindIO, err)
		}
		rec.Offset = uint64(v)
	} else {
		v, err := dec.u64()
		if err != nil {
			return rec, newDecodeError("", "encoded entry", blob.Pos(), KindIO, err)
		}
		rec.Offset = v
	}

	if rec.UncompressedSizeIs32Safe {
		v, err := dec.u32()
		if err != nil {
			return rec, newDecodeError("", "encoded entry", blob.Pos(), KindIO, err)
		}
		rec.UncompressedSize = uint64(v)
	} else {
		v, err := dec.u64()
		if err != nil {
			return rec, newDecodeError("", "encoded entry", blob.Pos(), KindIO, err)
		}
		rec.UncompressedSize = v
	}

	if rec.CompressionMethodIndex != CompressionMethodNone {
		if rec.CompressedSizeIs32Safe {
			v, err := dec.u32()
			if err != nil {
				return rec, newDecodeError("", "encoded entry", blob.Pos(), KindIO, err)
			}
			rec.CompressedSize = uint64(v)
		} else {
			v, err := dec.u64()
			if err != nil {
				return rec, newDecodeError("", "encoded entry", blob.Pos(), KindIO, err)
			}
			rec.CompressedSize = v
		}
	} else {
		rec.CompressedSize = rec.UncompressedSize
	}

	return rec, nil
}

// resolveEncodedRecord seeks the archive to the EncodedRecord's offset and
// decodes a full Record there, returning the DataRecord exactly as the
// legacy path would for the same bytes (§4.H: "the archive-file DataRecord
// is then obtained by seeking the archive to the EncodedRecord's offset
// and decoding a full Record at that position").
func resolveEncodedRecord(archive *byteSource, version int32, enc EncodedRecord) (DataRecord, error) {
	offset := int64(enc.Offset) //nolint:gosec // bounded by validateRecordBounds after decode
	if offset < 0 || offset > archive.Len() {
		return DataRecord{}, newDecodeError("", "encoded entry", offset, KindOffsetOutOfRange, nil)
	}

	archive.Seek(offset)
	rec, dataOffset, err := decodeRecord(archive, version)
	if err != nil {
		return DataRecord{}, err
	}

	return DataRecord{Record: rec, DataOffset: dataOffset}, nil
}
