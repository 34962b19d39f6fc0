// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"encoding/binary"
)

// locateTrailer finds the magic by a bounded backward scan and returns the
// absolute offset at which it was found plus the version byte that follows
// it. The scan starts at archiveLength-maxTrailerSize because the trailer's
// own size depends on the version encoded inside it — locating the magic is
// the only way to disambiguate (§4.D). An archive shorter than
// maxTrailerSize fails with KindTooSmall.
func locateTrailer(src *byteSource) (offset int64, version int32, err error) {
	archiveLength := src.Len()
	if archiveLength < maxTrailerSize {
		return 0, 0, newDecodeError("", "trailer", 0, KindTooSmall, nil)
	}

	start := archiveLength - maxTrailerSize
	end := archiveLength - 4

	window, err := src.Peek(start, int(end-start)+4)
	if err != nil {
		return 0, 0, newDecodeError("", "trailer", start, KindIO, err)
	}

	for pos := start; pos <= end; pos++ {
		idx := pos - start
		if idx+4 > int64(len(window)) {
			break
		}

		word := binary.LittleEndian.Uint32(window[idx : idx+4])
		if word != magicValue {
			continue
		}

		versionOffset := pos + 4
		versionByte, err := src.Peek(versionOffset, 1)
		if err != nil || len(versionByte) != 1 {
			return 0, 0, newDecodeError("", "trailer", versionOffset, KindIO, err)
		}

		v := int32(versionByte[0])
		if v == 0 || v > maxVersion {
			return 0, 0, newDecodeError("", "trailer", pos, KindUnsupportedVersion, nil)
		}

		return pos, v, nil
	}

	return 0, 0, newDecodeError("", "trailer", start, KindMagicNotFound, nil)
}

// trailerSize computes the expected trailer byte length for a version, per
// the layout table in §4.E.
func trailerSize(version int32) int64 {
	var size int64

	if version >= guidVersionThreshold {
		size += guidSize
	}
	if version >= encryptedIndexVersionThreshold {
		size++
	}

	size += 4 // magic
	size += 4 // version
	size += 8 // index offset
	size += 8 // index size
	size += shaSize

	if version == frozenIndexVersion {
		size++
	}
	if version >= methodTableVersionThreshold {
		size += methodSlotCount * methodSlotSize
	}

	return size
}

// decodeTrailer reads the version-conditional trailer fields in their
// physical wire order, seeking first to archiveLength-trailerSize(version).
func decodeTrailer(src *byteSource, version int32, magicOffset int64) (*Trailer, error) {
	size := trailerSize(version)
	start := src.Len() - size
	if start < 0 {
		return nil, newDecodeError("", "trailer", 0, KindTooSmall, nil)
	}

	src.Seek(start)
	dec := newPrimitiveDecoder(src, defaultMaxStringLen)

	t := &Trailer{Version: version, MagicOffset: magicOffset}

	if version >= guidVersionThreshold {
		id, err := dec.guid()
		if err != nil {
			return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
		}

		t.EncryptionGUID = id
		t.HasEncryptionGUID = true
	}

	if version >= encryptedIndexVersionThreshold {
		flag, err := dec.u8()
		if err != nil {
			return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
		}

		t.EncryptedIndex = flag != 0
	}

	var magicBuf [4]byte
	if err := src.Read(magicBuf[:]); err != nil {
		return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
	}
	if binary.LittleEndian.Uint32(magicBuf[:]) != magicValue {
		return nil, newDecodeError("", "trailer", src.Pos()-4, KindMagicNotFound, nil)
	}

	readVersion, err := dec.i32()
	if err != nil {
		return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
	}
	if readVersion != version {
		return nil, newDecodeError("", "trailer", src.Pos(), KindUnsupportedVersion, nil)
	}

	if t.IndexOffset, err = dec.i64(); err != nil {
		return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
	}
	if t.IndexSize, err = dec.i64(); err != nil {
		return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
	}
	if t.IndexHash, err = dec.hash(); err != nil {
		return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
	}

	if version == frozenIndexVersion {
		flag, err := dec.u8()
		if err != nil {
			return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
		}

		t.FrozenIndex = flag != 0
		t.HasFrozenIndex = true
	}

	if version >= methodTableVersionThreshold {
		methods, err := decodeCompressionMethodTable(src)
		if err != nil {
			return nil, err
		}

		t.CompressionMethods = methods
	}

	if t.IndexOffset < 0 || t.IndexOffset > src.Len() {
		return nil, newDecodeError("", "trailer", start, KindOffsetOutOfRange, nil)
	}
	if t.IndexSize < 0 || t.IndexOffset+t.IndexSize > src.Len() {
		return nil, newDecodeError("", "trailer", start, KindOffsetOutOfRange, nil)
	}

	return t, nil
}

// decodeCompressionMethodTable reads methodSlotCount fixed-width NUL-bounded
// ASCII slots. A slot whose first byte is NUL records an empty entry; it is
// still kept as "" at its table position so a record's 1-based method index
// maps correctly (§4.E).
func decodeCompressionMethodTable(src *byteSource) ([]string, error) {
	methods := make([]string, 0, methodSlotCount)

	for i := 0; i < methodSlotCount; i++ {
		slot := make([]byte, methodSlotSize)
		if err := src.Read(slot); err != nil {
			return nil, newDecodeError("", "trailer", src.Pos(), KindIO, err)
		}

		name, err := fixedASCII(slot)
		if err != nil {
			return nil, newDecodeError("", "trailer", src.Pos()-int64(methodSlotSize), KindMalformedString, err)
		}

		methods = append(methods, name)
	}

	return methods, nil
}

// compressionMethodIndexFor resolves a table name to its 1-based method
// index, or 0 ("no compression") if name is empty or not found.
func compressionMethodIndexFor(methods []string, name string) uint32 {
	if name == "" {
		return CompressionMethodNone
	}

	for i, m := range methods {
		if m == name {
			return uint32(i) + 1 //nolint:gosec // bounded by methodSlotCount
		}
	}

	return CompressionMethodNone
}
