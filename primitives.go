// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"
)

// primitiveDecoder reads little-endian primitives, GUIDs, hashes and
// NUL-terminated strings from a byteSource at the cursor, the way the
// teacher's reader.go free functions (readNullTerminated, etc.) read
// directly from an io.ReaderAt. It is reused unmodified for both the
// archive's own byteSource and an in-memory byteSource over the
// encoded-entry-info blob (see encoded_entry.go), per §9's "separate
// ByteSource over an in-memory buffer" design note.
type primitiveDecoder struct {
	src          *byteSource
	maxStringLen int
}

func newPrimitiveDecoder(src *byteSource, maxStringLen int) *primitiveDecoder {
	if maxStringLen <= 0 {
		maxStringLen = defaultMaxStringLen
	}

	return &primitiveDecoder{src: src, maxStringLen: maxStringLen}
}

func (d *primitiveDecoder) u8() (uint8, error) {
	var buf [1]byte
	if err := d.src.Read(buf[:]); err != nil {
		return 0, err
	}

	return buf[0], nil
}

func (d *primitiveDecoder) u16() (uint16, error) {
	var buf [2]byte
	if err := d.src.Read(buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint16(buf[:]), nil
}

func (d *primitiveDecoder) u32() (uint32, error) {
	var buf [4]byte
	if err := d.src.Read(buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (d *primitiveDecoder) i32() (int32, error) {
	v, err := d.u32()
	return int32(v), err //nolint:gosec // bit-for-bit reinterpretation of the wire value
}

func (d *primitiveDecoder) u64() (uint64, error) {
	var buf [8]byte
	if err := d.src.Read(buf[:]); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(buf[:]), nil
}

func (d *primitiveDecoder) i64() (int64, error) {
	v, err := d.u64()
	return int64(v), err //nolint:gosec // bit-for-bit reinterpretation of the wire value
}

// guid reads a fixed 16-byte GUID.
func (d *primitiveDecoder) guid() (uuid.UUID, error) {
	var buf [guidSize]byte
	if err := d.src.Read(buf[:]); err != nil {
		return uuid.Nil, err
	}

	id, err := uuid.FromBytes(buf[:])
	if err != nil {
		return uuid.Nil, fmt.Errorf("decode guid: %w: %w", ErrMalformedLength, err)
	}

	return id, nil
}

// hash reads a fixed 20-byte hash.
func (d *primitiveDecoder) hash() ([shaSize]byte, error) {
	var buf [shaSize]byte
	if err := d.src.Read(buf[:]); err != nil {
		return buf, err
	}

	return buf, nil
}

// hashHex renders a hash as uppercase hex without separators.
func hashHex(h [shaSize]byte) string {
	const hexDigits = "0123456789ABCDEF"

	out := make([]byte, shaSize*2)
	for i, b := range h {
		out[i*2] = hexDigits[b>>4]
		out[i*2+1] = hexDigits[b&0x0F]
	}

	return string(out)
}

// nulString reads an i32 declared length followed by that many bytes, the
// last of which must be a NUL terminator. A declared length ≤ 0 or greater
// than maxStringLen fails with KindMalformedString.
func (d *primitiveDecoder) nulString() (string, error) {
	n, err := d.i32()
	if err != nil {
		return "", err
	}

	return d.nulStringOfLength(n)
}

// nulStringU32 reads a u32 declared length followed by that many bytes, for
// layouts that use an unsigned length prefix (e.g. legacy index filenames).
func (d *primitiveDecoder) nulStringU32() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}

	if n > uint32(d.maxStringLen) {
		return "", fmt.Errorf("string length %d exceeds cap %d: %w", n, d.maxStringLen, ErrMalformedString)
	}

	return d.nulStringOfLength(int32(n)) //nolint:gosec // bounded by cap check above
}

func (d *primitiveDecoder) nulStringOfLength(n int32) (string, error) {
	if n <= 0 || int(n) > d.maxStringLen {
		return "", fmt.Errorf("string length %d: %w", n, ErrMalformedString)
	}

	buf := make([]byte, n)
	if err := d.src.Read(buf); err != nil {
		return "", err
	}

	if buf[len(buf)-1] != 0 {
		return "", fmt.Errorf("string missing NUL terminator: %w", ErrMalformedString)
	}

	if idx := bytes.IndexByte(buf, 0); idx != len(buf)-1 {
		return "", fmt.Errorf("embedded NUL before declared terminator: %w", ErrMalformedString)
	}

	return string(buf[:len(buf)-1]), nil
}

// fixedASCII reads a fixed-width slot and returns its NUL-terminated ASCII
// content, or "" if the first byte is NUL (an empty slot).
func fixedASCII(slot []byte) (string, error) {
	if len(slot) == 0 || slot[0] == 0 {
		return "", nil
	}

	idx := bytes.IndexByte(slot, 0)
	if idx < 0 {
		return "", fmt.Errorf("fixed slot missing NUL terminator: %w", ErrMalformedString)
	}

	return string(slot[:idx]), nil
}
