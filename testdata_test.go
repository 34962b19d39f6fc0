// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"bytes"
	"crypto/sha1" //nolint:gosec // test fixture hashing, not a security boundary
	"encoding/binary"

	"github.com/google/uuid"
)

// archiveBuilder assembles a synthetic PAK byte stream for tests, the way
// the teacher's reader_test.go hand-assembles PBO byte streams with
// encoding/binary instead of round-tripping through a real writer.
type archiveBuilder struct {
	buf bytes.Buffer
}

func newArchiveBuilder() *archiveBuilder { return &archiveBuilder{} }

func (b *archiveBuilder) pos() int64 { return int64(b.buf.Len()) }

func (b *archiveBuilder) bytes() []byte { return b.buf.Bytes() }

func (b *archiveBuilder) raw(p []byte) *archiveBuilder {
	b.buf.Write(p)
	return b
}

func (b *archiveBuilder) u8(v uint8) *archiveBuilder {
	b.buf.WriteByte(v)
	return b
}

func (b *archiveBuilder) u32(v uint32) *archiveBuilder {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *archiveBuilder) i32(v int32) *archiveBuilder { return b.u32(uint32(v)) } //nolint:gosec // test fixture

func (b *archiveBuilder) u64(v uint64) *archiveBuilder {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.buf.Write(tmp[:])
	return b
}

func (b *archiveBuilder) i64(v int64) *archiveBuilder { return b.u64(uint64(v)) } //nolint:gosec // test fixture

// nulString writes an i32 length prefix (including the terminator) followed
// by s and a trailing NUL, matching primitiveDecoder.nulString.
func (b *archiveBuilder) nulString(s string) *archiveBuilder {
	b.i32(int32(len(s)) + 1) //nolint:gosec // test fixture
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
	return b
}

// nulStringU32 writes a u32 length prefix, for legacy index filenames.
func (b *archiveBuilder) nulStringU32(s string) *archiveBuilder {
	b.u32(uint32(len(s)) + 1) //nolint:gosec // test fixture
	b.buf.WriteString(s)
	b.buf.WriteByte(0)
	return b
}

func (b *archiveBuilder) hash(data []byte) *archiveBuilder {
	sum := sha1.Sum(data) //nolint:gosec // test fixture hashing, not a security boundary
	b.buf.Write(sum[:])
	return b
}

func (b *archiveBuilder) zeroHash() *archiveBuilder {
	var zero [shaSize]byte
	b.buf.Write(zero[:])
	return b
}

func (b *archiveBuilder) guid(id uuid.UUID) *archiveBuilder {
	raw, _ := id.MarshalBinary()
	b.buf.Write(raw)
	return b
}

// methodSlot writes one fixed-width 32-byte NUL-bounded method name slot.
func (b *archiveBuilder) methodSlot(name string) *archiveBuilder {
	slot := make([]byte, methodSlotSize)
	copy(slot, name)
	b.buf.Write(slot)
	return b
}

// trailerOptions configures a synthetic trailer for buildTrailer.
type trailerOptions struct {
	version        int32
	indexOffset    int64
	indexSize      int64
	indexHash      [shaSize]byte
	methods        []string
	encryptedIndex bool
	frozenIndex    bool
	guid           uuid.UUID
}

// appendTrailer writes a version-conditional trailer matching decodeTrailer's
// field order and returns the builder for chaining.
func (b *archiveBuilder) appendTrailer(opts trailerOptions) *archiveBuilder {
	if opts.version >= guidVersionThreshold {
		b.guid(opts.guid)
	}
	if opts.version >= encryptedIndexVersionThreshold {
		flag := uint8(0)
		if opts.encryptedIndex {
			flag = 1
		}
		b.u8(flag)
	}

	b.u32(magicValue)
	b.i32(opts.version)
	b.i64(opts.indexOffset)
	b.i64(opts.indexSize)
	b.raw(opts.indexHash[:])

	if opts.version == frozenIndexVersion {
		flag := uint8(0)
		if opts.frozenIndex {
			flag = 1
		}
		b.u8(flag)
	}

	if opts.version >= methodTableVersionThreshold {
		methods := opts.methods
		for len(methods) < methodSlotCount {
			methods = append(methods, "")
		}
		for i := 0; i < methodSlotCount; i++ {
			b.methodSlot(methods[i])
		}
	}

	return b
}

// recordOptions configures a synthetic Record for appendRecord.
type recordOptions struct {
	offset                 int64
	compressedSize         int64
	uncompressedSize       int64
	methodIndex            uint32
	timestamp              uint64
	blocks                 []CompressionBlock // raw (pre-adjustment) wire-form offsets
	encrypted              bool
	blockUncompressedSize  uint32
}

// appendRecord writes a version-conditional Record matching decodeRecord's
// field order.
func (b *archiveBuilder) appendRecord(version int32, opts recordOptions) *archiveBuilder {
	b.i64(opts.offset)
	b.i64(opts.compressedSize)
	b.i64(opts.uncompressedSize)
	b.u32(opts.methodIndex)

	if version <= timestampVersionThreshold {
		b.u64(opts.timestamp)
	}

	b.zeroHash()

	if version >= blockTableVersionThreshold {
		if opts.methodIndex != CompressionMethodNone {
			b.u32(uint32(len(opts.blocks))) //nolint:gosec // test fixture
			for _, blk := range opts.blocks {
				b.i64(blk.StartOffset)
				b.i64(blk.EndOffset)
			}
		}

		flag := uint8(0)
		if opts.encrypted {
			flag = 1
		}
		b.u8(flag)
		b.u32(opts.blockUncompressedSize)
	}

	return b
}
