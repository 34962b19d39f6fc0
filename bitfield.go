// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

// bitField names one (offset, length) slice of a packed 32-bit word.
// Declarative layout per §9: "decoded declaratively... rather than via
// language-level bitfields; this keeps layout explicit and portable."
type bitField struct {
	name   string
	offset uint
	length uint
}

// extractBits returns (value >> offset) & ((1<<length) - 1).
func extractBits(word uint32, f bitField) uint32 {
	mask := uint32((uint64(1) << f.length) - 1)
	return (word >> f.offset) & mask
}

// extractBool reports whether the extracted field is non-zero.
func extractBool(word uint32, f bitField) bool {
	return extractBits(word, f) != 0
}

// encodedRecordLayout is the declarative bit layout of the packed 32-bit
// entry descriptor found in the encoded-entry-info blob (§3), LSB-first.
var encodedRecordLayout = struct {
	compressionBlockSize  bitField
	compressionBlockCount bitField
	encrypted             bitField
	compressionMethod     bitField
	size32Safe            bitField
	uncompressedSize32Safe bitField
	offset32Safe          bitField
}{
	compressionBlockSize:   bitField{"compression_block_size", 0, 6},
	compressionBlockCount:  bitField{"compression_block_count", 6, 16},
	encrypted:              bitField{"encrypted", 22, 1},
	compressionMethod:      bitField{"compression_method_index", 23, 6},
	size32Safe:             bitField{"compressed_size_32_safe", 29, 1},
	uncompressedSize32Safe: bitField{"uncompressed_size_32_safe", 30, 1},
	offset32Safe:           bitField{"offset_32_safe", 31, 1},
}

// unpackEncodedRecordWord decodes the fixed fields of the 32-bit descriptor,
// leaving the conditional follow-on words (offset/uncompressed/compressed
// size) to the caller per the branch rules in §3/§4.H.
func unpackEncodedRecordWord(word uint32) EncodedRecord {
	return EncodedRecord{
		CompressionBlockSize:     extractBits(word, encodedRecordLayout.compressionBlockSize),
		CompressionBlockCount:    extractBits(word, encodedRecordLayout.compressionBlockCount),
		Encrypted:                extractBool(word, encodedRecordLayout.encrypted),
		CompressionMethodIndex:   extractBits(word, encodedRecordLayout.compressionMethod),
		OffsetIs32Safe:           extractBool(word, encodedRecordLayout.offset32Safe),
		UncompressedSizeIs32Safe: extractBool(word, encodedRecordLayout.uncompressedSize32Safe),
		CompressedSizeIs32Safe:   extractBool(word, encodedRecordLayout.size32Safe),
	}
}
