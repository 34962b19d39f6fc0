// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/woozymasta/pathrules"
)

// Internal binary layout and format limits.
const (
	// magicValue is the little-endian trailer magic, 0x5A6F12E1.
	magicValue uint32 = 0x5A6F12E1
	// maxTrailerSize is the length of the archive tail scanned for the magic and the
	// minimum accepted archive length; it exceeds every size trailerSize returns
	// (the largest is 222 bytes, for v9).
	maxTrailerSize = 226
	// shaSize is the SHA1 digest size used for index and record hashes.
	shaSize = 20
	// guidSize is the byte size of the optional v≥7 encryption GUID.
	guidSize = 16
	// methodSlotSize is the fixed width of one compression-method name slot.
	methodSlotSize = 32
	// methodSlotCount is the number of method-table slots read for v≥8.
	methodSlotCount = 5
	// defaultMaxStringLen caps declared length-prefixed string lengths read by the Primitive Decoder.
	defaultMaxStringLen = 4096
	// minVersion and maxVersion bound the supported trailer version range.
	minVersion = 1
	maxVersion = 11
	// legacyIndexVersionThreshold is the version at which the modern index layout begins.
	legacyIndexVersionThreshold = 10
	// extractChunkSize is a 1 MiB per-chunk ceiling; no code references it, and
	// extraction copies payload in extractCopyBufferSize (64 KiB) chunks.
	extractChunkSize = 1 << 20
	// relativeBlockVersionThreshold is the version at or above which block offsets are record-relative.
	relativeBlockVersionThreshold = 7
	// timestampVersionThreshold is the version at or below which records carry a timestamp field.
	timestampVersionThreshold = 1
	// blockTableVersionThreshold is the version at or above which records carry a compression block table.
	blockTableVersionThreshold = 3
	// encryptedIndexVersionThreshold is the version at or above which the trailer carries an encrypted-index flag.
	encryptedIndexVersionThreshold = 4
	// guidVersionThreshold is the version at or above which the trailer carries an encryption GUID.
	guidVersionThreshold = 7
	// methodTableVersionThreshold is the version at or above which the trailer carries a compression-method table.
	methodTableVersionThreshold = 8
	// frozenIndexVersion is the single version that carries a frozen-index flag.
	frozenIndexVersion = 9
)

// CompressionMethodNone is the reserved method table index meaning "stored, not compressed".
const CompressionMethodNone uint32 = 0

// Trailer is the version-dependent fixed-layout footer at the end of the archive.
type Trailer struct {
	// EncryptionGUID is present for v≥7; zero value otherwise.
	EncryptionGUID uuid.UUID
	// HasEncryptionGUID reports whether EncryptionGUID was present in this trailer.
	HasEncryptionGUID bool
	// EncryptedIndex is present for v≥4.
	EncryptedIndex bool
	// Version is the trailer version, in [1, 11].
	Version int32
	// IndexOffset is the absolute archive offset of the Index.
	IndexOffset int64
	// IndexSize is the declared byte length of the Index.
	IndexSize int64
	// IndexHash is the SHA1 digest captured from the trailer; not verified.
	IndexHash [shaSize]byte
	// FrozenIndex is present only for v==9.
	FrozenIndex bool
	// HasFrozenIndex reports whether FrozenIndex was present in this trailer.
	HasFrozenIndex bool
	// CompressionMethods is the ordered method name table, present for v≥8.
	// Index 0 ("no compression") is never stored here; a record's method
	// index N refers to CompressionMethods[N-1].
	CompressionMethods []string
	// MagicOffset is the absolute archive offset at which the magic was found.
	MagicOffset int64
}

// MethodName resolves a record's compression method index to its table name.
// It returns "" for CompressionMethodNone or an index with no table entry.
func (t *Trailer) MethodName(methodIndex uint32) string {
	if methodIndex == CompressionMethodNone {
		return ""
	}

	pos := int(methodIndex) - 1
	if pos < 0 || pos >= len(t.CompressionMethods) {
		return ""
	}

	return t.CompressionMethods[pos]
}

// CompressionBlock delimits one compressed chunk of a file's payload.
// On the wire, offsets are absolute to the archive for v≤4 and
// record-relative for v≥7; decodeRecord converts the latter, so blocks in
// a decoded Record always hold absolute archive offsets.
type CompressionBlock struct {
	StartOffset int64
	EndOffset   int64
}

// Record is the version-conditional per-file metadata block.
type Record struct {
	Offset                            int64
	CompressedSize                    int64
	UncompressedSize                  int64
	CompressionMethodIndex            uint32
	HasTimestamp                      bool
	Timestamp                         uint64
	DataHash                          [shaSize]byte
	CompressionBlocks                 []CompressionBlock
	Encrypted                         bool
	CompressionBlockUncompressedSize  uint32
}

// IsCompressed reports whether this record's payload requires decompression.
func (r *Record) IsCompressed() bool {
	return r.CompressionMethodIndex != CompressionMethodNone
}

// DataRecord pairs a decoded Record with the archive position immediately
// following it, i.e. the first byte of its payload. Payload is never
// eagerly read.
type DataRecord struct {
	Record
	DataOffset int64
}

// EncodedRecord is the expansion of a 32-bit packed entry descriptor plus
// its conditional follow-on words, as found in the encoded-entry-info blob.
type EncodedRecord struct {
	CompressionBlockSize     uint32
	CompressionBlockCount    uint32
	Encrypted                bool
	CompressionMethodIndex   uint32
	Offset                   uint64
	UncompressedSize         uint64
	CompressedSize           uint64
	OffsetIs32Safe           bool
	UncompressedSizeIs32Safe bool
	CompressedSizeIs32Safe   bool
}

// FileEntry is the flattened, caller-facing view of one archived file,
// built from either a legacy IndexRecord or a modern (File, EncodedRecord)
// pair. Path is mount-point-prefixed and, for modern archives,
// directory-qualified.
type FileEntry struct {
	Path       string
	Data       DataRecord
	MethodName string
}

// Directory is one entry of the modern full-directory index: a directory
// name plus the files it lists, each paired with its resolved DataRecord.
type Directory struct {
	Name  string
	Files []FileEntry
}

// Index is the decoded archive directory, in either legacy or modern form.
type Index struct {
	// MountPoint prefixes every contained file's logical path.
	MountPoint string
	// Version is the trailer version this index was decoded under.
	Version int32
	// Entries holds every resolved file, legacy IndexRecords and modern
	// Directory files alike, flattened in decode order.
	Entries []FileEntry
	// Directories holds the modern full-directory tree, nil for legacy archives.
	Directories []Directory
	// PathHashSeed is present for v≥10.
	PathHashSeed uint64
	// HasPathHashIndex reports whether a path-hash-index locator was present.
	HasPathHashIndex bool
	// PathHashIndexOffset/Size/Hash are the optional path-hash-index locator fields.
	PathHashIndexOffset int64
	PathHashIndexSize   int64
	PathHashIndexHash   [shaSize]byte
	// HasFullDirectoryIndex reports whether a full-directory-index locator was present.
	HasFullDirectoryIndex bool
	// FullDirectoryIndexOffset/Size/Hash are the optional full-directory-index locator fields.
	FullDirectoryIndexOffset int64
	FullDirectoryIndexSize   int64
	FullDirectoryIndexHash   [shaSize]byte
}

// ReaderOptions configures session-wide decode behavior.
type ReaderOptions struct {
	// MaxStringLen is set to 4096 by applyDefaults when zero. The decoders do
	// not read it: they always cap declared string lengths at
	// defaultMaxStringLen (4096).
	MaxStringLen int
	// Logger receives structured decode/extract events. Nil selects slog.Default().
	Logger *slog.Logger
	// Decompressors maps a compression method name (case-insensitive) to a Decompressor.
	// Nil selects the built-in zlib/proprietary-LZ registry.
	Decompressors map[string]Decompressor
}

// applyDefaults fills zero-valued reader options with defaults.
func (opts *ReaderOptions) applyDefaults() {
	if opts.MaxStringLen <= 0 {
		opts.MaxStringLen = defaultMaxStringLen
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if opts.Decompressors == nil {
		opts.Decompressors = defaultDecompressors()
	}
}

// ExtractOptions configures Session.Extract behavior.
type ExtractOptions struct {
	// Select is an ordered include/exclude glob filter over normalized archive
	// paths. Nil/empty means "all entries". Repurposes the teacher's
	// compression path-rule matcher as a selection mechanism.
	Select []pathrules.Rule
	// SelectMatcherOptions configures Select matching.
	SelectMatcherOptions pathrules.MatcherOptions
	// MaxWorkers bounds parallel extraction across distinct files. Zero selects GOMAXPROCS.
	MaxWorkers int
	// SanitizeNames rewrites archive paths to deterministic filesystem-safe
	// names (reserved DOS device names, unsafe characters, collisions)
	// before constructing output paths.
	SanitizeNames bool
	// OnEntryDone is called after each attempted entry, success or failure.
	OnEntryDone func(entry FileEntry, written int64, outputPath string, err error)
}

// applyDefaults fills zero-valued extract options with defaults.
func (opts *ExtractOptions) applyDefaults() {
	if opts.SelectMatcherOptions == (pathrules.MatcherOptions{}) {
		opts.SelectMatcherOptions = pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionInclude,
		}
	}
}

// ExtractFailure records one entry's extraction failure, path and error kind.
type ExtractFailure struct {
	Path string
	Err  error
}

// ExtractReport summarizes one Extract call: per-file failures are isolated,
// never aborting the remaining entries.
type ExtractReport struct {
	Attempted int
	Succeeded int
	Failed    int
	Failures  []ExtractFailure
}

// Decompressor is the pluggable codec capability consumed by the Extraction
// Engine. Implementations must not write more than maxOutputLen bytes to dst.
type Decompressor interface {
	Decompress(dst io.Writer, src io.Reader, maxOutputLen int) error
}
