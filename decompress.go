// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zlib"
	"github.com/woozymasta/lzss"
)

// zlibDecompressor inflates a zlib stream, bounding output to maxOutputLen.
// Grounded on github.com/klauspost/compress/zlib, the ecosystem-maintained
// drop-in replacement for compress/zlib used elsewhere in the retrieved
// pack (meigma-blob) for block decompression.
type zlibDecompressor struct{}

func (zlibDecompressor) Decompress(dst io.Writer, src io.Reader, maxOutputLen int) error {
	zr, err := zlib.NewReader(src)
	if err != nil {
		return newDecodeError("", "block", 0, KindCodecFailure, err)
	}
	defer func() { _ = zr.Close() }()

	return copyBounded(dst, zr, maxOutputLen)
}

// lzDecompressor decompresses the proprietary LZ-family codec used by
// non-zlib, non-"None" method table entries. Grounded on
// github.com/woozymasta/lzss, the teacher's own block-LZ codec, reused
// unmodified per SPEC_FULL.md's domain-stack wiring.
type lzDecompressor struct{}

func (lzDecompressor) Decompress(dst io.Writer, src io.Reader, maxOutputLen int) error {
	if _, err := lzss.DecompressToWriter(dst, src, maxOutputLen, nil); err != nil {
		return newDecodeError("", "block", 0, KindCodecFailure, err)
	}

	return nil
}

// copyBounded copies at most maxOutputLen bytes from src to dst, failing
// with KindCodecFailure if src still has data beyond that bound — enforcing
// the Decompressor contract "output.len() ≤ maxOutputLen".
func copyBounded(dst io.Writer, src io.Reader, maxOutputLen int) error {
	limited := io.LimitReader(src, int64(maxOutputLen))
	if _, err := io.Copy(dst, limited); err != nil {
		return newDecodeError("", "block", 0, KindCodecFailure, err)
	}

	var probe [1]byte
	n, err := io.ReadFull(src, probe[:])
	if n > 0 {
		return newDecodeError("", "block", 0, KindCodecFailure,
			fmt.Errorf("decompressed output exceeds declared bound %d", maxOutputLen))
	}
	if err != io.EOF {
		return newDecodeError("", "block", 0, KindCodecFailure, err)
	}

	return nil
}

// defaultDecompressors builds the built-in method-name registry: "zlib"
// (case-insensitive) maps to inflate, any other non-empty name maps to the
// proprietary LZ capability, per §4.J's selection rule.
func defaultDecompressors() map[string]Decompressor {
	return map[string]Decompressor{
		"zlib": zlibDecompressor{},
	}
}

// resolveDecompressor selects a Decompressor for a trailer method name.
// Callers bypass the Decompressor path for method index 0, per §4.J. Any
// name without a registry entry falls back to the proprietary LZ codec,
// including the empty name a compressed record gets when the archive has
// no method table (v<8) or its index points at an empty slot.
func resolveDecompressor(registry map[string]Decompressor, methodName string) Decompressor {
	if d, ok := registry[strings.ToLower(methodName)]; ok {
		return d
	}

	return lzDecompressor{}
}
