// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

/*
Package upak reads Unreal Engine PAK archives: trailer discovery by magic
scan, version-conditional trailer/record layouts (v1-v11), legacy and
"full directory" index encodings, and block-wise decompression of file
payloads. It is read-only: writing, repacking and decrypting archives are
out of scope.

# Opening an archive

	s, err := upak.Open("Game-WindowsNoEditor.pak")
	if err != nil {
	    return err
	}
	defer s.Close()

	for _, e := range s.Entries() {
	    fmt.Println(e.Path, e.Data.UncompressedSize, e.MethodName)
	}

# Reading one entry

	rc, err := s.Open("Game/Content/Text.uasset")
	if err != nil {
	    return err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)

# Extracting

Extract selects entries with an ordered include/exclude glob filter
(github.com/woozymasta/pathrules) and writes each to dstDir, isolating
per-file failures into the returned ExtractReport rather than aborting:

	report, err := s.Extract(ctx, "out/", upak.ExtractOptions{
	    Select: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "*.uasset"},
	    },
	    SelectMatcherOptions: pathrules.MatcherOptions{
	        CaseInsensitive: true,
	        DefaultAction:   pathrules.ActionExclude,
	    },
	    MaxWorkers: 4,
	})
	if err != nil {
	    return err
	}
	for _, f := range report.Failures {
	    log.Printf("%s: %v", f.Path, f.Err)
	}

# Options and logging

ReaderOptions configures the Decompressor registry and a *slog.Logger; a
nil Logger falls back to slog.Default(). Its MaxStringLen field is not read
by the decoders, which always cap string lengths at 4096 bytes:

	s, err := upak.OpenWithOptions("Game-WindowsNoEditor.pak", upak.ReaderOptions{
	    Logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	})

# Decode errors

Decode and decompression failures are *upak.DecodeError values (possibly
wrapped) carrying the failing entity, its byte offset and a Kind; Kind
values are compared with errors.Is against the matching sentinel
(upak.ErrMagicNotFound, upak.ErrBlockMismatch, and so on). Filesystem
errors and context cancellation during Extract are reported as the
underlying os or context error:

	if errors.Is(err, upak.ErrEncryptionUnsupported) {
	    // entry is encrypted; decryption is out of scope
	}
*/
package upak
