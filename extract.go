// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// extractCopyBufferSize defines per-worker buffer size for block-wise payload copy.
const extractCopyBufferSize = 64 * 1024

// extractWorkItem stores one selected entry with its prepared output path.
type extractWorkItem struct {
	relPath string
	relDir  string
	entry   FileEntry
}

// Extract writes every selected entry's decompressed payload under dstDir,
// parallelized across distinct files by ExtractOptions.MaxWorkers. Per-file
// failures are isolated into the returned ExtractReport rather than
// aborting the remaining entries, per the Extraction Engine's explicit
// partial-success contract. Paths are checked before any entry is
// written: a selected entry whose path fails sanitizing or normalization
// makes Extract return that error without extracting anything.
func (s *Session) Extract(ctx context.Context, dstDir string, opts ExtractOptions) (ExtractReport, error) {
	if s == nil || s.src == nil {
		return ExtractReport{}, ErrNilArchive
	}

	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ExtractReport{}, ErrClosed
	}

	opts.applyDefaults()

	selector, err := newPathSelector(opts.Select, opts.SelectMatcherOptions)
	if err != nil {
		return ExtractReport{}, err
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers < 1 {
		workers = 1
	}

	var selected []FileEntry
	for _, e := range s.index.Entries {
		if selector.Match(e.Path) {
			selected = append(selected, e)
		}
	}

	s.opts.Logger.Info("extraction selected entries", "total", len(s.index.Entries), "selected", len(selected))

	if len(selected) == 0 {
		return ExtractReport{}, nil
	}

	if opts.SanitizeNames {
		sanitized, err := sanitizeFileEntryPaths(selected)
		if err != nil {
			return ExtractReport{}, err
		}

		selected = sanitized
	}

	dstRootAbs, err := filepath.Abs(dstDir)
	if err != nil {
		return ExtractReport{}, fmt.Errorf("resolve output dir: %w", err)
	}

	if err := os.MkdirAll(dstRootAbs, 0o750); err != nil {
		return ExtractReport{}, fmt.Errorf("create output dir: %w", err)
	}

	workItems, err := prepareExtractWorkItems(selected)
	if err != nil {
		return ExtractReport{}, err
	}

	if err := prepareExtractDirs(dstRootAbs, workItems); err != nil {
		return ExtractReport{}, err
	}

	report := s.runExtractWorkers(ctx, dstRootAbs, workItems, workers, opts.OnEntryDone)
	return report, nil
}

// runExtractWorkers fans work items out across a bounded worker pool and
// collects one outcome per item, isolating failures into ExtractReport.
func (s *Session) runExtractWorkers(
	ctx context.Context,
	dstRootAbs string,
	workItems []extractWorkItem,
	workers int,
	onEntryDone func(entry FileEntry, written int64, outputPath string, err error),
) ExtractReport {
	taskCh := make(chan extractWorkItem, len(workItems))
	type outcome struct {
		path string
		err  error
	}
	outcomeCh := make(chan outcome, len(workItems))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			copyBuf := make([]byte, extractCopyBufferSize)
			for task := range taskCh {
				written, outPath, err := s.extractPreparedEntry(ctx, dstRootAbs, task, copyBuf)
				if onEntryDone != nil {
					onEntryDone(task.entry, written, outPath, err)
				}

				outcomeCh <- outcome{path: task.entry.Path, err: err}
			}
		}()
	}

	for _, task := range workItems {
		taskCh <- task
	}
	close(taskCh)

	wg.Wait()
	close(outcomeCh)

	report := ExtractReport{Attempted: len(workItems)}
	for o := range outcomeCh {
		if o.err != nil {
			report.Failed++
			report.Failures = append(report.Failures, ExtractFailure{Path: o.path, Err: o.err})
			continue
		}

		report.Succeeded++
	}

	return report
}

// prepareExtractWorkItems validates selected entries and prepares relative fs paths.
func prepareExtractWorkItems(entries []FileEntry) ([]extractWorkItem, error) {
	workItems := make([]extractWorkItem, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Path) == "" {
			continue
		}

		normalizedPath, err := normalizeExtractEntryPath(entry.Path)
		if err != nil {
			return nil, fmt.Errorf("normalize entry path %s: %w", entry.Path, err)
		}

		relPath := filepath.FromSlash(normalizedPath)
		relDir := filepath.Dir(relPath)
		if relDir == "." {
			relDir = ""
		}

		workItems = append(workItems, extractWorkItem{
			entry:   entry,
			relPath: relPath,
			relDir:  relDir,
		})
	}

	return workItems, nil
}

// prepareExtractDirs creates all unique parent directories needed by work items.
func prepareExtractDirs(dstRootAbs string, workItems []extractWorkItem) error {
	seen := make(map[string]struct{}, len(workItems))
	for _, task := range workItems {
		if task.relDir == "" {
			continue
		}

		dirPath := filepath.Join(dstRootAbs, task.relDir)
		if _, exists := seen[dirPath]; exists {
			continue
		}

		seen[dirPath] = struct{}{}
		if err := os.MkdirAll(dirPath, 0o750); err != nil {
			return fmt.Errorf("create output directory %s: %w", dirPath, err)
		}
	}

	return nil
}

// extractPreparedEntry resolves one entry's payload and writes it to its
// prepared output path, truncating any pre-existing file before the first
// write. Decryption and hash verification are out of scope; encrypted
// entries are rejected before any bytes are written.
func (s *Session) extractPreparedEntry(
	ctx context.Context,
	dstRootAbs string,
	task extractWorkItem,
	copyBuf []byte,
) (int64, string, error) {
	select {
	case <-ctx.Done():
		return 0, "", ctx.Err()
	default:
	}

	outPath := filepath.Join(dstRootAbs, task.relPath)

	if task.entry.Data.Encrypted {
		return 0, outPath, newDecodeError("", task.entry.Path, task.entry.Data.Offset, KindEncryptionUnsupported, nil)
	}

	rc, err := newEntryReader(s.src, &task.entry, s.opts.Decompressors)
	if err != nil {
		return 0, outPath, err
	}
	defer func() { _ = rc.Close() }()

	file, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return 0, outPath, fmt.Errorf("open %s: %w", task.entry.Path, err)
	}

	written, copyErr := copyExtractData(ctx, file, rc, copyBuf)

	closeErr := file.Close()
	if copyErr != nil {
		return written, outPath, fmt.Errorf("write %s: %w", task.entry.Path, copyErr)
	}

	if closeErr != nil {
		return written, outPath, fmt.Errorf("close %s: %w", task.entry.Path, closeErr)
	}

	return written, outPath, nil
}

// copyExtractData copies one entry's decompressed stream to dst, checking
// ctx for cancellation between chunks rather than mid-block.
func copyExtractData(ctx context.Context, dst *os.File, src io.Reader, buf []byte) (int64, error) {
	if len(buf) == 0 {
		return 0, io.ErrShortBuffer
	}

	var total int64
	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		readN, readErr := src.Read(buf)
		if readN > 0 {
			writeN, writeErr := dst.Write(buf[:readN])
			total += int64(writeN)

			if writeErr != nil {
				return total, writeErr
			}

			if writeN != readN {
				return total, io.ErrShortWrite
			}
		}

		if readErr == nil {
			continue
		}

		if readErr == io.EOF {
			return total, nil
		}

		return total, readErr
	}
}
