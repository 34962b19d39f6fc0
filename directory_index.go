// SPDX-License-Identifier: MIT
// Copyright (c) 2026 unrealpak
// Source: github.com/unrealpak/upak

package upak

// decodeDirectoryIndex decodes the modern full-directory tree (§4.I):
// seeks archive to idx.FullDirectoryIndexOffset, reads directory count,
// then per directory a name and its files; each File carries an offset
// into the encoded-entry-info blob, which is expanded (§4.H) and resolved
// against the archive (§4.H/§3) to a DataRecord. Returns both the
// directory tree and the flattened, mount-point-qualified FileEntry list.
func decodeDirectoryIndex(archive, blob *byteSource, trailer *Trailer, idx *Index) ([]Directory, []FileEntry, error) {
	if idx.FullDirectoryIndexOffset < 0 || idx.FullDirectoryIndexOffset > archive.Len() {
		return nil, nil, newDecodeError("", "directory index", idx.FullDirectoryIndexOffset, KindOffsetOutOfRange, nil)
	}

	archive.Seek(idx.FullDirectoryIndexOffset)
	dec := newPrimitiveDecoder(archive, defaultMaxStringLen)

	dirCount, err := dec.u32()
	if err != nil {
		return nil, nil, newDecodeError("", "directory index", archive.Pos(), KindIO, err)
	}

	dirs := make([]Directory, 0, dirCount)
	var flat []FileEntry

	for d := uint32(0); d < dirCount; d++ {
		dirName, err := dec.nulString()
		if err != nil {
			return nil, nil, newDecodeError("", "directory index", archive.Pos(), KindMalformedString, err)
		}

		fileCount, err := dec.u32()
		if err != nil {
			return nil, nil, newDecodeError("", "directory index", archive.Pos(), KindIO, err)
		}

		files := make([]FileEntry, 0, fileCount)
		for f := uint32(0); f < fileCount; f++ {
			fileName, err := dec.nulString()
			if err != nil {
				return nil, nil, newDecodeError("", "directory index", archive.Pos(), KindMalformedString, err)
			}

			blobOffset, err := dec.u32()
			if err != nil {
				return nil, nil, newDecodeError("", "directory index", archive.Pos(), KindIO, err)
			}

			// resolveDirectoryFile seeks archive to decode the referenced
			// data record; restore the directory walk's cursor afterward so
			// sibling files/directories keep reading from the right place.
			resumeAt := archive.Pos()
			entry, err := resolveDirectoryFile(archive, blob, trailer, idx.MountPoint, dirName, fileName, blobOffset)
			archive.Seek(resumeAt)
			if err != nil {
				return nil, nil, err
			}

			files = append(files, entry)
			flat = append(flat, entry)
		}

		dirs = append(dirs, Directory{Name: dirName, Files: files})
	}

	return dirs, flat, nil
}

// resolveDirectoryFile expands one File's encoded entry and resolves it to
// a full DataRecord, building the mount-point/directory-qualified path
// "mountPoint + directoryName + filename" from §4.J's output layout rule.
func resolveDirectoryFile(archive, blob *byteSource, trailer *Trailer, mountPoint, dirName, fileName string, blobOffset uint32) (FileEntry, error) {
	if int64(blobOffset) < 0 || int64(blobOffset) > blob.Len() {
		return FileEntry{}, newDecodeError("", "encoded entry", int64(blobOffset), KindOffsetOutOfRange, nil)
	}

	blob.Seek(int64(blobOffset))
	enc, err := decodeEncodedRecord(blob)
	if err != nil {
		return FileEntry{}, err
	}

	data, err := resolveEncodedRecord(archive, trailer.Version, enc)
	if err != nil {
		return FileEntry{}, err
	}

	path := joinMountPoint(joinMountPoint(mountPoint, dirName), fileName)

	return FileEntry{
		Path:       path,
		Data:       data,
		MethodName: trailer.MethodName(data.CompressionMethodIndex),
	}, nil
}
