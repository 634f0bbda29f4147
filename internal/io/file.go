package io

/*
rxtld — fetch and tidy the IANA list of top-level domains
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultBufferSize is the default buffer size for disk I/O.
const DefaultBufferSize = 32 * 1024

const filePerm = 0644

// ErrFileClosed is returned when writing to a committed or aborted file.
var ErrFileClosed = errors.New("output file closed")

// AtomicFile writes to a temporary file next to its destination and renames it into
// place on Commit, so readers never observe a partial list. An AtomicFile is not
// safe for concurrent use.
type AtomicFile struct {
	file      *os.File
	gzWriter  *gzip.Writer // nil unless compressed
	writer    *bufio.Writer
	filePath  string // temp path being written
	finalPath string
	closed    bool
}

// Create opens a uniquely named temp file next to path, creating parent directories
// as needed. With compress set the content is gzip-compressed.
func Create(path string, compress bool) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create output file in %s: %w", dir, err)
	}
	// CreateTemp uses 0600, but the saved list is meant to be world-readable.
	if err := file.Chmod(filePerm); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, fmt.Errorf("failed to chmod %s: %w", file.Name(), err)
	}

	af := &AtomicFile{
		file:      file,
		filePath:  file.Name(),
		finalPath: path,
	}
	if compress {
		gzWriter, err := gzip.NewWriterLevel(file, gzip.BestCompression)
		if err != nil {
			_ = file.Close()
			_ = os.Remove(file.Name())
			return nil, fmt.Errorf("failed to create gzip writer: %w", err)
		}
		af.gzWriter = gzWriter
		af.writer = bufio.NewWriterSize(gzWriter, DefaultBufferSize)
	} else {
		af.writer = bufio.NewWriterSize(file, DefaultBufferSize)
	}
	return af, nil
}

// Path returns the destination path.
func (af *AtomicFile) Path() string {
	return af.finalPath
}

// Write implements io.Writer.
func (af *AtomicFile) Write(p []byte) (int, error) {
	if af.closed {
		return 0, ErrFileClosed
	}
	return af.writer.Write(p)
}

// Commit flushes and closes the temp file, then renames it to the destination.
// On any failure the temp file is removed and the destination is left untouched.
func (af *AtomicFile) Commit() error {
	if af.closed {
		return ErrFileClosed
	}
	af.closed = true

	var errs []error
	if err := af.writer.Flush(); err != nil {
		errs = append(errs, fmt.Errorf("flush %s: %w", af.filePath, err))
	}
	if af.gzWriter != nil {
		if err := af.gzWriter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close gzip writer %s: %w", af.filePath, err))
		}
	}
	if err := af.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", af.filePath, err))
	}
	if len(errs) > 0 {
		_ = os.Remove(af.filePath)
		return errors.Join(errs...)
	}

	if err := os.Rename(af.filePath, af.finalPath); err != nil {
		_ = os.Remove(af.filePath)
		return fmt.Errorf("rename %s to %s: %w", af.filePath, af.finalPath, err)
	}
	return nil
}

// Abort discards everything written and removes the temp file. It is a no-op after
// Commit, so it can be deferred.
func (af *AtomicFile) Abort() {
	if af.closed {
		return
	}
	af.closed = true
	if af.gzWriter != nil {
		_ = af.gzWriter.Close()
	}
	_ = af.file.Close()
	_ = os.Remove(af.filePath)
}
