// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

// Package intake validates candidate document batches before they are
// analyzed and tracks the accepted selection.
package intake

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source yields a file's raw bytes.
type Source interface {
	Open() (io.ReadCloser, error)
}

// Bytes is an in-memory Source.
type Bytes []byte

// Open implements Source.
func (b Bytes) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Path is a Source backed by a file on disk.
type Path string

// Open implements Source.
func (p Path) Open() (io.ReadCloser, error) {
	return os.Open(string(p))
}

// File is a candidate document: its display name, declared content type,
// byte size, and where to read its bytes from.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Source      Source
}

// Extension returns the lower-cased extension of the file name, including the
// leading dot. A name without a dot is treated as all extension.
func (f File) Extension() string {
	return Extension(f.Name)
}

// Extension returns "." plus the lower-cased text after the final dot of name.
func Extension(name string) string {
	base := name
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[i+1:]
	}
	return "." + strings.ToLower(base)
}

// ReadAll reads the whole file into memory.
func (f File) ReadAll() ([]byte, error) {
	if f.Source == nil {
		return nil, fmt.Errorf("no source for %q", f.Name)
	}
	rc, err := f.Source.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// FromPath builds a File for a document on disk. The content type is derived
// from the extension because the local filesystem declares none.
func FromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	name := filepath.Base(path)
	return File{
		Name:        name,
		ContentType: ContentTypeFor(name),
		Size:        info.Size(),
		Source:      Path(path),
	}, nil
}

// FromBytes builds an in-memory File.
func FromBytes(name, contentType string, data []byte) File {
	return File{
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
		Source:      Bytes(data),
	}
}
