package core

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Source is a random-access byte source. A read past the data that is
// currently available must fail rather than block.
type Source interface {
	io.ReaderAt
	Size() int64
}

// NewBytesSource wraps an in-memory PDF.
func NewBytesSource(data []byte) Source {
	return bytes.NewReader(data)
}

// FileSource is a Source backed by an open file.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path as a Source. The caller closes it.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	return &FileSource{f: f, size: info.Size()}, nil
}

// ReadAt implements io.ReaderAt
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the file size captured at open time
func (s *FileSource) Size() int64 {
	return s.size
}

// Close closes the underlying file
func (s *FileSource) Close() error {
	return s.f.Close()
}

// readFull reads len(p) bytes at off and reports ErrShortRead when the
// source cannot supply them.
func readFull(src Source, p []byte, off int64) error {
	n, err := src.ReadAt(p, off)
	if n == len(p) {
		return nil
	}
	if err != nil && err != io.EOF {
		return fmt.Errorf("read %d bytes at %d: %w", len(p), off, err)
	}
	return fmt.Errorf("read %d bytes at %d: %w", len(p), off, ErrShortRead)
}
