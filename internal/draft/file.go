package draft

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxFileSize is the largest image accepted for upload.
const MaxFileSize = 4 << 20

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var (
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file exceeds 4MB")
	ErrUnsupportedType = errors.New("only JPEG, PNG and WEBP images are allowed")
)

// File is a locally selected file. It can be opened any number of times so
// a failed upload can be retried without selecting it again.
type File struct {
	ID       string
	Name     string
	Size     int64
	MimeType string

	open func() (io.ReadCloser, error)
}

// FromBytes keeps the content in memory.
func FromBytes(name string, data []byte) *File {
	return &File{
		ID:       uuid.NewString(),
		Name:     name,
		Size:     int64(len(data)),
		MimeType: mimetype.Detect(data).String(),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromPath references a file on disk; the content is read on every upload
// attempt.
func FromPath(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", path, err)
	}
	return &File{
		ID:       uuid.NewString(),
		Name:     filepath.Base(path),
		Size:     info.Size(),
		MimeType: mt.String(),
		open:     func() (io.ReadCloser, error) { return os.Open(path) },
	}, nil
}

func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, ErrEmptyFile
	}
	return f.open()
}

// Validate runs the pre-upload checks. Nothing that fails here is sent.
func Validate(f *File) error {
	switch {
	case f == nil || f.Size == 0:
		return ErrEmptyFile
	case f.Size > MaxFileSize:
		return ErrFileTooLarge
	case !allowedTypes[f.MimeType]:
		return ErrUnsupportedType
	}
	return nil
}
