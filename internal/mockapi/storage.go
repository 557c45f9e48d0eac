package mockapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	MaxFileSize   = 4 << 20
	StaticURLBase = "/uploads"
)

var allowedMimeTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Storage keeps uploaded images on local disk, one directory per specialist.
type Storage struct {
	baseDir    string
	staticBase string
}

func NewStorage(baseDir string) *Storage {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	return &Storage{baseDir: baseDir, staticBase: StaticURLBase}
}

func (s *Storage) Dir() string { return s.baseDir }

type storedFile struct {
	Name     string
	Size     int64
	MimeType string
	Path     string
	URL      string
}

// Save validates fh and writes it under <base>/<specialistID>/.
func (s *Storage) Save(specialistID string, fh *multipart.FileHeader) (*storedFile, error) {
	if fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	if fh.Size > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("detect type: %w", err)
	}
	ext, ok := allowedMimeTypes[mt.String()]
	if !ok {
		return nil, ErrInvalidMimeType
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	dir := filepath.Join(s.baseDir, specialistID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	name := fmt.Sprintf("%s_%s%s", uuid.NewString(), sanitizeName(fh.Filename), ext)
	abs := filepath.Join(dir, name)
	dst, err := os.Create(abs)
	if err != nil {
		return nil, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		_ = os.Remove(abs)
		return nil, fmt.Errorf("write file: %w", err)
	}

	rel := filepath.ToSlash(filepath.Join(specialistID, name))
	return &storedFile{
		Name:     fh.Filename,
		Size:     fh.Size,
		MimeType: mt.String(),
		Path:     abs,
		URL:      s.staticBase + "/" + rel,
	}, nil
}

// Remove deletes a single stored file. A missing file is not an error.
func (s *Storage) Remove(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}

// RemoveAll deletes every file stored for a specialist.
func (s *Storage) RemoveAll(specialistID string) error {
	if specialistID == "" || strings.ContainsAny(specialistID, `/\`) {
		return nil
	}
	return os.RemoveAll(filepath.Join(s.baseDir, specialistID))
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return '_'
	}, name)
	if len(name) > 40 {
		name = name[:40]
	}
	if name == "" || name == "." {
		return "file"
	}
	return name
}
