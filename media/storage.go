// Package media stores uploaded files for tenants and keeps a media
// document for each of them. It also imports the assets of a sync pack and
// expands media ids inside blocks on read.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrUnsupportedType = errors.New("unsupported media type")

// MaxFileSize caps a single upload or download.
const MaxFileSize = 20 << 20

// Storage keeps files under <dir>/<tenant>/.
type Storage struct {
	dir string
}

func NewStorage(dir string) *Storage {
	return &Storage{dir: dir}
}

func (s *Storage) Dir() string {
	return s.dir
}

// File describes a stored file.
type File struct {
	Filename string
	Path     string
	MimeType string
	Size     int64
	Width    int
	Height   int
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// cleanName keeps a readable, filesystem-safe version of name.
func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Trim(unsafeName.ReplaceAllString(name, "-"), "-.")
	if name == "" {
		return "file"
	}
	return name
}

// Save writes r to the tenant's directory. The stored name gets a short
// random prefix so uploads with the same name never overwrite each other.
// Only images are accepted.
func (s *Storage) Save(tenant, name string, r io.Reader) (*File, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: file larger than %d bytes", ErrUnsupportedType, MaxFileSize)
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}

	base := cleanName(name)
	if filepath.Ext(base) == "" {
		base += mt.Extension()
	}
	filename := uuid.NewString()[:8] + "-" + base

	dir := filepath.Join(s.dir, cleanName(tenant))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, err
	}

	file := &File{
		Filename: filename,
		Path:     path,
		MimeType: mt.String(),
		Size:     int64(len(data)),
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		file.Width, file.Height = cfg.Width, cfg.Height
	}
	return file, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (s *Storage) Remove(tenant, filename string) error {
	err := os.Remove(filepath.Join(s.dir, cleanName(tenant), cleanName(filename)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// URL is the public path a stored file is served from.
func URL(tenant, filename string) string {
	return "/media/" + cleanName(tenant) + "/" + filename
}
