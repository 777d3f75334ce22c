// Package scaffold creates the on-disk catalog of a new tenant.
package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"go.uber.org/zap"

	"tessera/blocks"
)

var (
	ErrInvalidCode = errors.New("invalid tenant code")
	ErrExists      = errors.New("tenant already exists")
)

var codeRe = regexp.MustCompile(`^[a-z0-9]+$`)

// ValidCode reports whether code can name a tenant: lowercase letters and
// digits only.
func ValidCode(code string) bool {
	return codeRe.MatchString(code)
}

// StarterCatalog is the catalog a new tenant starts from: a single rich
// text block editors can use until real kinds are designed.
func StarterCatalog(code string) *blocks.CatalogFile {
	return &blocks.CatalogFile{
		Tenant: code,
		Kinds: []blocks.Kind{
			{Name: code + ".richText", Label: "Rich Text", Fields: []blocks.Field{
				{Name: "title", Type: blocks.FieldText, MaxLength: 120},
				{Name: "content", Type: blocks.FieldRichText},
			}},
		},
	}
}

// Tenant writes dir/<code>/catalog.yaml and returns its path. The tenant
// directory must not exist yet.
func Tenant(dir, code string, log *zap.Logger) (string, error) {
	if !ValidCode(code) {
		return "", fmt.Errorf("%w: %q must be lowercase alphanumeric", ErrInvalidCode, code)
	}
	if builtin := blocks.NewDefaultCatalog(); len(builtin.Kinds(code)) > 0 {
		return "", fmt.Errorf("%w: %q is built in", ErrExists, code)
	}

	tenantDir := filepath.Join(dir, code)
	if _, err := os.Stat(tenantDir); err == nil {
		return "", fmt.Errorf("%w: %s", ErrExists, tenantDir)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	path := filepath.Join(tenantDir, blocks.CatalogFileName)
	if err := blocks.WriteCatalogFile(path, StarterCatalog(code)); err != nil {
		return "", fmt.Errorf("write catalog: %w", err)
	}
	log.Info("tenant scaffolded", zap.String("tenant", code), zap.String("path", path))
	return path, nil
}
