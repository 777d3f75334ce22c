package blocks

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// CatalogFileName is the name of a tenant's catalog inside its directory.
const CatalogFileName = "catalog.yaml"

// CatalogFile is the on-disk form of one tenant's block catalog.
type CatalogFile struct {
	Tenant string `yaml:"tenant"`
	Kinds  []Kind `yaml:"kinds"`
}

// ReadCatalogFile parses a catalog file.
func ReadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Tenant == "" {
		return nil, fmt.Errorf("parse %s: missing tenant", path)
	}
	return &file, nil
}

// WriteCatalogFile writes file to path, creating parent directories.
func WriteCatalogFile(path string, file *CatalogFile) error {
	data, err := yaml.Marshal(file)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadCatalogDir registers the kinds of every <dir>/<tenant>/catalog.yaml.
// A missing dir is not an error. Kinds failing registration are skipped and
// reported in the returned error list; the rest of the tenant still loads.
func (c *Catalog) LoadCatalogDir(dir string) (loaded int, errs []error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, []error{err}
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), CatalogFileName)
		file, err := ReadCatalogFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, k := range file.Kinds {
			if err := c.Register(file.Tenant, k); err != nil {
				errs = append(errs, err)
				continue
			}
			loaded++
		}
	}
	return loaded, errs
}
