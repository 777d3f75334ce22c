package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"tessera/store"
)

const maxAltLength = 200

// Library creates and finds media documents backed by Storage.
type Library struct {
	store   *store.Store
	storage *Storage
	log     *zap.Logger
}

func NewLibrary(st *store.Store, storage *Storage, log *zap.Logger) *Library {
	return &Library{store: st, storage: storage, log: log}
}

type Upload struct {
	Tenant string
	Name   string
	Alt    string
	// Source is where the file came from (a URL or a sync pack path); it
	// is stored so the same asset is not imported twice.
	Source string
	Body   io.Reader
}

// Create stores the file and its media document.
func (l *Library) Create(ctx context.Context, up Upload, opts store.WriteOptions) (store.Doc, error) {
	if up.Tenant == "" {
		return nil, fmt.Errorf("media needs a tenant")
	}
	alt := strings.TrimSpace(up.Alt)
	if alt == "" {
		alt = AltFromFilename(up.Name)
	}
	if len([]rune(alt)) > maxAltLength {
		alt = string([]rune(alt)[:maxAltLength])
	}

	file, err := l.storage.Save(up.Tenant, up.Name, up.Body)
	if err != nil {
		return nil, err
	}
	doc := store.Doc{
		"tenant":   up.Tenant,
		"alt":      alt,
		"filename": file.Filename,
		"mimeType": file.MimeType,
		"filesize": file.Size,
		"url":      URL(up.Tenant, file.Filename),
	}
	if file.Width > 0 {
		doc["width"], doc["height"] = file.Width, file.Height
	}
	if up.Source != "" {
		doc["source"] = up.Source
	}

	created, err := l.store.Create(ctx, store.Media, doc, opts)
	if err != nil {
		_ = l.storage.Remove(up.Tenant, file.Filename)
		return nil, err
	}
	return created, nil
}

// FindBySource returns the tenant's media imported from source.
func (l *Library) FindBySource(ctx context.Context, tenant, source string) (store.Doc, error) {
	return l.store.FindOne(ctx, store.Media, store.Filter{"tenant": tenant, "source": source},
		store.FindOptions{OverrideAccess: true})
}

// AltFromFilename makes alt text out of a file name: extension dropped,
// dashes and underscores turned into spaces, first letter upper-cased.
func AltFromFilename(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.TrimSpace(strings.NewReplacer("-", " ", "_", " ").Replace(base))
	if cleaned == "" || cleaned == "." {
		return "Image"
	}
	r := []rune(cleaned)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
