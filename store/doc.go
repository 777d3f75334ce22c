package store

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"tessera/models"
)

// Doc is a document as the rest of the system sees it: its data keys plus
// id, createdAt and updatedAt.
type Doc map[string]any

// Filter holds equality constraints, all of which must hold.
type Filter map[string]any

func (d Doc) ID() string {
	return d.String("id")
}

// String returns the string value of key, or "".
func (d Doc) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Matches reports whether every constraint of f holds for d. Values are
// compared by their string form so decoded numbers match ints.
func (d Doc) Matches(f Filter) bool {
	for k, want := range f {
		got, ok := d[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// Clone returns a shallow copy.
func (d Doc) Clone() Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

var reservedKeys = []string{"id", "createdAt", "updatedAt"}

func stripReserved(d Doc) Doc {
	out := d.Clone()
	for _, k := range reservedKeys {
		delete(out, k)
	}
	return out
}

func toRow(id, collection string, data Doc) (*models.Document, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s document: %w", collection, err)
	}
	return &models.Document{
		ID:         id,
		Collection: collection,
		Tenant:     data.String("tenant"),
		Slug:       data.String("slug"),
		Status:     data.String("status"),
		Data:       raw,
	}, nil
}

func fromRow(row *models.Document) (Doc, error) {
	doc := Doc{}
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &doc); err != nil {
			return nil, fmt.Errorf("decode %s document %s: %w", row.Collection, row.ID, err)
		}
	}
	doc["id"] = row.ID
	doc["createdAt"] = row.CreatedAt.UTC().Format(time.RFC3339)
	doc["updatedAt"] = row.UpdatedAt.UTC().Format(time.RFC3339)
	return doc, nil
}
