// Package blocks describes the content blocks that make up pages: the
// per-tenant catalog of block kinds and their fields, the normalizer that
// turns raw stored blocks into complete canonical ones, and the typed view
// renderers work with.
package blocks

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tessera/richtext"
)

// ErrKindPrefix is returned when a kind is registered under a tenant whose
// code it does not start with.
var ErrKindPrefix = errors.New("block kind must be prefixed with its tenant code")

type FieldType string

const (
	FieldText         FieldType = "text"
	FieldTextarea     FieldType = "textarea"
	FieldRichText     FieldType = "richText"
	FieldUpload       FieldType = "upload"
	FieldNumber       FieldType = "number"
	FieldCheckbox     FieldType = "checkbox"
	FieldSelect       FieldType = "select"
	FieldArray        FieldType = "array"
	FieldJSON         FieldType = "json"
	FieldRelationship FieldType = "relationship"
)

// Field is one entry of a kind's schema. Array fields describe their item
// shape in Fields.
type Field struct {
	Name      string    `yaml:"name"`
	Type      FieldType `yaml:"type"`
	Label     string    `yaml:"label,omitempty"`
	Default   any       `yaml:"default,omitempty"`
	Required  bool      `yaml:"required,omitempty"`
	MaxLength int       `yaml:"maxLength,omitempty"`
	MinItems  int       `yaml:"minItems,omitempty"`
	URL       bool      `yaml:"url,omitempty"`
	Options   []string  `yaml:"options,omitempty"`
	Fields    []Field   `yaml:"fields,omitempty"`
}

// Initial is the value a freshly created block gets for this field.
func (f Field) Initial() any {
	if f.Type == FieldRichText {
		return richtext.Empty()
	}
	if f.Default != nil {
		return cloneValue(f.Default)
	}
	switch f.Type {
	case FieldText, FieldTextarea:
		return ""
	case FieldCheckbox:
		return false
	case FieldArray:
		return []any{}
	case FieldJSON:
		return map[string]any{}
	}
	return nil
}

// Kind is a named, versioned block schema. Name is qualified with the
// tenant code, e.g. "kallitechnia.hero".
type Kind struct {
	Name    string  `yaml:"name"`
	Label   string  `yaml:"label,omitempty"`
	Version int     `yaml:"version,omitempty"`
	Fields  []Field `yaml:"fields"`
}

// Field returns the top-level field called name.
func (k Kind) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Defaults lists the fields the normalizer fills in when a stored block
// lacks them: those with an explicit default.
func (k Kind) Defaults() map[string]any {
	out := map[string]any{}
	for _, f := range k.Fields {
		if f.Default != nil {
			out[f.Name] = f.Initial()
		}
	}
	return out
}

// Catalog holds the block kinds each tenant may use.
type Catalog struct {
	mu       sync.RWMutex
	kinds    map[string]Kind
	byTenant map[string][]string
}

func NewCatalog() *Catalog {
	return &Catalog{
		kinds:    map[string]Kind{},
		byTenant: map[string][]string{},
	}
}

// Register adds kind to tenant's catalog. Re-registering a kind replaces its
// schema.
func (c *Catalog) Register(tenant string, kind Kind) error {
	if !strings.HasPrefix(kind.Name, tenant+".") || len(kind.Name) == len(tenant)+1 {
		return fmt.Errorf("%w: %q for tenant %q", ErrKindPrefix, kind.Name, tenant)
	}
	if kind.Version == 0 {
		kind.Version = CurrentSchemaVersion
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.kinds[kind.Name]; !exists {
		c.byTenant[tenant] = append(c.byTenant[tenant], kind.Name)
	}
	c.kinds[kind.Name] = kind
	return nil
}

// Lookup finds a kind by its qualified name.
func (c *Catalog) Lookup(name string) (Kind, bool) {
	if c == nil {
		return Kind{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.kinds[name]
	return k, ok
}

// Kinds lists a tenant's kinds in registration order.
func (c *Catalog) Kinds(tenant string) []Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := c.byTenant[tenant]
	out := make([]Kind, 0, len(names))
	for _, name := range names {
		out = append(out, c.kinds[name])
	}
	return out
}

// DeclaresText reports whether kind declares field as text or textarea.
// At depth 0 only the kind's own fields count; deeper, any array item or
// nested object field of that name does. Unknown kinds declare nothing.
func (c *Catalog) DeclaresText(kind, field string, depth int) bool {
	k, ok := c.Lookup(kind)
	if !ok {
		return false
	}
	if depth == 0 {
		f, ok := k.Field(field)
		return ok && isTextType(f.Type)
	}
	return nestedText(k.Fields, field)
}

func isTextType(t FieldType) bool {
	return t == FieldText || t == FieldTextarea
}

func nestedText(fields []Field, name string) bool {
	for _, f := range fields {
		for _, sub := range f.Fields {
			if sub.Name == name && isTextType(sub.Type) {
				return true
			}
		}
		if nestedText(f.Fields, name) {
			return true
		}
	}
	return false
}

// Names returns every qualified kind name, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.kinds))
	for name := range c.kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Tenants returns the codes of tenants that have at least one kind.
func (c *Catalog) Tenants() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.byTenant))
	for code := range c.byTenant {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// TenantOf returns the tenant prefix of a qualified kind.
func TenantOf(kind string) string {
	i := strings.Index(kind, ".")
	if i <= 0 {
		return ""
	}
	return kind[:i]
}

// NameOf returns the unqualified part of a kind.
func NameOf(kind string) string {
	return kind[strings.Index(kind, ".")+1:]
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	}
	return v
}
