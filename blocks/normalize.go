package blocks

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tessera/richtext"
)

// ErrInvalidBlock is returned for stored blocks that cannot be normalized:
// not an object, or no block type under any accepted key.
var ErrInvalidBlock = errors.New("invalid block")

// KindKeys are the keys a stored block's kind is read from, in order.
var KindKeys = []string{"blockType", "block_type", "type"}

const (
	kindKey       = "blockType"
	versionKey    = "schemaVersion"
	deprecatedKey = "__deprecated"
)

// KindOf returns the kind of a stored block and the key it was found under.
func KindOf(block map[string]any) (kind, key string, ok bool) {
	for _, k := range KindKeys {
		if s, isString := block[k].(string); isString && s != "" {
			return s, k, true
		}
	}
	return "", "", false
}

// Normalizer completes raw stored blocks: metadata, per-kind defaults and
// canonical rich text in every rich-text field, nested ones included.
type Normalizer struct {
	catalog  *Catalog
	classify Classifier
	upgrades map[int]UpgradeFunc
	log      *zap.Logger
}

func NewNormalizer(catalog *Catalog, log *zap.Logger) *Normalizer {
	return &Normalizer{
		catalog:  catalog,
		classify: NewClassifier(catalog),
		upgrades: upgradeChain,
		log:      log,
	}
}

// Classifier exposes the field classifier shared with migrations.
func (n *Normalizer) Classifier() Classifier {
	return n.classify
}

// Normalize returns a normalized copy of raw. raw itself is not modified.
func (n *Normalizer) Normalize(raw any) (map[string]any, error) {
	block, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrInvalidBlock, raw)
	}
	kind, key, ok := KindOf(block)
	if !ok {
		return nil, fmt.Errorf("%w: no block type", ErrInvalidBlock)
	}

	out := make(map[string]any, len(block)+3)
	for k, v := range block {
		out[k] = v
	}
	if key != kindKey {
		delete(out, key)
	}
	out[kindKey] = kind

	version, ok := toInt(out[versionKey])
	if !ok {
		version, ok = toInt(out["schema_version"])
	}
	if !ok {
		version = 1
	}
	delete(out, "schema_version")
	out, version = upgrade(n.upgrades, out, version)
	out[versionKey] = version

	if _, ok := out[deprecatedKey].(bool); !ok {
		out[deprecatedKey] = false
	}

	if TenantOf(kind) == "" {
		n.log.Debug("block type has no tenant prefix", zap.String("blockType", kind))
	}

	if k, ok := n.catalog.Lookup(kind); ok {
		for field, def := range k.Defaults() {
			if v, present := out[field]; !present || v == nil {
				out[field] = def
			}
		}
	}

	normalized, _ := Walk(kind, out, n.classify, formatVisitor)
	return normalized, nil
}

// NormalizeMany normalizes every element of raws, dropping the ones that
// fail. A nil or non-array input yields an empty result.
func (n *Normalizer) NormalizeMany(raws any) []map[string]any {
	items, _ := raws.([]any)
	out := make([]map[string]any, 0, len(items))
	for i, raw := range items {
		block, err := n.Normalize(raw)
		if err != nil {
			n.log.Warn("dropping block", zap.Int("index", i), zap.Error(err))
			continue
		}
		out = append(out, block)
	}
	return out
}

// formatVisitor converts rich-text fields to canonical documents and turns
// a list of plain paragraphs into paragraph items.
func formatVisitor(kind, field string, depth int, class FieldClass, value any) (any, bool) {
	if class == ClassRichText {
		return richtext.Coerce(value)
	}
	if field == "paragraphs" {
		return paragraphItems(value)
	}
	return nil, false
}

func paragraphItems(value any) (any, bool) {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil, false
	}
	if _, isString := items[0].(string); !isString {
		return nil, false
	}
	out := make([]any, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, map[string]any{"paragraph": richtext.ConvertPlainTextToCanonical(s)})
	}
	return out, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}
