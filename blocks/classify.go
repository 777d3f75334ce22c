package blocks

import "strings"

// FieldClass says how the tree walk treats a field.
type FieldClass int

const (
	ClassPlain FieldClass = iota
	ClassRichText
	ClassImage
	// ClassOpaque fields are stored as given and never walked.
	ClassOpaque
)

// Classifier decides the class of field inside a block of the given kind.
// depth is 0 for the block's own fields and grows by one for every array
// item or nested object.
type Classifier func(kind, field string, depth int, value any) FieldClass

var richTextFieldNames = []string{"description", "paragraph", "additionalinfo", "coachbio"}

// Kinds whose top-level "content" field holds rich text. Everywhere else
// "content" is a plain textarea (contact items, for one).
var richTextContentKinds = map[string]bool{
	"kallitechnia.richText":  true,
	"kallitechnia.imageText": true,
}

var imageFieldNames = []string{"image", "backgroundImage", "logo", "icon", "thumbnail", "photo", "picture"}

// NewClassifier builds the field classifier used by normalization,
// migrations and media hydration. Top-level fields declared in the catalog
// are classified by their declared type; the rest fall back to field-name
// rules.
func NewClassifier(catalog *Catalog) Classifier {
	return func(kind, field string, depth int, value any) FieldClass {
		if depth == 0 {
			if k, ok := catalog.Lookup(kind); ok {
				if f, ok := k.Field(field); ok {
					switch f.Type {
					case FieldJSON:
						return ClassOpaque
					case FieldRichText:
						return ClassRichText
					case FieldUpload:
						if isImageValue(value) {
							return ClassImage
						}
						return ClassPlain
					default:
						return ClassPlain
					}
				}
			}
		}
		return classifyByName(kind, field, depth, value)
	}
}

func classifyByName(kind, field string, depth int, value any) FieldClass {
	if field == "content" {
		if depth == 0 && richTextContentKinds[kind] {
			return ClassRichText
		}
		return ClassPlain
	}
	if IsRichTextFieldName(field) {
		return ClassRichText
	}
	if IsImageField(field, value) {
		return ClassImage
	}
	return ClassPlain
}

// IsRichTextFieldName matches the rich-text field names, also as a suffix
// ("shortDescription").
func IsRichTextFieldName(field string) bool {
	lower := strings.ToLower(field)
	for _, name := range richTextFieldNames {
		if strings.HasSuffix(lower, name) {
			return true
		}
	}
	return false
}

// IsImageField reports whether field holds an image given by URL or path
// that still has to be replaced by a media id.
func IsImageField(field string, value any) bool {
	return isImageValue(value) && IsImageFieldName(field)
}

// IsImageFieldName matches the image field names, also as a suffix
// ("heroImage").
func IsImageFieldName(field string) bool {
	lower := strings.ToLower(field)
	for _, name := range imageFieldNames {
		if strings.HasSuffix(lower, strings.ToLower(name)) {
			return true
		}
	}
	return false
}

func isImageValue(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "/")
}
