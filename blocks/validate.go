package blocks

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// FieldError is a validation failure on one field of a block.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// ValidateURL accepts empty values, site-relative paths and http(s) URLs.
func ValidateURL(value string) error {
	u := strings.ToLower(strings.TrimSpace(value))
	if u == "" {
		return nil
	}
	for _, scheme := range []string{"javascript:", "data:", "vbscript:", "file:"} {
		if strings.HasPrefix(u, scheme) {
			return fmt.Errorf("invalid URL: %s protocol is not allowed", strings.TrimSuffix(scheme, ":"))
		}
	}
	if strings.HasPrefix(u, "/") || strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return nil
	}
	return fmt.Errorf("URL must start with / (internal), http://, or https://")
}

// MaxLength returns a check that value has at most n characters.
func MaxLength(n int, label string) func(string) error {
	return func(value string) error {
		if l := utf8.RuneCountInString(value); l > n {
			return fmt.Errorf("%s must be %d characters or less (currently %d)", label, n, l)
		}
		return nil
	}
}

// MinItems returns a check that a list has at least n entries.
func MinItems(n int, label string) func(any) error {
	return func(value any) error {
		items, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s must have at least %d item(s)", label, n)
		}
		if len(items) < n {
			return fmt.Errorf("%s must have at least %d item(s) (currently %d)", label, n, len(items))
		}
		return nil
	}
}

// Validate checks a block against its kind's field rules. Unknown kinds
// yield a single error on blockType.
func (c *Catalog) Validate(block map[string]any) FieldErrors {
	kind, _, ok := KindOf(block)
	if !ok {
		return FieldErrors{{Field: kindKey, Message: "missing block type"}}
	}
	k, ok := c.Lookup(kind)
	if !ok {
		return FieldErrors{{Field: kindKey, Message: fmt.Sprintf("unknown block type %q", kind)}}
	}
	var errs FieldErrors
	validateFields(k.Fields, block, "", &errs)
	return errs
}

func validateFields(fields []Field, values map[string]any, prefix string, errs *FieldErrors) {
	for _, f := range fields {
		path := prefix + f.Name
		value, present := values[f.Name]
		add := func(err error) {
			if err != nil {
				*errs = append(*errs, FieldError{Field: path, Message: err.Error()})
			}
		}

		if f.Required && (!present || value == nil || value == "") {
			add(fmt.Errorf("%s is required", label(f)))
			continue
		}
		if !present || value == nil {
			continue
		}

		switch f.Type {
		case FieldText, FieldTextarea:
			s, ok := value.(string)
			if !ok {
				add(fmt.Errorf("%s must be text", label(f)))
				continue
			}
			if f.MaxLength > 0 {
				add(MaxLength(f.MaxLength, label(f))(s))
			}
			if f.URL {
				add(ValidateURL(s))
			}
		case FieldSelect:
			s := SafeText(value)
			if s != "" && len(f.Options) > 0 && !contains(f.Options, s) {
				add(fmt.Errorf("%s must be one of %s", label(f), strings.Join(f.Options, ", ")))
			}
		case FieldArray:
			if f.MinItems > 0 {
				add(MinItems(f.MinItems, label(f))(value))
			}
			for i, item := range objects(value) {
				validateFields(f.Fields, item, fmt.Sprintf("%s.%d.", path, i), errs)
			}
		}
	}
}

func label(f Field) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
