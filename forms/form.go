// Package forms serves tenant-defined forms: the public submission endpoint,
// field validation and the default forms a new tenant starts with.
package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"tessera/store"
)

const DefaultSuccessMessage = "Thank you! Your submission has been received."

// Field types
const (
	TypeText     = "text"
	TypeEmail    = "email"
	TypeTel      = "tel"
	TypeTextarea = "textarea"
	TypeNumber   = "number"
	TypeSelect   = "select"
	TypeCheckbox = "checkbox"
)

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type Field struct {
	Type        string   `json:"type"`
	Label       string   `json:"label"`
	Name        string   `json:"name"`
	Required    bool     `json:"required"`
	Placeholder string   `json:"placeholder,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

type Form struct {
	ID             string  `json:"id"`
	Tenant         string  `json:"tenant"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	Status         string  `json:"status"`
	Fields         []Field `json:"fields"`
	SuccessMessage string  `json:"successMessage,omitempty"`
	RedirectURL    string  `json:"redirectUrl,omitempty"`
	// NotifyEmail receives a copy of every submission when set.
	NotifyEmail string `json:"notifyEmail,omitempty"`
}

// FromDoc decodes a stored forms document.
func FromDoc(doc store.Doc) (*Form, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var f Form
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("form %s: %w", doc.ID(), err)
	}
	return &f, nil
}

// Doc is the stored shape of f, without its id.
func (f *Form) Doc() store.Doc {
	fields := make([]any, 0, len(f.Fields))
	for _, fd := range f.Fields {
		m := map[string]any{
			"type":     fd.Type,
			"label":    fd.Label,
			"name":     fd.Name,
			"required": fd.Required,
		}
		if fd.Placeholder != "" {
			m["placeholder"] = fd.Placeholder
		}
		if len(fd.Options) > 0 {
			opts := make([]any, 0, len(fd.Options))
			for _, o := range fd.Options {
				opts = append(opts, map[string]any{"label": o.Label, "value": o.Value})
			}
			m["options"] = opts
		}
		fields = append(fields, m)
	}
	doc := store.Doc{
		"tenant":         f.Tenant,
		"name":           f.Name,
		"slug":           f.Slug,
		"status":         f.Status,
		"fields":         fields,
		"successMessage": f.SuccessMessage,
	}
	if f.RedirectURL != "" {
		doc["redirectUrl"] = f.RedirectURL
	}
	if f.NotifyEmail != "" {
		doc["notifyEmail"] = f.NotifyEmail
	}
	return doc
}

func (f *Form) Message() string {
	if f.SuccessMessage == "" {
		return DefaultSuccessMessage
	}
	return f.SuccessMessage
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// empty reports values a required field may not hold.
func empty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	}
	return false
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func isNumber(v any) bool {
	switch x := v.(type) {
	case float64, bool:
		return true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return true
		}
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}
	return false
}

// Validate checks data against the form's fields and returns one message
// per failing field, keyed by field name.
func (f *Form) Validate(data map[string]any) map[string]string {
	errs := map[string]string{}
	for _, field := range f.Fields {
		value := data[field.Name]

		if field.Required {
			if field.Type == TypeCheckbox {
				if b, ok := value.(bool); !ok || !b {
					errs[field.Name] = field.Label + " is required"
					continue
				}
			} else if empty(value) {
				errs[field.Name] = field.Label + " is required"
				continue
			}
		}
		if empty(value) {
			continue
		}

		switch field.Type {
		case TypeEmail:
			if !emailRe.MatchString(asString(value)) {
				errs[field.Name] = field.Label + " must be a valid email"
			}
		case TypeNumber:
			if !isNumber(value) {
				errs[field.Name] = field.Label + " must be a number"
			}
		case TypeSelect:
			valid := false
			for _, o := range field.Options {
				if o.Value == asString(value) {
					valid = true
					break
				}
			}
			if !valid {
				errs[field.Name] = field.Label + " has an invalid value"
			}
		}
	}
	return errs
}
