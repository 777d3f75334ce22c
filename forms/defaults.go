package forms

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"tessera/store"
)

// DefaultForms returns the contact and registration forms every club
// tenant starts with.
func DefaultForms(tenantID string) []*Form {
	return []*Form{
		{
			Tenant: tenantID,
			Name:   "Contact Form",
			Slug:   "contact",
			Status: "active",
			Fields: []Field{
				{Type: TypeText, Label: "First name", Name: "firstName", Required: true, Placeholder: "Your first name"},
				{Type: TypeText, Label: "Last name", Name: "lastName", Required: true, Placeholder: "Your last name"},
				{Type: TypeEmail, Label: "Email", Name: "email", Required: true, Placeholder: "email@example.com"},
				{Type: TypeTel, Label: "Phone", Name: "phone", Placeholder: "+30 123 456 7890"},
				{Type: TypeText, Label: "Subject", Name: "subject", Required: true, Placeholder: "How can we help?"},
				{Type: TypeTextarea, Label: "Message", Name: "message", Required: true, Placeholder: "Write your message here..."},
			},
			SuccessMessage: "Thank you! Your message has been sent.",
		},
		{
			Tenant: tenantID,
			Name:   "Registration Form",
			Slug:   "registration",
			Status: "active",
			Fields: []Field{
				{Type: TypeText, Label: "Child's first name", Name: "childFirstName", Required: true},
				{Type: TypeText, Label: "Child's last name", Name: "childLastName", Required: true},
				{Type: TypeNumber, Label: "Age", Name: "age", Required: true},
				{Type: TypeText, Label: "Parent name", Name: "parentName", Required: true},
				{Type: TypeTel, Label: "Phone", Name: "phone", Required: true, Placeholder: "+30 123 456 7890"},
				{Type: TypeEmail, Label: "Email", Name: "email", Required: true, Placeholder: "email@example.com"},
				{Type: TypeSelect, Label: "Program", Name: "department", Required: true, Options: []Option{
					{Label: "Artistic Gymnastics", Value: "artistic"},
					{Label: "Rhythmic Gymnastics", Value: "rhythmic"},
					{Label: "Pre-competitive Groups", Value: "precompetitive"},
					{Label: "Children's Groups", Value: "children"},
					{Label: "Gymnastics for All", Value: "gfa"},
					{Label: "Adults Group GfA", Value: "adults"},
				}},
				{Type: TypeTextarea, Label: "Message", Name: "message"},
				{Type: TypeCheckbox, Label: "I accept the Terms of Use and Privacy Policy", Name: "terms", Required: true},
			},
			SuccessMessage: "Thank you! Your registration has been submitted.",
		},
	}
}

// EnsureDefaults creates the default forms a tenant is missing. Existing
// forms are left untouched.
func EnsureDefaults(ctx context.Context, st *store.Store, tenantID string, log *zap.Logger) (created int, err error) {
	for _, form := range DefaultForms(tenantID) {
		_, err := st.FindOne(ctx, store.Forms, store.Filter{"tenant": tenantID, "slug": form.Slug}, store.FindOptions{OverrideAccess: true})
		if err == nil {
			log.Info("form already exists", zap.String("slug", form.Slug))
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return created, err
		}
		doc, err := st.Create(ctx, store.Forms, form.Doc(), store.WriteOptions{OverrideAccess: true})
		if err != nil {
			return created, err
		}
		log.Info("form created", zap.String("slug", form.Slug), zap.String("id", doc.ID()))
		created++
	}
	return created, nil
}
