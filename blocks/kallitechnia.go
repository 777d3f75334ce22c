package blocks

// KallitechniaTenant is the code of the built-in gymnastics club tenant.
const KallitechniaTenant = "kallitechnia"

func text(name string, maxLength int) Field {
	return Field{Name: name, Type: FieldText, MaxLength: maxLength}
}

func textarea(name string, maxLength int) Field {
	return Field{Name: name, Type: FieldTextarea, MaxLength: maxLength}
}

func href(name string) Field {
	return Field{Name: name, Type: FieldText, URL: true}
}

func rich(name string) Field {
	return Field{Name: name, Type: FieldRichText}
}

func upload(name string) Field {
	return Field{Name: name, Type: FieldUpload}
}

func array(name string, items ...Field) Field {
	return Field{Name: name, Type: FieldArray, Fields: items}
}

func withDefault(f Field, v any) Field {
	f.Default = v
	return f
}

// KallitechniaKinds is the block catalog of the kallitechnia tenant.
func KallitechniaKinds() []Kind {
	return []Kind{
		{Name: "kallitechnia.hero", Label: "Hero", Fields: []Field{
			withDefault(text("title", 120), ""),
			withDefault(textarea("subtitle", 240), ""),
			upload("backgroundImage"),
			{Name: "hasCTA", Type: FieldCheckbox},
			withDefault(text("ctaLabel", 50), ""),
			withDefault(href("ctaUrl"), ""),
		}},
		{Name: "kallitechnia.welcome", Label: "Welcome", Fields: []Field{
			text("title", 0),
			array("paragraphs", rich("paragraph")),
			upload("image"),
		}},
		{Name: "kallitechnia.programsGrid", Label: "Programs Grid", Fields: []Field{
			text("title", 0),
			textarea("subtitle", 0),
			array("programs", upload("image"), text("title", 0), rich("description"), text("buttonLabel", 0), href("buttonUrl")),
		}},
		{Name: "kallitechnia.imageGallery", Label: "Image Gallery", Fields: []Field{
			{Name: "enableCaptions", Type: FieldCheckbox},
			withDefault(array("images", upload("image"), text("caption", 0)), []any{}),
		}},
		{Name: "kallitechnia.newsGrid", Label: "News Grid", Fields: []Field{
			text("title", 0),
			textarea("subtitle", 0),
			text("buttonLabel", 0),
			href("buttonUrl"),
			array("newsItems", upload("image"), text("date", 0), text("title", 0), textarea("excerpt", 0), text("readMoreLabel", 0), href("readMoreUrl")),
		}},
		{Name: "kallitechnia.newsList", Label: "News List", Fields: []Field{
			text("title", 0),
			textarea("subtitle", 0),
			{Name: "itemsPerPage", Type: FieldNumber, Default: 6},
			{Name: "showExcerpt", Type: FieldCheckbox},
			{Name: "showImage", Type: FieldCheckbox},
			text("buttonLabel", 0),
			href("buttonUrl"),
		}},
		{Name: "kallitechnia.sponsors", Label: "Sponsors", Fields: []Field{
			text("title", 0),
			textarea("subtitle", 0),
			array("sponsors", upload("logo"), text("name", 0), href("url")),
		}},
		{Name: "kallitechnia.cta", Label: "Call to Action", Fields: []Field{
			withDefault(text("title", 0), ""),
			withDefault(rich("description"), ""),
			withDefault(text("buttonLabel", 0), ""),
			withDefault(href("buttonUrl"), ""),
		}},
		{Name: "kallitechnia.richText", Label: "Rich Text", Fields: []Field{
			text("title", 0),
			textarea("subtitle", 0),
			withDefault(rich("content"), ""),
		}},
		{Name: "kallitechnia.quote", Label: "Quote", Fields: []Field{
			textarea("text", 0),
		}},
		{Name: "kallitechnia.slogan", Label: "Slogan", Fields: []Field{
			text("text", 0),
		}},
		{Name: "kallitechnia.imageText", Label: "Image and Text", Fields: []Field{
			text("title", 0),
			rich("content"),
			{Name: "imagePosition", Type: FieldSelect, Options: []string{"left", "right"}},
			upload("image"),
		}},
		{Name: "kallitechnia.programDetail", Label: "Program Detail", Fields: []Field{
			text("title", 0),
			rich("description"),
			{Name: "imagePosition", Type: FieldSelect, Options: []string{"left", "right"}},
			rich("additionalInfo"),
			upload("image"),
			array("schedule", text("day", 0), text("time", 0), text("level", 0)),
			text("coachName", 0),
			upload("coachPhoto"),
			text("coachStudies", 0),
			rich("coachBio"),
		}},
		{Name: "kallitechnia.form", Label: "Form", Fields: []Field{
			{Name: "form", Type: FieldRelationship, Required: true},
			text("title", 0),
			rich("description"),
		}},
		{Name: "kallitechnia.downloadButton", Label: "Download Button", Fields: []Field{
			text("title", 0),
			rich("description"),
			{Name: "buttonLabel", Type: FieldText},
			{Name: "fileUrl", Type: FieldText, URL: true, Required: true},
			text("fileName", 0),
		}},
		{Name: "kallitechnia.contactInfo", Label: "Contact Info", Fields: []Field{
			text("title", 0),
			array("items",
				Field{Name: "type", Type: FieldSelect, Required: true, Options: []string{"address", "phone", "email", "hours"}},
				text("label", 0),
				textarea("content", 0),
			),
		}},
		{Name: "kallitechnia.googleMap", Label: "Google Map", Fields: []Field{
			text("title", 0),
			{Name: "embedCode", Type: FieldTextarea, Required: true},
			{Name: "height", Type: FieldNumber},
		}},
		{Name: "kallitechnia.genericSection", Label: "Generic Section", Fields: []Field{
			{Name: "rawData", Type: FieldJSON},
		}},
	}
}

// NewDefaultCatalog returns a catalog holding the built-in tenants.
func NewDefaultCatalog() *Catalog {
	c := NewCatalog()
	for _, k := range KallitechniaKinds() {
		// built-in kinds always carry the tenant prefix
		_ = c.Register(KallitechniaTenant, k)
	}
	return c
}
