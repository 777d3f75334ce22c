package blocks

// Block is the typed view of a stored block. The concrete types are
// *Hero, *RichText, *ImageGallery, *CTA, *ImageText, *Quote, *Sponsors,
// *ContactInfo and *Opaque, which carries any other kind untouched.
type Block interface {
	Kind() string
	block()
}

// Base holds the fields every kind shares.
type Base struct {
	BlockType     string
	SchemaVersion int
	Deprecated    bool
}

func (b Base) Kind() string { return b.BlockType }
func (Base) block()         {}

type Hero struct {
	Base
	Title           string
	Subtitle        string
	BackgroundImage *Media
	HasCTA          bool
	CTALabel        string
	CTAURL          string
}

type RichText struct {
	Base
	Title    string
	Subtitle string
	Content  any
}

type GalleryImage struct {
	Image   *Media
	Caption string
}

type ImageGallery struct {
	Base
	Title          string
	EnableCaptions bool
	Images         []GalleryImage
}

type CTA struct {
	Base
	Title       string
	Description any
	ButtonLabel string
	ButtonURL   string
}

type ImageText struct {
	Base
	Title         string
	Content       any
	Image         *Media
	ImagePosition string
}

// Quote covers both the quote and the slogan kinds.
type Quote struct {
	Base
	Text string
}

type Sponsor struct {
	Logo *Media
	Name string
	URL  string
}

type Sponsors struct {
	Base
	Title    string
	Subtitle string
	Sponsors []Sponsor
}

type ContactItem struct {
	Type    string
	Label   string
	Content string
}

type ContactInfo struct {
	Base
	Title string
	Items []ContactItem
}

// Opaque is a block of a kind without a typed view. Fields is the stored
// block as is.
type Opaque struct {
	Base
	Fields map[string]any
}

// Decode builds the typed view of a stored block. The variant is picked by
// the unqualified kind name so every tenant's "hero" decodes to *Hero.
// Field values go through the Safe* readers; nothing here fails.
func Decode(fields map[string]any) Block {
	kind, _, _ := KindOf(fields)
	version, ok := toInt(fields[versionKey])
	if !ok {
		version = CurrentSchemaVersion
	}
	base := Base{BlockType: kind, SchemaVersion: version, Deprecated: SafeBool(fields[deprecatedKey])}

	switch NameOf(kind) {
	case "hero":
		return &Hero{
			Base:            base,
			Title:           SafeText(fields["title"]),
			Subtitle:        SafeText(fields["subtitle"]),
			BackgroundImage: SafeMedia(fields["backgroundImage"]),
			HasCTA:          SafeBool(fields["hasCTA"]),
			CTALabel:        SafeText(fields["ctaLabel"]),
			CTAURL:          SafeURL(fields["ctaUrl"]),
		}
	case "richText":
		return &RichText{
			Base:     base,
			Title:    SafeText(fields["title"]),
			Subtitle: SafeText(fields["subtitle"]),
			Content:  SafeRichText(fields["content"]),
		}
	case "imageGallery":
		g := &ImageGallery{
			Base:           base,
			Title:          SafeText(fields["title"]),
			EnableCaptions: SafeBool(fields["enableCaptions"]),
		}
		for _, item := range objects(fields["images"]) {
			img := SafeMedia(item["image"])
			if img == nil {
				continue
			}
			g.Images = append(g.Images, GalleryImage{Image: img, Caption: SafeText(item["caption"])})
		}
		return g
	case "cta":
		return &CTA{
			Base:        base,
			Title:       SafeText(fields["title"]),
			Description: SafeRichText(fields["description"]),
			ButtonLabel: SafeText(fields["buttonLabel"]),
			ButtonURL:   SafeURL(fields["buttonUrl"]),
		}
	case "imageText":
		pos := SafeText(fields["imagePosition"])
		if pos != "right" {
			pos = "left"
		}
		return &ImageText{
			Base:          base,
			Title:         SafeText(fields["title"]),
			Content:       SafeRichText(fields["content"]),
			Image:         SafeMedia(fields["image"]),
			ImagePosition: pos,
		}
	case "quote", "slogan":
		return &Quote{Base: base, Text: SafeText(fields["text"])}
	case "sponsors":
		s := &Sponsors{
			Base:     base,
			Title:    SafeText(fields["title"]),
			Subtitle: SafeText(fields["subtitle"]),
		}
		for _, item := range objects(fields["sponsors"]) {
			s.Sponsors = append(s.Sponsors, Sponsor{
				Logo: SafeMedia(item["logo"]),
				Name: SafeText(item["name"]),
				URL:  SafeURL(item["url"]),
			})
		}
		return s
	case "contactInfo":
		c := &ContactInfo{Base: base, Title: SafeText(fields["title"])}
		for _, item := range objects(fields["items"]) {
			c.Items = append(c.Items, ContactItem{
				Type:    SafeText(item["type"]),
				Label:   SafeText(item["label"]),
				Content: SafeText(item["content"]),
			})
		}
		return c
	}
	return &Opaque{Base: base, Fields: fields}
}

func objects(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
