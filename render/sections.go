package render

import (
	"bytes"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"tessera/blocks"
	"tessera/richtext"
)

var sectionTemplates = template.Must(template.New("sections").Funcs(template.FuncMap{
	"richtext": richtext.HTML,
}).Parse(`
{{define "hero"}}<section class="hero">
  {{- if .BackgroundImage}}{{with .BackgroundImage.URL}}<div class="hero-bg" style="background-image: url('{{.}}')"></div>{{end}}{{end}}
  <div class="hero-content">
    {{- with .Title}}<h1>{{.}}</h1>{{end}}
    {{- with .Subtitle}}<p>{{.}}</p>{{end}}
    {{- if and .CTALabel .CTAURL}}<a class="button" href="{{.CTAURL}}">{{.CTALabel}}</a>{{end}}
  </div>
</section>{{end}}

{{define "richText"}}<section class="rich-text">
  {{- with .Title}}<h2>{{.}}</h2>{{end}}
  {{- with .Subtitle}}<p class="subtitle">{{.}}</p>{{end}}
  {{richtext .Content}}
</section>{{end}}

{{define "imageGallery"}}<section class="gallery">
  {{- with .Title}}<h2>{{.}}</h2>{{end}}
  <div class="gallery-grid">
  {{- range .Images}}
    <figure>{{if .Image.URL}}<img src="{{.Image.URL}}" alt="{{.Image.Alt}}" loading="lazy">{{else}}<div class="missing-image">{{or .Image.Alt "Image not available"}}</div>{{end}}
    {{- if and $.EnableCaptions .Caption}}<figcaption>{{.Caption}}</figcaption>{{end}}</figure>
  {{- end}}
  </div>
</section>{{end}}

{{define "cta"}}<section class="cta">
  {{- with .Title}}<h2>{{.}}</h2>{{end}}
  {{richtext .Description}}
  {{- if .ButtonLabel}}{{if .ButtonURL}}<a class="button" href="{{.ButtonURL}}">{{.ButtonLabel}}</a>{{else}}<button disabled>{{.ButtonLabel}}</button>{{end}}{{end}}
</section>{{end}}

{{define "imageText"}}<section class="image-text image-{{.ImagePosition}}">
  {{- if .Image}}{{with .Image.URL}}<img src="{{.}}" alt="" loading="lazy">{{end}}{{end}}
  <div>{{with .Title}}<h2>{{.}}</h2>{{end}}{{richtext .Content}}</div>
</section>{{end}}

{{define "quote"}}<blockquote class="{{.Kind}}">{{.Text}}</blockquote>{{end}}

{{define "sponsors"}}<section class="sponsors">
  {{- with .Title}}<h2>{{.}}</h2>{{end}}
  {{- with .Subtitle}}<p>{{.}}</p>{{end}}
  <ul>
  {{- range .Sponsors}}
    <li>{{if .URL}}<a href="{{.URL}}">{{end}}{{if and .Logo .Logo.URL}}<img src="{{.Logo.URL}}" alt="{{.Name}}">{{else}}{{.Name}}{{end}}{{if .URL}}</a>{{end}}</li>
  {{- end}}
  </ul>
</section>{{end}}

{{define "contactInfo"}}<section class="contact-info">
  {{- with .Title}}<h2>{{.}}</h2>{{end}}
  <dl>
  {{- range .Items}}
    <dt class="contact-{{.Type}}">{{or .Label .Type}}</dt><dd>{{.Content}}</dd>
  {{- end}}
  </dl>
</section>{{end}}

{{define "unknown"}}<div class="unknown-block"><strong>Unknown Block Type:</strong> {{.}}<br><small>This block type is not registered in the renderer.</small></div>{{end}}
`))

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := sectionTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func unknownSection(kind string) template.HTML {
	html, err := execute("unknown", kind)
	if err != nil {
		return ""
	}
	return html
}

func renderHero(b blocks.Block, _ PageContext) (template.HTML, error) {
	h, ok := b.(*blocks.Hero)
	if !ok {
		return "", fmt.Errorf("hero renderer got %T", b)
	}
	if h.Title == "" && h.Subtitle == "" && (h.CTALabel == "" || h.CTAURL == "") {
		return "", nil
	}
	return execute("hero", h)
}

func renderRichText(b blocks.Block, _ PageContext) (template.HTML, error) {
	r, ok := b.(*blocks.RichText)
	if !ok {
		return "", fmt.Errorf("richText renderer got %T", b)
	}
	if r.Title == "" && r.Subtitle == "" && len(richtext.Children(r.Content)) == 0 {
		return "", nil
	}
	return execute("richText", r)
}

func renderImageGallery(b blocks.Block, _ PageContext) (template.HTML, error) {
	g, ok := b.(*blocks.ImageGallery)
	if !ok {
		return "", fmt.Errorf("imageGallery renderer got %T", b)
	}
	if len(g.Images) == 0 {
		return "", nil
	}
	return execute("imageGallery", g)
}

func renderCTA(b blocks.Block, _ PageContext) (template.HTML, error) {
	c, ok := b.(*blocks.CTA)
	if !ok {
		return "", fmt.Errorf("cta renderer got %T", b)
	}
	if c.Title == "" && c.ButtonLabel == "" && len(richtext.Children(c.Description)) == 0 {
		return "", nil
	}
	return execute("cta", c)
}

func renderImageText(b blocks.Block, _ PageContext) (template.HTML, error) {
	it, ok := b.(*blocks.ImageText)
	if !ok {
		return "", fmt.Errorf("imageText renderer got %T", b)
	}
	if it.Title == "" && it.Image == nil && len(richtext.Children(it.Content)) == 0 {
		return "", nil
	}
	return execute("imageText", it)
}

func renderQuote(b blocks.Block, _ PageContext) (template.HTML, error) {
	q, ok := b.(*blocks.Quote)
	if !ok {
		return "", fmt.Errorf("quote renderer got %T", b)
	}
	if q.Text == "" {
		return "", nil
	}
	return execute("quote", struct {
		Kind string
		Text string
	}{blocks.NameOf(q.Kind()), q.Text})
}

func renderSponsors(b blocks.Block, _ PageContext) (template.HTML, error) {
	s, ok := b.(*blocks.Sponsors)
	if !ok {
		return "", fmt.Errorf("sponsors renderer got %T", b)
	}
	if len(s.Sponsors) == 0 {
		return "", nil
	}
	return execute("sponsors", s)
}

func renderContactInfo(b blocks.Block, _ PageContext) (template.HTML, error) {
	c, ok := b.(*blocks.ContactInfo)
	if !ok {
		return "", fmt.Errorf("contactInfo renderer got %T", b)
	}
	if len(c.Items) == 0 {
		return "", nil
	}
	return execute("contactInfo", c)
}

// StandardRenderers returns the built-in renderers qualified for tenant.
func StandardRenderers(tenant string) map[string]Renderer {
	byName := map[string]Renderer{
		"hero":         renderHero,
		"richText":     renderRichText,
		"imageGallery": renderImageGallery,
		"cta":          renderCTA,
		"imageText":    renderImageText,
		"quote":        renderQuote,
		"slogan":       renderQuote,
		"sponsors":     renderSponsors,
		"contactInfo":  renderContactInfo,
	}
	out := make(map[string]Renderer, len(byName))
	for name, fn := range byName {
		out[tenant+"."+name] = fn
	}
	return out
}

// NewDefaultRegistry registers the standard renderers for every tenant in
// catalog.
func NewDefaultRegistry(catalog *blocks.Catalog, log *zap.Logger) *Registry {
	r := NewRegistry(catalog, log)
	for _, tenant := range catalog.Tenants() {
		r.RegisterTenant(tenant, StandardRenderers(tenant))
	}
	return r
}
