// Package syncpack reads sync packs, directory bundles describing a
// tenant's site, and imports them into the store. Pack files are JSON and
// may carry comments and trailing commas.
package syncpack

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"tessera/media"
)

var ErrMissingSite = errors.New("sync pack has no site.json")

const (
	SiteFile     = "site.json"
	HeaderFile   = "header.json"
	FooterFile   = "footer.json"
	MenuFile     = "menu.json"
	AssetsFile   = "assets-list.json"
	ManifestFile = "manifest.json"
	PagesDir     = "pages"
	PostsDir     = "posts"

	// HomeSlug is the page file that becomes the tenant's homepage.
	HomeSlug = "home"

	DefaultMenuTitle = "Main Navigation"
)

type Site struct {
	Tenant      string   `json:"tenant"`
	ProjectName string   `json:"projectName"`
	Domains     []string `json:"domains"`
}

type Link struct {
	Href  string `json:"href"`
	Label string `json:"label"`
}

type Header struct {
	Logo           string `json:"logo,omitempty"`
	LogoAlt        string `json:"logoAlt,omitempty"`
	NavigationMenu []Link `json:"navigationMenu,omitempty"`
}

type SocialLink struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

type Footer struct {
	CopyrightText string       `json:"copyrightText,omitempty"`
	SocialLinks   []SocialLink `json:"socialLinks,omitempty"`
	FooterMenus   []any        `json:"footerMenus,omitempty"`
}

type Menu struct {
	MenuTitle string `json:"menuTitle"`
	Items     []Link `json:"items"`
}

type SEO struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type Page struct {
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	SEO    *SEO   `json:"seo,omitempty"`
	Blocks []any  `json:"blocks"`
}

// Post is a markdown file under posts/, optionally opened by a YAML front
// matter block.
type Post struct {
	Slug    string `yaml:"slug"`
	Title   string `yaml:"title"`
	Excerpt string `yaml:"excerpt"`
	Status  string `yaml:"status"`
	Body    []byte `yaml:"-"`
}

type Counts struct {
	Pages  int `json:"pages"`
	Blocks int `json:"blocks"`
	Assets int `json:"assets"`
}

type Manifest struct {
	Warnings    []string  `json:"warnings"`
	Counts      Counts    `json:"counts"`
	GeneratedAt time.Time `json:"generatedAt"`
}

type Pack struct {
	Dir      string
	Site     Site
	Header   Header
	Footer   Footer
	Menu     Menu
	Pages    map[string]*Page
	Posts    []*Post
	Assets   []media.Asset
	Manifest *Manifest
	// Warnings collects problems with optional files.
	Warnings []string
}

// PageSlugs returns the page keys in a stable order.
func (p *Pack) PageSlugs() []string {
	slugs := make([]string, 0, len(p.Pages))
	for slug := range p.Pages {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// Parse decodes one JSONC document into v.
func Parse(data []byte, v any) error {
	return json.Unmarshal(jsonc.ToJSON(data), v)
}

func readFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := Parse(data, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

// readOptional reads path into v. A missing file leaves v as is; a broken
// one is recorded as a warning.
func (p *Pack) readOptional(name string, v any) {
	err := readFile(filepath.Join(p.Dir, name), v)
	switch {
	case err == nil, errors.Is(err, fs.ErrNotExist):
	default:
		p.Warnings = append(p.Warnings, err.Error())
	}
}

// Load reads the pack in dir. Only site.json is required.
func Load(dir string) (*Pack, error) {
	p := &Pack{Dir: dir, Pages: map[string]*Page{}}

	if err := readFile(filepath.Join(dir, SiteFile), &p.Site); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingSite, dir)
		}
		return nil, err
	}

	p.readOptional(HeaderFile, &p.Header)
	p.readOptional(FooterFile, &p.Footer)
	p.readOptional(MenuFile, &p.Menu)
	if p.Menu.MenuTitle == "" {
		p.Menu.MenuTitle = DefaultMenuTitle
	}
	p.readOptional(AssetsFile, &p.Assets)

	var manifest Manifest
	if _, err := os.Stat(filepath.Join(dir, ManifestFile)); err == nil {
		p.readOptional(ManifestFile, &manifest)
		p.Manifest = &manifest
	}

	if err := p.loadPages(); err != nil {
		return nil, err
	}
	if err := p.loadPosts(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pack) loadPages() error {
	entries, err := os.ReadDir(filepath.Join(p.Dir, PagesDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		var page Page
		if err := readFile(filepath.Join(p.Dir, PagesDir, name), &page); err != nil {
			p.Warnings = append(p.Warnings, err.Error())
			continue
		}
		key := strings.TrimSuffix(name, ".json")
		if page.Slug == "" {
			page.Slug = key
		}
		p.Pages[key] = &page
	}
	return nil
}

func (p *Pack) loadPosts() error {
	entries, err := os.ReadDir(filepath.Join(p.Dir, PostsDir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(p.Dir, PostsDir, name))
		if err != nil {
			return err
		}
		post, err := parsePost(data)
		if err != nil {
			p.Warnings = append(p.Warnings, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		if post.Slug == "" {
			post.Slug = strings.TrimSuffix(name, ".md")
		}
		if post.Title == "" {
			post.Title = post.Slug
		}
		p.Posts = append(p.Posts, post)
	}
	return nil
}

var frontMatterFence = []byte("---")

// parsePost splits an optional YAML front matter block off a markdown file.
func parsePost(data []byte) (*Post, error) {
	post := &Post{}
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	if !bytes.HasPrefix(data, frontMatterFence) {
		post.Body = data
		return post, nil
	}
	rest := bytes.TrimLeft(data[len(frontMatterFence):], " \t")
	rest = bytes.TrimPrefix(bytes.TrimPrefix(rest, []byte("\r")), []byte("\n"))
	end := bytes.Index(rest, append([]byte("\n"), frontMatterFence...))
	if end < 0 {
		return nil, fmt.Errorf("unterminated front matter")
	}
	if err := yaml.Unmarshal(rest[:end], post); err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	body := rest[end+1+len(frontMatterFence):]
	post.Body = bytes.TrimLeft(body, "\r\n")
	return post, nil
}
