package frontend

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"tessera/blocks"
	"tessera/store"
)

type NavLink struct {
	Text      string
	URL       string
	NewWindow bool
}

type Header struct {
	Logo *blocks.Media
	Alt  string
}

type SocialLink struct {
	Platform string
	URL      string
}

type Footer struct {
	Copyright string
	Social    []SocialLink
}

// Chrome is the header, navigation and footer around every page.
type Chrome struct {
	Header Header
	Nav    []NavLink
	Footer Footer
}

// chromeOpts reads site chrome as the system: header, footer and menus
// carry no status and are public.
var chromeOpts = store.FindOptions{Depth: 1, OverrideAccess: true}

func (f *FrontendModule) loadChrome(ctx context.Context, tenant *Tenant) Chrome {
	var chrome Chrome
	base := "/@/" + tenant.Code

	header, err := f.store.FindOne(ctx, store.Headers, store.Filter{"tenant": tenant.ID}, chromeOpts)
	if err == nil {
		chrome.Header.Logo = blocks.SafeMedia(header["logo"])
		chrome.Header.Alt = blocks.SafeText(header["logoAlt"])
		if chrome.Header.Alt == "" {
			chrome.Header.Alt = tenant.Name
		}
		if menuID := header.String("navigationMenu"); menuID != "" {
			if menu, err := f.store.FindByID(ctx, store.NavigationMenus, menuID, chromeOpts); err == nil {
				chrome.Nav = f.navLinks(ctx, base, menu["items"])
			} else {
				f.log.Debug("navigation menu missing", zap.String("menu", menuID), zap.Error(err))
			}
		}
	}

	footer, err := f.store.FindOne(ctx, store.Footers, store.Filter{"tenant": tenant.ID}, chromeOpts)
	if err == nil {
		chrome.Footer.Copyright = blocks.SafeText(footer["copyrightText"])
		links, _ := footer["socialLinks"].([]any)
		for _, raw := range links {
			l, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if u := blocks.SafeURL(l["url"]); u != "" {
				chrome.Footer.Social = append(chrome.Footer.Social, SocialLink{Platform: blocks.SafeText(l["platform"]), URL: u})
			}
		}
	}
	return chrome
}

// navLinks resolves menu items. Internal items point at a page id; site
// relative URLs are placed under the tenant's base path.
func (f *FrontendModule) navLinks(ctx context.Context, base string, items any) []NavLink {
	list, _ := items.([]any)
	var out []NavLink
	for _, raw := range list {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		link := NavLink{Text: blocks.SafeText(item["label"]), NewWindow: blocks.SafeBool(item["openInNewTab"])}

		if item["type"] == "internal" {
			page, err := f.store.FindByID(ctx, store.Pages, blocks.SafeText(item["page"]), store.FindOptions{OverrideAccess: true})
			if err != nil {
				continue
			}
			link.URL = base + "/" + page.String("slug")
		} else {
			u := blocks.SafeText(item["url"])
			if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
				u = base + u
			}
			link.URL = blocks.SafeURL(u)
		}
		if link.URL != "" && link.Text != "" {
			out = append(out, link)
		}
	}
	return out
}
