package render

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"tessera/blocks"
)

// Node is one rendered section.
type Node struct {
	Kind string
	HTML template.HTML
}

// Join concatenates rendered sections in order.
func Join(nodes []Node) template.HTML {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(string(n.HTML))
	}
	return template.HTML(b.String())
}

// Pipeline renders stored section lists for a tenant.
type Pipeline struct {
	registry *Registry
	dev      bool
	log      *zap.Logger
	warned   *warnSet
}

// NewPipeline builds the section renderer. In development unknown blocks
// show a visible placeholder and every problem is logged once.
func NewPipeline(registry *Registry, dev bool, log *zap.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		dev:      dev,
		log:      log,
		warned:   newWarnSet(maxWarnings),
	}
}

// RenderSections renders stored, in order, for tenant. It returns nil when
// no block produced output.
func (p *Pipeline) RenderSections(stored any, tenant string, pc PageContext) []Node {
	sections, _ := stored.([]any)
	if len(sections) == 0 {
		return nil
	}
	pc.Tenant = tenant

	var nodes []Node
	for i, raw := range sections {
		section, ok := raw.(map[string]any)
		if !ok || section == nil {
			p.warnOnce("invalid-section-"+strconv.Itoa(i), "skipping invalid section", zap.Int("index", i))
			continue
		}

		kind, _, ok := blocks.KindOf(section)
		if !ok {
			p.warnOnce("missing-blocktype-"+strconv.Itoa(i), "skipping section without block type", zap.Int("index", i))
			continue
		}

		if !p.registry.IsKnown(kind) {
			p.warnOnce("unknown-block-"+kind, "unknown block type", zap.String("blockType", kind))
			nodes = p.appendPlaceholder(nodes, kind)
			continue
		}

		if !strings.HasPrefix(kind, tenant+".") {
			p.warnOnce("tenant-mismatch-"+kind, "block type does not match tenant, skipping",
				zap.String("blockType", kind), zap.String("tenant", tenant))
			continue
		}

		fn, ok := p.registry.Resolve(kind)
		if !ok {
			p.warnOnce("no-renderer-"+kind, "no renderer for block type", zap.String("blockType", kind))
			nodes = p.appendPlaceholder(nodes, kind)
			continue
		}

		html, err := p.invoke(fn, section, pc)
		if err != nil {
			if p.dev {
				p.warnOnce("renderer-error-"+kind, "error rendering block",
					zap.String("blockType", kind), zap.Int("index", i), zap.Error(err))
			}
			continue
		}
		if html == "" {
			continue
		}
		nodes = append(nodes, Node{Kind: kind, HTML: html})
	}

	if len(nodes) == 0 {
		return nil
	}
	return nodes
}

// invoke runs a renderer behind a recover so a panicking block only loses
// itself.
func (p *Pipeline) invoke(fn Renderer, section map[string]any, pc PageContext) (html template.HTML, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("renderer panic: %v", r)
		}
	}()
	return fn(blocks.Decode(section), pc)
}

func (p *Pipeline) appendPlaceholder(nodes []Node, kind string) []Node {
	if !p.dev {
		return nodes
	}
	return append(nodes, Node{Kind: kind, HTML: unknownSection(kind)})
}

func (p *Pipeline) warnOnce(key, msg string, fields ...zap.Field) {
	if !p.dev || !p.warned.first(key) {
		return
	}
	p.log.Warn(msg, fields...)
}
