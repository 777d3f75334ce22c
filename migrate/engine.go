// Package migrate runs repair passes over stored content. A run scans whole
// collections page by page, computes each document's repaired fields in
// memory and writes a document back only when something changed, so every
// pass can be run again at no cost.
package migrate

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"tessera/store"
)

const DefaultBatchSize = 100

// TargetKind says what a target field holds.
type TargetKind int

const (
	// SectionList fields hold an ordered list of blocks.
	SectionList TargetKind = iota
	// RichTextField fields hold a single rich-text document.
	RichTextField
)

type Target struct {
	Collection string
	Field      string
	Kind       TargetKind
}

// DefaultTargets are the fields holding block content or rich text.
var DefaultTargets = []Target{
	{Collection: store.Pages, Field: "sections", Kind: SectionList},
	{Collection: store.Homepages, Field: "sections", Kind: SectionList},
	{Collection: store.Posts, Field: "content", Kind: RichTextField},
}

type Options struct {
	BatchSize int
	// StartPage resumes an interrupted scan; 1-based.
	StartPage int
}

// ChangeFunc is called after a document was rewritten.
type ChangeFunc func(ctx context.Context, collection string, doc store.Doc)

type Stats struct {
	Collection string
	Migrated   int
	Skipped    int
	Failed     int
}

type Report []Stats

func (r Report) Migrated() int {
	total := 0
	for _, s := range r {
		total += s.Migrated
	}
	return total
}

func (r Report) Failed() int {
	total := 0
	for _, s := range r {
		total += s.Failed
	}
	return total
}

type Engine struct {
	store    *store.Store
	log      *zap.Logger
	opts     Options
	OnChange ChangeFunc
}

func NewEngine(st *store.Store, log *zap.Logger, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.StartPage < 1 {
		opts.StartPage = 1
	}
	return &Engine{store: st, log: log, opts: opts}
}

// Run applies pass to every target. Targets on the same collection are
// handled in one scan so each document is written at most once. A failing
// read stops the run; failing writes are logged and counted.
func (e *Engine) Run(ctx context.Context, pass Pass, targets []Target) (Report, error) {
	var (
		order  []string
		fields = map[string][]Target{}
	)
	for _, t := range targets {
		if _, seen := fields[t.Collection]; !seen {
			order = append(order, t.Collection)
		}
		fields[t.Collection] = append(fields[t.Collection], t)
	}

	report := make(Report, 0, len(order))
	for _, collection := range order {
		stats, err := e.runCollection(ctx, pass, collection, fields[collection])
		report = append(report, stats)
		e.log.Info(fmt.Sprintf("%s: %d migrated, %d skipped", collection, stats.Migrated, stats.Skipped),
			zap.String("pass", pass.Name),
			zap.Int("failed", stats.Failed))
		if err != nil {
			return report, err
		}
	}
	return report, nil
}

func (e *Engine) runCollection(ctx context.Context, pass Pass, collection string, targets []Target) (Stats, error) {
	stats := Stats{Collection: collection}
	for page := e.opts.StartPage; ; page++ {
		res, err := e.store.Find(ctx, collection, nil, store.FindOptions{
			Limit:          e.opts.BatchSize,
			Page:           page,
			Depth:          0,
			OverrideAccess: true,
		})
		if err != nil {
			return stats, fmt.Errorf("scan %s page %d: %w", collection, page, err)
		}
		if len(res.Docs) == 0 {
			return stats, nil
		}

		for _, doc := range res.Docs {
			patch, err := repair(pass, doc, targets)
			if err != nil {
				stats.Failed++
				e.log.Error("failed to repair document",
					zap.String("collection", collection),
					zap.String("id", doc.ID()),
					zap.Error(err))
				continue
			}
			if len(patch) == 0 {
				stats.Skipped++
				continue
			}
			updated, err := e.store.Update(ctx, collection, doc.ID(), patch, store.WriteOptions{OverrideAccess: true})
			if err != nil {
				stats.Failed++
				e.log.Error("failed to update document",
					zap.String("collection", collection),
					zap.String("id", doc.ID()),
					zap.Error(err))
				continue
			}
			stats.Migrated++
			e.log.Debug("document migrated", zap.String("collection", collection), zap.String("id", doc.ID()))
			if e.OnChange != nil {
				e.OnChange(ctx, collection, updated)
			}
		}

		if !res.HasNextPage {
			return stats, nil
		}
	}
}

// repair returns the target fields of doc that pass changed.
func repair(pass Pass, doc store.Doc, targets []Target) (store.Doc, error) {
	patch := store.Doc{}
	for _, t := range targets {
		value, present := doc[t.Field]
		if !present || value == nil {
			continue
		}
		next := apply(pass, t.Kind, value)

		before, err := fingerprint(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Field, err)
		}
		after, err := fingerprint(next)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Field, err)
		}
		if before != after {
			patch[t.Field] = next
		}
	}
	return patch, nil
}

func apply(pass Pass, kind TargetKind, value any) any {
	switch kind {
	case SectionList:
		sections, ok := value.([]any)
		if !ok || pass.Block == nil {
			return value
		}
		out := make([]any, len(sections))
		for i, section := range sections {
			block, ok := section.(map[string]any)
			if !ok {
				out[i] = section
				continue
			}
			out[i] = pass.Block(block)
		}
		return out
	case RichTextField:
		if pass.Field == nil {
			return value
		}
		return pass.Field(value)
	}
	return value
}

// fingerprint hashes the JSON form of v. Map keys are encoded sorted, so
// equal values always hash the same.
func fingerprint(v any) (uint64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(data), nil
}
