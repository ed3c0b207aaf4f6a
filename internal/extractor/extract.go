package extractor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/docoutline/internal/archetype"
	"github.com/dgallion1/docoutline/internal/assemble"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/signals"
)

// Options configures one extraction.
type Options struct {
	Heuristics config.Heuristics
	// Fallback, when set, is consulted for lines the rules reject.
	Fallback signals.HeadingPredicate
	// Archetype forces a strategy; empty means detect.
	Archetype archetype.Archetype
	Logger    *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Outcome is the result of one extraction plus what was learned on the way.
type Outcome struct {
	Result     doctree.Result
	Archetype  archetype.Archetype
	Pages      int
	Unreadable []int // 0-based indices of pages the provider could not read
	Dropped    int   // entries removed by validation
}

// Detect classifies src without extracting it.
func Detect(ctx context.Context, src doctree.Source) (archetype.Archetype, error) {
	a, err := layout.Analyze(ctx, limitPages{src, archetype.SamplePages}, nil)
	if err != nil {
		return "", err
	}
	return archetype.Detect(a.Sample(archetype.SamplePages)), nil
}

// limitPages exposes only the first n pages of a source.
type limitPages struct {
	doctree.Source
	n int
}

func (l limitPages) NumPages() int { return min(l.Source.NumPages(), l.n) }

// Extract runs the full pipeline on one document. It checks ctx between
// stages; a done context abandons the document with ctx.Err().
func Extract(ctx context.Context, src doctree.Source, o Options) (*Outcome, error) {
	log := o.logger()
	e := env{h: o.Heuristics, fallback: o.Fallback, log: log}

	a, err := layout.Analyze(ctx, src, e.predicate(o.Heuristics.NonLatinMaxWords))
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	for _, i := range a.UnreadablePages() {
		log.Warn("page unreadable, skipped", "page", i+1, "error", a.Pages[i].Err)
	}

	kind := o.Archetype
	if kind == "" {
		kind = archetype.Detect(a.Sample(archetype.SamplePages))
	}
	log.Debug("archetype", "kind", string(kind))
	s := ForArchetype(kind, o)

	t := s.Title(a)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}
	hs := s.Outline(a, t)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}

	res, dropped := assemble.Finalize(t, hs)
	if dropped > 0 {
		log.Warn("invalid outline entries dropped", "count", dropped)
	}
	return &Outcome{
		Result:     res,
		Archetype:  kind,
		Pages:      len(a.Pages),
		Unreadable: a.UnreadablePages(),
		Dropped:    dropped,
	}, nil
}
