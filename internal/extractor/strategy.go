// Package extractor routes a document to the strategy for its archetype and
// turns the strategy's candidates into the final result.
package extractor

import (
	"log/slog"

	"github.com/dgallion1/docoutline/internal/archetype"
	"github.com/dgallion1/docoutline/internal/assemble"
	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/doctree"
	"github.com/dgallion1/docoutline/internal/fallback"
	"github.com/dgallion1/docoutline/internal/layout"
	"github.com/dgallion1/docoutline/internal/signals"
)

// Strategy extracts a title and heading candidates for one archetype.
// Candidate pages are 0-based.
type Strategy interface {
	Title(a *layout.Analysis) string
	Outline(a *layout.Analysis, title string) []doctree.Heading
}

// env is what every strategy shares.
type env struct {
	h        config.Heuristics
	fallback signals.HeadingPredicate
	log      *slog.Logger
}

func (e env) assembleOpts() assemble.Options {
	return assemble.Options{
		MaxGap:       e.h.MergeMaxGap,
		MaxSizeRatio: e.h.MergeMaxSizeRatio,
		Overlap:      e.h.NearDuplicateOverlap,
	}
}

// predicate returns rules with the given non-Latin word limit, chained to the
// statistical fallback when one is configured.
func (e env) predicate(nonLatinMaxWords int) signals.HeadingPredicate {
	var p signals.HeadingPredicate = signals.Rules{
		NonLatinMaxWords: nonLatinMaxWords,
		BoldMinSize:      e.h.BoldMinSize,
	}
	if e.fallback != nil {
		p = fallback.Chain(p, e.fallback)
	}
	return p
}

// ForArchetype returns the strategy for kind. Unknown kinds get the
// structured-document strategy.
func ForArchetype(kind archetype.Archetype, o Options) Strategy {
	e := env{h: o.Heuristics, fallback: o.Fallback, log: o.logger()}
	switch kind {
	case archetype.Form:
		return formStrategy{e}
	case archetype.RFP:
		return rfpStrategy{e}
	case archetype.Poster:
		return posterStrategy{e}
	case archetype.Invitation:
		return invitationStrategy{e}
	default:
		return structuredStrategy{e}
	}
}
