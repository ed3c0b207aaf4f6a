package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docoutline/internal/config"
	"github.com/dgallion1/docoutline/internal/extractor"
	"github.com/dgallion1/docoutline/internal/fallback"
)

// ExtractOptions builds extraction options from cfg, training the statistical
// fallback when it is enabled.
func ExtractOptions(cfg config.Config, log *slog.Logger) (extractor.Options, error) {
	o := extractor.Options{Heuristics: cfg.Heuristics, Logger: log}
	if !cfg.FallbackClassifier {
		return o, nil
	}

	samples := fallback.SeedSamples
	if cfg.FallbackSamples != "" {
		s, err := fallback.LoadSamples(cfg.FallbackSamples)
		if err != nil {
			return o, fmt.Errorf("fallback samples: %w", err)
		}
		samples = s
	}
	c, err := fallback.Train(samples)
	if err != nil {
		return o, fmt.Errorf("train fallback: %w", err)
	}
	o.Fallback = c
	return o, nil
}
