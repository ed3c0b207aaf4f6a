package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Heuristics holds the tunable thresholds of the extraction engine.
type Heuristics struct {
	TitleSizeDelta        float64  `yaml:"title_size_delta"`
	TitleTopFraction      float64  `yaml:"title_top_fraction"`
	MergeMaxGap           float64  `yaml:"merge_max_gap"`
	MergeMaxSizeRatio     float64  `yaml:"merge_max_size_ratio"`
	NearDuplicateOverlap  float64  `yaml:"near_duplicate_overlap"`
	BoldMinSize           float64  `yaml:"bold_min_size"`
	NonLatinMaxWords      int      `yaml:"non_latin_max_words"`
	RFPNonLatinMaxWords   int      `yaml:"rfp_non_latin_max_words"`
	BulletSkipWords       []string `yaml:"bullet_skip_words"`
	PosterDemoteY         float64  `yaml:"poster_demote_y"`
	PosterDemoteX         float64  `yaml:"poster_demote_x"`
	InvitationTopFraction float64  `yaml:"invitation_top_fraction"`
	CenterTolerance       float64  `yaml:"center_tolerance"`
	RFPTopFraction        float64  `yaml:"rfp_top_fraction"`
}

// DefaultHeuristics returns the built-in thresholds.
func DefaultHeuristics() Heuristics {
	h := Heuristics{}
	h.applyDefaults()
	return h
}

func (h *Heuristics) applyDefaults() {
	if h.TitleSizeDelta <= 0 {
		h.TitleSizeDelta = 1.0
	}
	if h.TitleTopFraction <= 0 {
		h.TitleTopFraction = 0.75
	}
	if h.MergeMaxGap <= 0 {
		h.MergeMaxGap = 30
	}
	if h.MergeMaxSizeRatio <= 0 {
		h.MergeMaxSizeRatio = 1.2
	}
	if h.NearDuplicateOverlap <= 0 {
		h.NearDuplicateOverlap = 0.8
	}
	if h.BoldMinSize <= 0 {
		h.BoldMinSize = 11
	}
	if h.NonLatinMaxWords <= 0 {
		h.NonLatinMaxWords = 10
	}
	if h.RFPNonLatinMaxWords <= 0 {
		h.RFPNonLatinMaxWords = 15
	}
	if h.BulletSkipWords == nil {
		h.BulletSkipWords = []string{"professionals", "junior"}
	}
	if h.PosterDemoteY <= 0 {
		h.PosterDemoteY = 460
	}
	if h.PosterDemoteX <= 0 {
		h.PosterDemoteX = 100
	}
	if h.InvitationTopFraction <= 0 {
		h.InvitationTopFraction = 0.35
	}
	if h.CenterTolerance <= 0 {
		h.CenterTolerance = 0.2
	}
	if h.RFPTopFraction <= 0 {
		h.RFPTopFraction = 0.4
	}
}

// Validate rejects thresholds that would break extraction.
func (h Heuristics) Validate() error {
	for name, v := range map[string]float64{
		"title_top_fraction":      h.TitleTopFraction,
		"invitation_top_fraction": h.InvitationTopFraction,
		"rfp_top_fraction":        h.RFPTopFraction,
		"near_duplicate_overlap":  h.NearDuplicateOverlap,
		"center_tolerance":        h.CenterTolerance,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %v", name, v)
		}
	}
	if h.MergeMaxSizeRatio < 1 {
		return fmt.Errorf("merge_max_size_ratio must be >= 1, got %v", h.MergeMaxSizeRatio)
	}
	return nil
}

// File is the YAML overlay. Zero values leave the environment's settings alone.
type File struct {
	InputDir   string        `yaml:"input_dir"`
	OutputDir  string        `yaml:"output_dir"`
	MaxPages   int           `yaml:"max_pages"`
	DocTimeout time.Duration `yaml:"doc_timeout"`
	LedgerPath string        `yaml:"ledger_path"`
	Heuristics Heuristics    `yaml:"heuristics"`
}

// LoadFile reads a YAML configuration file. Missing heuristics take defaults.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	f.Heuristics.applyDefaults()
	return &f, nil
}

// Apply overlays the file onto c.
func (f *File) Apply(c *Config) {
	if f.InputDir != "" {
		c.InputDir = f.InputDir
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.MaxPages > 0 {
		c.MaxPages = f.MaxPages
	}
	if f.DocTimeout > 0 {
		c.DocTimeout = f.DocTimeout
	}
	if f.LedgerPath != "" {
		c.LedgerPath = f.LedgerPath
	}
	c.Heuristics = f.Heuristics
}
