package fallback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgallion1/docoutline/internal/signals"
)

func TestTrain_SeedSamples(t *testing.T) {
	c, err := Train(SeedSamples)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if !c.IsHeading("Project Background", "", 10) {
		t.Error("expected background line to be a heading")
	}
	if c.IsHeading("Signature of applicant", "", 10) {
		t.Error("expected signature line not to be a heading")
	}
	if c.IsHeading("", "", 10) {
		t.Error("expected empty text to be rejected")
	}
}

func TestTrain_NeedsBothClasses(t *testing.T) {
	if _, err := Train([]Sample{{"Intro", true}}); err == nil {
		t.Error("expected error with a single class")
	}
}

func TestScore_Deterministic(t *testing.T) {
	c, err := Train(SeedSamples)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	a, b := c.Score("Scope of the proposal"), c.Score("Scope of the proposal")
	if a != b {
		t.Errorf("expected identical scores, got %v and %v", a, b)
	}
}

func TestLoadSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.yaml")
	body := "samples:\n  - text: Executive Summary\n    heading: true\n  - text: Mobile number\n    heading: false\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	samples, err := LoadSamples(path)
	if err != nil {
		t.Fatalf("LoadSamples: %v", err)
	}
	if len(samples) != 2 || !samples[0].Heading || samples[1].Text != "Mobile number" {
		t.Errorf("unexpected samples %+v", samples)
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("samples: []\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadSamples(empty); err == nil {
		t.Error("expected error for empty sample file")
	}
}

func TestChain_FallsBackToSecondary(t *testing.T) {
	c, err := Train(SeedSamples)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	p := Chain(signals.DefaultRules(), c)
	if !p.IsHeading("BUDGET", "", 9) {
		t.Error("expected rules to accept upper-case line")
	}
	if !p.IsHeading("project background", "", 9) {
		t.Error("expected classifier to rescue lower-case heading")
	}
	if p.IsHeading("date of signature", "", 9) {
		t.Error("expected field label to be rejected by both")
	}
}
