package title

import (
	"context"
	"testing"

	"github.com/dgallion1/docoutline/internal/config"
	dt "github.com/dgallion1/docoutline/internal/doctree/doctreetest"
	"github.com/dgallion1/docoutline/internal/layout"
)

func analyze(t *testing.T, doc *dt.Doc) *layout.Analysis {
	t.Helper()
	a, err := layout.Analyze(context.Background(), doc, nil)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}

func TestGeneric_StopsAtMetadataLine(t *testing.T) {
	doc := dt.New().AddPage(
		dt.L(60, 24, "Overview of the"),
		dt.L(90, 24, "Foundation Level"),
		dt.L(120, 24, "Extensions Syllabus"),
		dt.L(160, 10, "Copyright 2020"),
		dt.L(180, 10, "International Software Testing Board"),
	)
	got := Generic(analyze(t, doc), config.DefaultHeuristics())
	if want := "Overview of the Foundation Level Extensions Syllabus"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGeneric_StopsAtSizeBreak(t *testing.T) {
	doc := dt.New().AddPage(
		dt.L(60, 24, "Quarterly Business"),
		dt.L(90, 23.5, "Review Meeting"),
		dt.L(130, 12, "Prepared for the board"),
	)
	got := Generic(analyze(t, doc), config.DefaultHeuristics())
	if want := "Quarterly Business Review Meeting"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestGeneric_SkipsBoilerplateBeforeTitle(t *testing.T) {
	doc := dt.New().AddPage(
		dt.L(30, 8, "Version 1.2"),
		dt.L(30.5, 8, "www.example.org"),
		dt.L(60, 20, "Migration Handbook"),
	)
	if got := Generic(analyze(t, doc), config.DefaultHeuristics()); got != "Migration Handbook" {
		t.Errorf("unexpected title %q", got)
	}
}

func TestGeneric_IgnoresBottomQuarter(t *testing.T) {
	doc := dt.New().AddPage(dt.L(700, 20, "Footer Heading Text"))
	doc.Title = "Metadata Title"
	if got := Generic(analyze(t, doc), config.DefaultHeuristics()); got != "Metadata Title" {
		t.Errorf("expected metadata fallback, got %q", got)
	}
}

func TestFallback_Order(t *testing.T) {
	doc := dt.New().AddPage(dt.L(700, 10, "12345"), dt.L(720, 10, "Closing remarks section"))
	doc.Title = "abc"
	if got := Fallback(analyze(t, doc)); got != "Closing remarks section" {
		t.Errorf("expected first meaningful line, got %q", got)
	}

	empty := dt.New().AddPage()
	if got := Generic(analyze(t, empty), config.DefaultHeuristics()); got != Untitled {
		t.Errorf("expected sentinel, got %q", got)
	}
	if got := Generic(analyze(t, dt.New()), config.DefaultHeuristics()); got != Untitled {
		t.Errorf("expected sentinel for zero pages, got %q", got)
	}
}

func TestForm_SkipsFieldLabelsAndDigits(t *testing.T) {
	doc := dt.New().AddPage(
		dt.L(20, 8, "Microsoft Word - form.doc"),
		dt.L(40, 12, "Form No 17"),
		dt.L(60, 12, "Name of the applicant"),
		dt.L(80, 14, "Application for Grant of Leave Travel Concession"),
	)
	if got := Form(analyze(t, doc)); got != "Application for Grant of Leave Travel Concession" {
		t.Errorf("unexpected form title %q", got)
	}
	if got := Form(analyze(t, dt.New().AddPage(dt.L(20, 10, "Signature")))); got != UntitledForm {
		t.Errorf("expected form sentinel, got %q", got)
	}
}

func TestPoster_LargestSpan(t *testing.T) {
	doc := dt.New().AddPage(
		dt.L(50, 40, "Hi!"),
		dt.L(100, 30, "TopJump Trampoline Park"),
		dt.L(200, 12, "Parents welcome"),
	)
	if got := Poster(analyze(t, doc)); got != "TopJump Trampoline Park" {
		t.Errorf("unexpected poster title %q", got)
	}
	if got := Poster(analyze(t, dt.New().AddPage(dt.L(50, 40, "Hey")))); got != UntitledPoster {
		t.Errorf("expected poster sentinel, got %q", got)
	}
}

func TestInvitation_CenteredTopLines(t *testing.T) {
	doc := dt.New().AddPage(
		dt.L(40, 14, "left aligned note"),
		dt.C(60, 24, "You Are Invited"),
		dt.C(100, 8, "tiny centred print"),
		dt.C(140, 18, "Annual Gala Night"),
		dt.C(180, 18, "Third Centred Line"),
		dt.C(500, 20, "Far Below"),
	)
	want := "You Are Invited | Annual Gala Night"
	if got := Invitation(analyze(t, doc), config.DefaultHeuristics()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := Invitation(analyze(t, dt.New().AddPage(dt.L(40, 14, "left"))), config.DefaultHeuristics()); got != UntitledInvitation {
		t.Errorf("expected invitation sentinel, got %q", got)
	}
}

func TestRFP_LargestTopLines(t *testing.T) {
	doc := dt.New().AddPage(
		dt.L(40, 10, "March 21, 2003"),
		dt.L(80, 20, "Request for Proposal"),
		dt.L(110, 19.5, "Digital Library Services"),
		dt.L(150, 12, "Issued by the steering committee"),
		dt.L(500, 28, "Appendix Heading"),
	)
	want := "Request for Proposal Digital Library Services"
	if got := RFP(analyze(t, doc), config.DefaultHeuristics()); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if got := RFP(analyze(t, dt.New()), config.DefaultHeuristics()); got != UntitledRFP {
		t.Errorf("expected RFP sentinel, got %q", got)
	}
}
