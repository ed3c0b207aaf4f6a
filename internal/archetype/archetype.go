// Package archetype classifies a document into a coarse layout type from a
// sample of its opening text.
package archetype

import "strings"

// Archetype selects an extraction strategy.
type Archetype string

const (
	Form       Archetype = "form"
	RFP        Archetype = "rfp"
	Poster     Archetype = "poster"
	Invitation Archetype = "invitation"
	Structured Archetype = "structured_document"
)

// SamplePages is how many leading pages feed Detect.
const SamplePages = 3

// rules are checked in order; the first archetype with a matching keyword wins.
var rules = []struct {
	kind     Archetype
	keywords []string
}{
	{Form, []string{"ltc advance", "application for grant", "application form for"}},
	{RFP, []string{"rfp", "request for proposal"}},
	{Poster, []string{"mission statement", "elective course"}},
	{Invitation, []string{"rsvp", "you are invited"}},
}

// Detect matches a lower-cased text sample against fixed keyword sets.
func Detect(sample string) Archetype {
	sample = strings.ToLower(sample)
	for _, r := range rules {
		for _, k := range r.keywords {
			if strings.Contains(sample, k) {
				return r.kind
			}
		}
	}
	return Structured
}

// Parse maps a name back to an archetype.
func Parse(s string) (Archetype, bool) {
	switch a := Archetype(strings.ToLower(strings.TrimSpace(s))); a {
	case Form, RFP, Poster, Invitation, Structured:
		return a, true
	}
	return "", false
}
