// Package fallback is an optional statistical heading classifier. It is a
// multinomial naive Bayes model over lower-cased word tokens, trained at
// start-up from a small labelled sample set.
package fallback

import (
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docoutline/internal/signals"
)

// Sample is one labelled line.
type Sample struct {
	Text    string `yaml:"text"`
	Heading bool   `yaml:"heading"`
}

// SeedSamples is the built-in training set.
var SeedSamples = []Sample{
	{"1. Introduction", true},
	{"2. Scope", true},
	{"Proposal Summary", true},
	{"Background", true},
	{"S.No", false},
	{"Name", false},
	{"Age", false},
	{"Date of joining", false},
	{"Signature of officer", false},
	{"Rs.", false},
}

type sampleFile struct {
	Samples []Sample `yaml:"samples"`
}

// LoadSamples reads labelled samples from a YAML file of the form
//
//	samples:
//	  - text: "1. Introduction"
//	    heading: true
func LoadSamples(path string) ([]Sample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read samples %s: %w", path, err)
	}
	var f sampleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse samples %s: %w", path, err)
	}
	if len(f.Samples) == 0 {
		return nil, fmt.Errorf("samples %s: no samples", path)
	}
	return f.Samples, nil
}

var tokenRe = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

func tokenize(s string) []string {
	return tokenRe.FindAllString(strings.ToLower(s), -1)
}

// Classifier is a trained model. It is read-only after Train and safe for
// concurrent use.
type Classifier struct {
	prior  [2]float64 // log P(class)
	counts [2]map[string]float64
	totals [2]float64
	vocab  int
}

// Train fits a classifier. Both classes must be represented.
func Train(samples []Sample) (*Classifier, error) {
	c := &Classifier{counts: [2]map[string]float64{{}, {}}}
	var docs [2]int
	vocab := make(map[string]bool)
	for _, s := range samples {
		k := class(s.Heading)
		docs[k]++
		for _, tok := range tokenize(s.Text) {
			c.counts[k][tok]++
			c.totals[k]++
			vocab[tok] = true
		}
	}
	if docs[0] == 0 || docs[1] == 0 {
		return nil, errors.New("train: need heading and non-heading samples")
	}
	n := float64(docs[0] + docs[1])
	for k := range docs {
		c.prior[k] = math.Log(float64(docs[k]) / n)
	}
	c.vocab = len(vocab)
	return c, nil
}

func class(heading bool) int {
	if heading {
		return 1
	}
	return 0
}

// Score returns log P(heading|text) - log P(body|text) up to a constant.
// Unseen tokens are ignored.
func (c *Classifier) Score(text string) float64 {
	var lp [2]float64
	lp[0], lp[1] = c.prior[0], c.prior[1]
	for _, tok := range tokenize(text) {
		if c.counts[0][tok] == 0 && c.counts[1][tok] == 0 {
			continue
		}
		for k := range lp {
			lp[k] += math.Log((c.counts[k][tok] + 1) / (c.totals[k] + float64(c.vocab)))
		}
	}
	return lp[1] - lp[0]
}

// IsHeading implements signals.HeadingPredicate. Font and size are ignored.
func (c *Classifier) IsHeading(text, _ string, _ float64) bool {
	if strings.TrimSpace(text) == "" || signals.WordCount(text) > 15 {
		return false
	}
	return c.Score(text) > 0
}

// Chain accepts a line when primary does and otherwise defers to secondary.
func Chain(primary, secondary signals.HeadingPredicate) signals.HeadingPredicate {
	return signals.HeadingFunc(func(text, font string, size float64) bool {
		return primary.IsHeading(text, font, size) || secondary.IsHeading(text, font, size)
	})
}
