package doctree

import (
	"errors"
	"fmt"
	"strings"
)

// ValidateEntry checks one outline entry. Pages are 1-based.
func ValidateEntry(e Entry) error {
	if !e.Level.Valid() {
		return fmt.Errorf("level %d out of range", int(e.Level))
	}
	if strings.TrimSpace(e.Text) == "" {
		return errors.New("empty text")
	}
	if e.Page < 1 {
		return fmt.Errorf("page %d below 1", e.Page)
	}
	return nil
}

// Validate checks the whole result. It reports every bad entry.
func (r *Result) Validate() error {
	if r == nil {
		return errors.New("nil result")
	}
	var errs []error
	for i, e := range r.Outline {
		if err := ValidateEntry(e); err != nil {
			errs = append(errs, fmt.Errorf("outline[%d]: %w", i, err))
		}
	}
	return errors.Join(errs...)
}

// Sanitize drops invalid entries and guarantees a non-nil outline so it
// serialises as an empty array. It returns the number of entries dropped.
func (r *Result) Sanitize() int {
	kept := make([]Entry, 0, len(r.Outline))
	for _, e := range r.Outline {
		if ValidateEntry(e) == nil {
			kept = append(kept, e)
		}
	}
	dropped := len(r.Outline) - len(kept)
	r.Outline = kept
	return dropped
}
