package signals

// HeadingPredicate decides whether a line reads as a heading. Rules is the
// default implementation; a statistical classifier can stand in for it.
type HeadingPredicate interface {
	IsHeading(text, font string, size float64) bool
}

// HeadingFunc adapts a plain function to HeadingPredicate.
type HeadingFunc func(text, font string, size float64) bool

func (f HeadingFunc) IsHeading(text, font string, size float64) bool { return f(text, font, size) }
