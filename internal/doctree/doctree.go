package doctree

import "fmt"

// Rect is a box in page space. The origin is the top-left corner and y grows
// downward, so Y0 is the top edge.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Mid returns the horizontal midpoint.
func (r Rect) Mid() float64 { return (r.X0 + r.X1) / 2 }

// Fragment is a run of text sharing one font and size (a span).
type Fragment struct {
	Text string
	Font string
	Size float64
	Box  Rect
}

// Page is one page as delivered by a document model provider.
type Page struct {
	Index     int // 0-based
	Width     float64
	Height    float64
	Fragments []Fragment
	Text      string // plain text, used for keyword sampling
}

// Source is the contract a document model provider fulfils. Page indices are
// 0-based. A page that cannot be read returns an error; callers skip it.
type Source interface {
	NumPages() int
	Page(i int) (*Page, error)
	MetaTitle() string
}

// Line is one visual line: fragments sharing a top edge, left to right.
type Line struct {
	Text string
	Page int // 0-based
	Y    float64
	X0   float64
	X1   float64
	Font string
	Size float64
}

// Level is a heading depth, H1 through H4.
type Level int

const (
	H1 Level = iota + 1
	H2
	H3
	H4
)

// LevelOf clamps depth into H1..H4.
func LevelOf(depth int) Level {
	switch {
	case depth < 1:
		return H1
	case depth > 4:
		return H4
	}
	return Level(depth)
}

func (l Level) String() string { return fmt.Sprintf("H%d", int(l)) }

// Valid reports whether l is one of H1..H4.
func (l Level) Valid() bool { return l >= H1 && l <= H4 }

func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("invalid heading level %d", int(l))
	}
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(b []byte) error {
	var n int
	if _, err := fmt.Sscanf(string(b), "H%d", &n); err != nil || !Level(n).Valid() {
		return fmt.Errorf("invalid heading level %q", string(b))
	}
	*l = Level(n)
	return nil
}

// Heading is a candidate produced by an extractor, before assembly.
type Heading struct {
	Text  string
	Level Level
	Page  int // 0-based
	Size  float64
	Y     float64
}

// Entry is one outline item as written to output. Page is 1-based.
type Entry struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
	Page  int    `json:"page"`
}

// Result is the extraction output for one document.
type Result struct {
	Title   string  `json:"title"`
	Outline []Entry `json:"outline"`
}
