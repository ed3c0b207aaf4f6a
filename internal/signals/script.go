package signals

// Script is the writing system a line is set in.
type Script string

const (
	Latin      Script = "latin"
	Devanagari Script = "devanagari"
	Telugu     Script = "telugu"
)

// DetectScript returns the first non-Latin script found in s, scanning code
// points in order. Text with neither script is Latin.
func DetectScript(s string) Script {
	for _, r := range s {
		switch {
		case r >= 0x0900 && r <= 0x097F:
			return Devanagari
		case r >= 0x0C00 && r <= 0x0C7F:
			return Telugu
		}
	}
	return Latin
}

// isIndic reports whether r belongs to one of the supported non-Latin blocks.
func isIndic(r rune) bool {
	return (r >= 0x0900 && r <= 0x097F) || (r >= 0x0C00 && r <= 0x0C7F)
}
