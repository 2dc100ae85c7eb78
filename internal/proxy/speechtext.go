package proxy

import (
	"regexp"
	"strings"
	"unicode"
)

// Model replies arrive as markdown aimed at a screen. Before synthesis they
// are rewritten into dictation form: markup and URLs go, vitals like 120/80
// are read as "120 over 80", and dosage shorthand is expanded so the voice
// says "500 milligrams" rather than spelling "mg".

var (
	fencedCodeRE = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRE = regexp.MustCompile("`[^`]*`")
	linkRE       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	urlRE        = regexp.MustCompile(`https?://\S+`)
	ratioRE      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)`)
	doseRE       = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mg|mcg|ml|kg|mmhg|bpm)\b`)
	celsiusRE    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°\s*C\b`)
	fahrenheitRE = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*°\s*F\b`)
	markerRE     = regexp.MustCompile("[*_#~`|\\\\<>/]+")
)

var spokenUnits = map[string]string{
	"mg":   "milligrams",
	"mcg":  "micrograms",
	"ml":   "milliliters",
	"kg":   "kilograms",
	"mmhg": "millimeters of mercury",
	"bpm":  "beats per minute",
}

// normalizeSpokenText rewrites a model reply for dictation. The result may be
// empty when the input had no speakable content.
func normalizeSpokenText(raw string) string {
	s := fencedCodeRE.ReplaceAllString(raw, " ")
	s = inlineCodeRE.ReplaceAllString(s, " ")
	s = linkRE.ReplaceAllString(s, "$1")
	s = urlRE.ReplaceAllString(s, " ")

	s = ratioRE.ReplaceAllString(s, "$1 over $2")
	s = doseRE.ReplaceAllStringFunc(s, func(m string) string {
		parts := doseRE.FindStringSubmatch(m)
		return parts[1] + " " + spokenUnits[strings.ToLower(parts[2])]
	})
	s = celsiusRE.ReplaceAllString(s, "$1 degrees Celsius")
	s = fahrenheitRE.ReplaceAllString(s, "$1 degrees Fahrenheit")

	s = markerRE.ReplaceAllString(s, " ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '‍' || r == '️' || r == '⃣':
			// Emoji modifiers.
		case unicode.IsControl(r) && !unicode.IsSpace(r):
		case unicode.In(r, unicode.So, unicode.Sm, unicode.Sk):
		default:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
