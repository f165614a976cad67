// Package normalize cleans raw extracted text independent of how it was
// extracted. Its passes collapse whitespace artifacts, strip control
// characters, re-join words broken by line-end hyphenation, and fold
// Unicode punctuation variants, while never altering semantic content: no
// summarization, no reordering.
//
// Every pass is idempotent, so normalizing already-normalized text is a
// no-op. Each NormalizedText records which passes changed the text, for
// auditability.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/lectern/model"
)

// Pass names recorded in NormalizedText.Applied, in application order.
const (
	PassNewlines    = "normalize-newlines"
	PassControls    = "strip-controls"
	PassNFC         = "unicode-nfc"
	PassPunctuation = "fold-punctuation"
	PassWhitespace  = "collapse-whitespace"
	PassDehyphenate = "dehyphenate"
	PassTrim        = "trim"
)

var (
	// controlStripper removes control characters except newline and tab.
	// The Unicode replacement character goes with them: it is an encoding
	// artifact, not content.
	controlStripper = runes.Remove(runes.Predicate(func(r rune) bool {
		if r == '\n' || r == '\t' {
			return false
		}
		return unicode.IsControl(r) || r == '�'
	}))

	// punctuationFolder maps curly quotes, Unicode dashes, the ellipsis,
	// and the no-break space to their ASCII equivalents.
	punctuationFolder = strings.NewReplacer(
		"‘", "'", // left single quote
		"’", "'", // right single quote
		"‚", "'",
		"“", `"`, // left double quote
		"”", `"`, // right double quote
		"„", `"`,
		"–", "-", // en dash
		"—", "-", // em dash
		"−", "-", // minus sign
		"…", "...",
		" ", " ", // no-break space
	)

	// dehyphenRe matches a word broken across a line end by a hyphen.
	dehyphenRe = regexp.MustCompile(`(\p{L})-\n(\p{L})`)

	spaceRunRe    = regexp.MustCompile(`[ \t]+`)
	spacedBreakRe = regexp.MustCompile(` *\n *`)
	newlineRunRe  = regexp.MustCompile(`\n{3,}`)
)

// Normalizer cleans raw extracted text. The zero value is not usable; use
// New.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize derives the cleaned form of one extraction result. The output
// is deterministic: identical input always yields identical output.
func (n *Normalizer) Normalize(res model.ExtractionResult) model.NormalizedText {
	text, applied := n.Clean(res.Text)
	return model.NormalizedText{
		PageIndex: res.PageIndex,
		Text:      text,
		Applied:   applied,
	}
}

// Clean runs all passes over the text and returns the result together with
// the names of the passes that changed it.
func (n *Normalizer) Clean(text string) (string, []string) {
	var applied []string

	run := func(name string, pass func(string) string) {
		out := pass(text)
		if out != text {
			applied = append(applied, name)
			text = out
		}
	}

	run(PassNewlines, normalizeNewlines)
	run(PassControls, stripControls)
	run(PassNFC, func(s string) string { return norm.NFC.String(s) })
	run(PassPunctuation, punctuationFolder.Replace)
	run(PassWhitespace, collapseWhitespace)
	run(PassDehyphenate, dehyphenate)
	run(PassTrim, strings.TrimSpace)

	return text, applied
}

// normalizeNewlines folds CRLF and bare CR line endings to LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// stripControls removes control characters, keeping newline and tab.
func stripControls(s string) string {
	out, _, err := transform.String(controlStripper, s)
	if err != nil {
		return s
	}
	return out
}

// dehyphenate re-joins words broken across line ends by hyphenation. The
// hyphen and the line break are dropped; the following line's first word
// attaches to the stem.
func dehyphenate(s string) string {
	return dehyphenRe.ReplaceAllString(s, "$1$2")
}

// collapseWhitespace reduces runs of spaces and tabs to a single space,
// strips spaces around line breaks, and caps blank-line runs at one so
// paragraph breaks survive as exactly "\n\n".
func collapseWhitespace(s string) string {
	s = spaceRunRe.ReplaceAllString(s, " ")
	s = spacedBreakRe.ReplaceAllString(s, "\n")
	return newlineRunRe.ReplaceAllString(s, "\n\n")
}
