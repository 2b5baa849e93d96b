// Package match extracts quoted-phrase sentences containing a target phrase
// from article titles and bodies, and collapses near-duplicate candidates.
package match

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxMatchLen is the candidate length ceiling; anything at or
	// above it is treated as extraction noise and rejected outright.
	DefaultMaxMatchLen = 104

	// dupThreshold is the similarity score strictly above which a candidate
	// is considered a near-duplicate of an already accepted one.
	dupThreshold = 0.9

	// fallbackMaxLen is the length gate for the title fallback phrase.
	fallbackMaxLen = 110
)

// quoteRunes are the ASCII and typographic quote characters recognized by the
// asymmetric-quote stripping step.
const quoteRunes = `'"` + "‘’“”"

// fallbackAllowed gates the title fallback against markup and encoding
// artifacts leaking into printed output.
var fallbackAllowed = regexp.MustCompile(`^[a-zA-Z0-9\s?.!:;,'"$]*$`)

var boldTags = regexp.MustCompile(`(?i)</?b>`)

// Engine holds the strict/coarse pattern pair compiled for one match phrase.
type Engine struct {
	strict *regexp.Regexp
	coarse *regexp.Regexp
	scorer Scorer

	// MaxMatchLen overrides DefaultMaxMatchLen when set before use.
	MaxMatchLen int
}

// NewEngine compiles the extraction patterns for phrase. The strict pattern
// requires a sentence terminator; the coarse pattern is its fallback for
// sentences that do not end cleanly within the scanned window.
func NewEngine(phrase string, scorer Scorer) (*Engine, error) {
	p := regexp.QuoteMeta(phrase)
	strict, err := regexp.Compile(`(?i)[^?.!:; \s]*[a-z ']*` + p + `[^?.!;]*[?.!;]["']?`)
	if err != nil {
		return nil, fmt.Errorf("compile strict pattern: %w", err)
	}
	coarse, err := regexp.Compile(`(?i)[^?.!:; \s]*[a-z ']*` + p + `[^?.!;]*`)
	if err != nil {
		return nil, fmt.Errorf("compile coarse pattern: %w", err)
	}
	return &Engine{strict: strict, coarse: coarse, scorer: scorer, MaxMatchLen: DefaultMaxMatchLen}, nil
}

// Extract returns the deduplicated ordered list of phrase candidates found in
// the extracted article title and body. Title-derived matches precede
// body-derived ones; within each, pattern-scan order is preserved.
func (e *Engine) Extract(title, body string) []string {
	candidates := append(e.scan(title), e.scan(body)...)
	return e.dedupe(candidates)
}

// scan applies the strict pattern and falls back to the coarse one only when
// strict finds nothing.
func (e *Engine) scan(text string) []string {
	if m := e.strict.FindAllString(text, -1); m != nil {
		return m
	}
	return e.coarse.FindAllString(text, -1)
}

// dedupe post-processes candidates in order: length gate, asymmetric-quote
// stripping, then fuzzy dedup against everything already accepted. The scan
// order makes the result deterministic for a given input.
func (e *Engine) dedupe(candidates []string) []string {
	out := []string{}
	for _, c := range candidates {
		if utf8.RuneCountInString(c) >= e.MaxMatchLen {
			continue
		}
		c = strings.TrimSpace(stripAsymmetricQuote(c))
		if c == "" {
			continue
		}
		dup := false
		for _, kept := range out {
			if e.scorer.Score(c, kept) > dupThreshold {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, c)
		}
	}
	return out
}

// stripAsymmetricQuote removes a single unbalanced leading or trailing quote
// character. Symmetric quoting (both ends, or neither) is left intact.
func stripAsymmetricQuote(s string) string {
	if utf8.RuneCountInString(s) < 2 {
		return s
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	headQuoted := strings.ContainsRune(quoteRunes, first)
	tailQuoted := strings.ContainsRune(quoteRunes, last)
	if headQuoted == tailQuoted {
		return s
	}
	if headQuoted {
		return s[utf8.RuneLen(first):]
	}
	return s[:len(s)-utf8.RuneLen(last)]
}

// TitleFallback extracts a phrase from the feed-supplied title alone, for use
// when full-article extraction is unavailable. Bold tags are stripped first
// and surrounding quote characters are trimmed from the result.
func (e *Engine) TitleFallback(title string) string {
	m := e.scan(boldTags.ReplaceAllString(title, ""))
	if len(m) == 0 {
		return ""
	}
	s := strings.TrimSpace(m[0])
	s = strings.Trim(s, quoteRunes)
	return strings.TrimSpace(s)
}

// ValidFallback reports whether a title fallback phrase is printable: short
// enough and free of characters outside the permitted set.
func ValidFallback(s string) bool {
	if s == "" || utf8.RuneCountInString(s) >= fallbackMaxLen {
		return false
	}
	return fallbackAllowed.MatchString(s)
}

// Subsumed reports whether phrase is already contained in one of the accepted
// matches, after normalization.
func Subsumed(phrase string, accepted []string) bool {
	needle := normalizeForContainment(phrase)
	if needle == "" {
		return false
	}
	for _, m := range accepted {
		if strings.Contains(m, needle) {
			return true
		}
	}
	return false
}

// normalizeForContainment is the policy knob for the containment check:
// trailing sentence punctuation is stripped before the substring comparison.
func normalizeForContainment(s string) string {
	return strings.TrimRight(s, "?.!:;,")
}
