// Package replace implements the casing-aware term replacer.
// Every case-insensitive occurrence of a target term is swapped for a
// replacement term whose letters copy the casing of the matched text,
// position by position.
package replace

import (
	"regexp"
	"strings"
	"unicode"

	"gitlab.com/tozd/go/errors"
)

// ErrEmptyTarget is returned by Pair.Validate when there is nothing to match.
var ErrEmptyTarget = errors.Base("target term is empty")

// Pair is the target/replacement configuration. Lengths may differ.
type Pair struct {
	Target      string `yaml:"target" json:"target"`
	Replacement string `yaml:"replacement" json:"replacement"`
}

// Validate reports whether the pair can produce any match.
func (p Pair) Validate() error {
	if p.Target == "" {
		return ErrEmptyTarget
	}
	return nil
}

// Replacer applies one Pair to arbitrary text. It is safe for concurrent use.
//
// Matching uses simple Unicode case folding rune by rune, so a match spans
// exactly the runes it compares equal and nothing around it. Invisible
// characters such as soft hyphens are never absorbed into a match.
type Replacer struct {
	pair    Pair
	pattern *regexp.Regexp // nil when the target is empty
}

// New creates a Replacer for the given pair.
func New(pair Pair) *Replacer {
	r := &Replacer{pair: pair}
	if pair.Target != "" {
		r.pattern = regexp.MustCompile("(?i)" + regexp.QuoteMeta(pair.Target))
	}
	return r
}

// Replace is a convenience wrapper for one-off replacements.
func Replace(text, target, replacement string) string {
	return New(Pair{Target: target, Replacement: replacement}).Replace(text)
}

// Replace returns text with every match of the target swapped for the
// casing-adjusted replacement.
func (r *Replacer) Replace(text string) string {
	out, _ := r.ReplaceCount(text)
	return out
}

// ReplaceCount is Replace plus the number of matches that were replaced.
// Matches are found left to right and never overlap.
func (r *Replacer) ReplaceCount(text string) (string, int) {
	if text == "" || r.pattern == nil {
		return text, 0
	}

	count := 0
	out := r.pattern.ReplaceAllStringFunc(text, func(match string) string {
		count++
		return mirrorCase(match, r.pair.Replacement)
	})
	if count == 0 {
		return text, 0
	}
	return out, count
}

// mirrorCase builds the output span for one match. The replacement decides
// the length; each rune takes the case of the matched rune at the same
// position, and keeps its own case where the match has no rune or the rune
// is uncased.
func mirrorCase(match, replacement string) string {
	src := []rune(match)
	var b strings.Builder
	b.Grow(len(replacement))
	for i, r := range []rune(replacement) {
		if i >= len(src) {
			b.WriteRune(r)
			continue
		}
		switch orig := src[i]; {
		case unicode.IsUpper(orig):
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsLower(orig):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
