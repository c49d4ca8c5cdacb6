// Package slug derives filesystem-safe, human-readable tokens from record titles.
package slug

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/adr/internal/apperr"
)

// Case selects how token casing is treated.
type Case string

const (
	// Acronym lowercases every token except all-uppercase tokens such as "ADR".
	Acronym Case = "acronym"
	// Preserve keeps the casing of the title verbatim.
	Preserve Case = "preserve"
	// Lower forces every token to lowercase.
	Lower Case = "lower"
)

// Cases lists the accepted casing policies.
var Cases = []Case{Acronym, Preserve, Lower}

// Make returns the slug for title under the given casing policy. Tokens are
// the maximal runs of letters and digits; everything else separates them.
// Accents are folded ("Café" → "Cafe"); other scripts are kept as is.
func Make(title string, c Case) (string, error) {
	folded, _, err := transform.String(foldChain(), title)
	if err != nil {
		return "", fmt.Errorf("slug: fold %q: %w", title, err)
	}

	tokens := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(tokens) == 0 {
		return "", apperr.New(apperr.ErrMissingTitle, "title %q has no usable words", title)
	}

	for i, tok := range tokens {
		tokens[i] = applyCase(tok, c)
	}
	return strings.Join(tokens, "-"), nil
}

// foldChain is rebuilt per call: transform.Chain keeps state and is not safe
// for concurrent reuse.
func foldChain() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

func applyCase(tok string, c Case) string {
	switch c {
	case Preserve:
		return tok
	case Lower:
		return strings.ToLower(tok)
	default:
		if isAcronym(tok) {
			return tok
		}
		return strings.ToLower(tok)
	}
}

func isAcronym(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}
