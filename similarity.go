package main

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

const (
	// Clues are rejected when any alias of the hidden word scores above
	// this, or when either string contains the other.
	clueSimilarityMax = 0.30

	// Guesses are accepted when the best alias score reaches this.
	guessSimilarityMin = 0.80

	clueMaxLen = 12
)

var (
	parenSegment = regexp.MustCompile(`\s*\([^)]*\)`)
	parenInner   = regexp.MustCompile(`\(([^)]+)\)`)
)

// aliases returns the lowercased textual forms a hidden word answers to:
// the phrase itself, parenthetical variants ("Nunu (et Willump)" yields
// "nunu" and "et willump"), or the individual tokens of a compound name
// ("Xin Zhao" yields "xin" and "zhao"). Tokens of one or two characters
// are too short to stand in for the word and are skipped.
func aliases(target string) []string {
	target = strings.ToLower(strings.TrimSpace(target))
	out := []string{target}

	switch {
	case strings.Contains(target, "("):
		main := strings.TrimSpace(parenSegment.ReplaceAllString(target, ""))
		if main != "" {
			out = append(out, main)
		}
		if m := parenInner.FindStringSubmatch(target); m != nil {
			if inner := strings.TrimSpace(m[1]); inner != "" {
				out = append(out, inner)
			}
		}
	case strings.Contains(target, " "):
		for _, part := range strings.Fields(target) {
			if utf8.RuneCountInString(part) > 2 {
				out = append(out, part)
			}
		}
	}

	return out
}

// similarity scores two strings in [0,1]: 1.0 for identical strings,
// decreasing with edit distance, normalized by the longer length.
func similarity(a, b string) float64 {
	la := utf8.RuneCountInString(a)
	lb := utf8.RuneCountInString(b)
	if la == 0 && lb == 0 {
		return 1.0
	}

	longest := la
	if lb > longest {
		longest = lb
	}

	dist := levenshtein.ComputeDistance(a, b)

	return 1.0 - float64(dist)/float64(longest)
}

// bestSimilarity is the maximum score of s against any alias.
func bestSimilarity(aliasList []string, s string) float64 {
	best := 0.0
	for _, alias := range aliasList {
		if sim := similarity(alias, s); sim > best {
			best = sim
		}
	}
	return best
}

// clueTooSimilar reports whether a clue gives the hidden word away. The
// substring rule fires before any scoring, so a clue equal to the word is
// always rejected.
func clueTooSimilar(target, clue string) bool {
	clue = strings.ToLower(clue)

	for _, alias := range aliases(target) {
		if strings.Contains(alias, clue) || strings.Contains(clue, alias) {
			return true
		}
		if similarity(alias, clue) > clueSimilarityMax {
			return true
		}
	}

	return false
}
