package speller

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// caseMutation is the casing pattern reapplied to suggestions.
type caseMutation int

const (
	mutationNone caseMutation = iota
	mutationFirstCaps
	mutationAllCaps
)

// caseMode decides how the results of several variants are combined.
type caseMode int

const (
	// modeMergeAll searches every variant and keeps the best weight per value.
	modeMergeAll caseMode = iota
	// modeFirstResults stops at the first variant that yields anything.
	modeFirstResults
)

// caseVariants lists the forms of a word to search, original first.
type caseVariants struct {
	words    []string
	mutation caseMutation
	mode     caseMode
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func isAllCaps(s string) bool { return hasLetter(s) && strings.ToUpper(s) == s }

func isFirstCaps(s string) bool { return hasLetter(s) && upperFirst(s) == s }

// isMixedCase reports words like "iPhone" or "McDonald" whose casing is not
// one of lower, Capitalized or ALL CAPS. Words holding caseless characters
// (digits, hyphens, CJK) are never mixed.
func isMixedCase(s string) bool {
	type class int
	const (
		lower class = iota
		upper
		neither
	)
	classify := func(r rune) class {
		switch {
		case unicode.IsLower(r):
			return lower
		case unicode.IsUpper(r):
			return upper
		}
		return neither
	}

	first, size := utf8.DecodeRuneInString(s)
	if size == 0 || isAllCaps(s) {
		return false
	}
	last := classify(first)
	if last == neither {
		return false
	}

	changes := 0
	for _, r := range s[size:] {
		next := classify(r)
		switch {
		case next == neither:
			return false
		case next == upper:
			changes += 2
		case last == upper && next == lower:
			changes++
		}
		last = next
	}
	return changes > 1
}

// variantsOf returns the case forms to try for word.
//
// Mixed-case words are tried as given, then with the first letter flipped,
// and the first variant with results wins. Other words are tried as given,
// Capitalized when ALL CAPS, and lower-cased, with all results merged.
func variantsOf(word string) caseVariants {
	if isMixedCase(word) {
		v := caseVariants{words: []string{word}, mode: modeFirstResults}
		if isFirstCaps(word) {
			v.mutation = mutationFirstCaps
			v.words = append(v.words, lowerFirst(word))
		} else if up := upperFirst(word); !isAllCaps(up) {
			v.words = append(v.words, up)
		}
		return v
	}

	v := caseVariants{words: []string{word}, mode: modeMergeAll}
	switch {
	case isAllCaps(word):
		v.mutation = mutationAllCaps
	case isFirstCaps(word):
		v.mutation = mutationFirstCaps
	}

	add := func(w string) {
		for _, seen := range v.words {
			if seen == w {
				return
			}
		}
		v.words = append(v.words, w)
	}
	if v.mutation == mutationAllCaps {
		add(upperFirst(strings.ToLower(word)))
	}
	add(strings.ToLower(word))
	return v
}

// apply reapplies the casing pattern to a suggestion.
func (m caseMutation) apply(s string) string {
	switch m {
	case mutationAllCaps:
		return strings.ToUpper(s)
	case mutationFirstCaps:
		return upperFirst(s)
	}
	return s
}
