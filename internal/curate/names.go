// Curatarr - Curated Plex Collection Synchronization
// Copyright 2026 Curatarr Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/curatarr/curatarr

package curate

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes characters and drops combining marks, so "Über" and
// "Uber" normalize identically.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName reduces a collection title to its semantic identity: lower
// case, diacritics stripped, punctuation dropped, whitespace collapsed.
// Users and catalog versions disagree on exact punctuation and casing, so
// all name comparisons in this package go through this function.
func normalizeName(s string) string {
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// splitSuffix separates a per-user display suffix from a curated collection
// name: "Recently Watched (Alice)" -> ("Recently Watched", "Alice"). Names
// without a trailing parenthesized group return an empty suffix. A leading
// "(" is not a suffix; "(Untitled)" stays whole.
func splitSuffix(name string) (base, suffix string) {
	trimmed := strings.TrimSpace(name)
	if strings.HasSuffix(trimmed, ")") {
		if i := strings.LastIndex(trimmed, "("); i > 0 {
			return strings.TrimSpace(trimmed[:i]), strings.TrimSpace(trimmed[i+1 : len(trimmed)-1])
		}
	}
	return trimmed, ""
}

// baseKey returns the normalized base name used for cross-user collection
// matching.
func baseKey(name string) string {
	base, _ := splitSuffix(name)
	return normalizeName(base)
}

// suffixKey returns the normalized per-user suffix, or "" when none.
func suffixKey(name string) string {
	_, suffix := splitSuffix(name)
	return normalizeName(suffix)
}
