package rag

import (
	"sort"
	"strings"
	"unicode"

	"github.com/hyperjump/kotae/pkg/utils"
)

const (
	fallbackBlocks      = 3
	fallbackSnippet     = 500
	fallbackLastResort  = 2
	fallbackLastSnippet = 1000

	fallbackPrefix   = "The assistant is unavailable right now. These passages from the course material look relevant:\n\n"
	lastResortPrefix = "The assistant is unavailable right now. Here is an excerpt from the course material:\n\n"
)

// Only words longer than three characters reach the stop set.
var fallbackStopWords = map[string]struct{}{
	"what": {}, "which": {}, "when": {}, "where": {}, "does": {}, "that": {}, "this": {},
	"with": {}, "from": {}, "have": {}, "about": {}, "there": {}, "their": {}, "would": {},
	"could": {}, "should": {}, "explain": {},
	"quel": {}, "quelle": {}, "quels": {}, "quelles": {}, "comment": {}, "pourquoi": {},
	"dans": {}, "pour": {}, "avec": {}, "sont": {}, "est-ce": {},
}

// Fallback answers without the LLM: context blocks are scored by how many
// question terms they contain and the best ones are quoted.
func Fallback(question string, blocks []string) string {
	if !hasText(blocks) {
		return MsgNoAnswer
	}
	terms := questionTerms(question)

	type scored struct {
		text  string
		score int
	}
	var ranked []scored
	for _, b := range blocks {
		lower := strings.ToLower(b)
		n := 0
		for _, t := range terms {
			if strings.Contains(lower, t) {
				n++
			}
		}
		if n > 0 {
			ranked = append(ranked, scored{text: b, score: n})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if len(ranked) == 0 {
		n := min(fallbackLastResort, len(blocks))
		parts := make([]string, n)
		for i := range parts {
			parts[i] = utils.Truncate(blocks[i], fallbackLastSnippet)
		}
		return lastResortPrefix + strings.Join(parts, "\n\n")
	}
	ranked = ranked[:min(fallbackBlocks, len(ranked))]
	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = utils.Truncate(r.text, fallbackSnippet)
	}
	return fallbackPrefix + strings.Join(parts, "\n\n")
}

// questionTerms lowercases the question, splits it on anything but letters,
// digits and hyphens, and keeps distinct words longer than three characters.
func questionTerms(question string) []string {
	words := strings.FieldsFunc(strings.ToLower(question), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	seen := make(map[string]struct{}, len(words))
	var terms []string
	for _, w := range words {
		if len([]rune(w)) <= 3 {
			continue
		}
		if _, stop := fallbackStopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	return terms
}
