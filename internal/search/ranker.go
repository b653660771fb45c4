package search

import (
	"sort"
	"strings"
	"unicode"

	"github.com/sasayosh1/prorenata-sub004/internal/doc"
)

// Field weights are fixed: a title hit always outranks any number of body
// hits. Matching is plain substring, not stemmed or fuzzy, so a score is
// always explainable from the text.
var fieldWeights = []struct {
	name   string
	weight int
}{
	{"title", 10},
	{"excerpt", 5},
	{"categories", 3},
	{"tags", 3},
	{"body", 1},
}

const punctuation = "。、「」．，・!！?？()[]{}\"'"

// Normalize lowercases, strips punctuation (Japanese 句読点 included) and
// collapses whitespace.
func Normalize(input string) string {
	lowered := strings.ToLower(input)
	mapped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(punctuation, r) {
			return ' '
		}
		return r
	}, lowered)
	return strings.Join(strings.Fields(mapped), " ")
}

// Tokenize splits a normalized query into tokens: whitespace-separated
// terms plus character bi-grams over CJK runs, which makes unsegmented
// Japanese queries match. Latin terms stay whole; their bi-grams are far
// too common to be selective.
func Tokenize(input string) []string {
	normalized := Normalize(input)
	seen := map[string]bool{}
	var tokens []string
	add := func(tok string) {
		if tok != "" && !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	for _, term := range strings.Fields(normalized) {
		add(term)
		for _, run := range cjkRuns(term) {
			for i := 0; i+2 <= len(run); i++ {
				add(string(run[i : i+2]))
			}
		}
	}
	return tokens
}

// cjkRuns returns the contiguous CJK rune sequences of a term.
func cjkRuns(term string) [][]rune {
	var runs [][]rune
	var current []rune
	for _, r := range term {
		if isCJK(r) {
			current = append(current, r)
			continue
		}
		if len(current) >= 2 {
			runs = append(runs, current)
		}
		current = nil
	}
	if len(current) >= 2 {
		runs = append(runs, current)
	}
	return runs
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana)
}

// Score computes a document's score for pre-tokenized query tokens. Zero
// means no token matched any field.
func Score(d doc.Document, tokens []string) int {
	if len(tokens) == 0 {
		return 0
	}
	fields := map[string]string{
		"title":      Normalize(d.Title),
		"excerpt":    Normalize(d.Excerpt),
		"categories": Normalize(strings.Join(d.Categories, " ")),
		"tags":       Normalize(strings.Join(d.Tags, " ")),
		"body":       Normalize(doc.PlainText(d.Body)),
	}
	total := 0
	for _, tok := range tokens {
		for _, fw := range fieldWeights {
			if fields[fw.name] != "" && strings.Contains(fields[fw.name], tok) {
				total += fw.weight
			}
		}
	}
	return total
}

// Rank orders the corpus by descending score, dropping zero scores. Ties
// keep the original corpus order.
func Rank(corpus []doc.Document, query string) []doc.Document {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	type scored struct {
		d     doc.Document
		score int
	}
	var hits []scored
	for _, d := range corpus {
		if s := Score(d, tokens); s > 0 {
			hits = append(hits, scored{d, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	out := make([]doc.Document, len(hits))
	for i, h := range hits {
		out[i] = h.d
	}
	return out
}

// Keywords extracts the top n tokens of a document for downstream
// indexing, ranked by the same field weights the query side uses.
func Keywords(d doc.Document, n int) []string {
	counts := map[string]int{}
	for _, fw := range fieldWeights {
		var text string
		switch fw.name {
		case "title":
			text = d.Title
		case "excerpt":
			text = d.Excerpt
		case "categories":
			text = strings.Join(d.Categories, " ")
		case "tags":
			text = strings.Join(d.Tags, " ")
		case "body":
			text = doc.PlainText(d.Body)
		}
		for _, tok := range Tokenize(text) {
			counts[tok] += fw.weight
		}
	}
	tokens := make([]string, 0, len(counts))
	for tok := range counts {
		tokens = append(tokens, tok)
	}
	sort.Slice(tokens, func(i, j int) bool {
		if counts[tokens[i]] != counts[tokens[j]] {
			return counts[tokens[i]] > counts[tokens[j]]
		}
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) > len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
	if n > 0 && len(tokens) > n {
		tokens = tokens[:n]
	}
	return tokens
}

const snippetRadius = 60

// Snippet extracts a highlight window around the first query hit.
func Snippet(text, query string) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	idx := strings.Index(strings.ToLower(flat), strings.ToLower(strings.TrimSpace(query)))
	if idx < 0 {
		if len(runes) > 2*snippetRadius {
			return string(runes[:2*snippetRadius])
		}
		return flat
	}
	// Recompute the hit position in runes so CJK text slices cleanly.
	ridx := len([]rune(flat[:idx]))
	start := ridx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := ridx + len([]rune(query)) + snippetRadius
	if end > len(runes) {
		end = len(runes)
	}
	out := string(runes[start:end])
	if start > 0 {
		out = "…" + out
	}
	if end < len(runes) {
		out += "…"
	}
	return out
}
