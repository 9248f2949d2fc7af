// Package estimator provides heuristic language-model token estimation.
//
// The estimate is deliberately a conservative over-estimate biased toward
// triggering chunking for complex content even when the raw word count is
// modest. It is not a tokenizer; downstream thresholds depend on this exact
// behavior, so the surcharges must not be tuned independently.
package estimator

import (
	"math"
	"regexp"
	"strings"
)

// ChunkThreshold is the estimated-token count above which a context is split
const ChunkThreshold = 4000

// Per-occurrence surcharges on top of the word-count base estimate
const (
	codeFenceCost  = 100
	headerCost     = 20
	listItemCost   = 10
	paragraphCost  = 15
	sentenceCost   = 5
	wordMultiplier = 2.5
)

var (
	codeFenceRe = regexp.MustCompile("(?s)```.*?```")
	headerRe    = regexp.MustCompile(`(?m)^#{1,6}\s`)
	listItemRe  = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s`)
	paragraphRe = regexp.MustCompile(`\n[ \t]*\n`)
	sentenceRe  = regexp.MustCompile(`[.!?]`)
)

// EstimateTokens maps raw text to an approximate token count. Empty content
// returns 0. The estimate is monotonically non-decreasing under text
// concatenation.
func EstimateTokens(content string) int {
	if content == "" {
		return 0
	}

	words := len(strings.Fields(content))
	estimate := int(math.Ceil(float64(words) * wordMultiplier))

	estimate += len(codeFenceRe.FindAllStringIndex(content, -1)) * codeFenceCost
	estimate += len(headerRe.FindAllStringIndex(content, -1)) * headerCost
	estimate += len(listItemRe.FindAllStringIndex(content, -1)) * listItemCost
	estimate += len(paragraphRe.FindAllStringIndex(content, -1)) * paragraphCost
	estimate += len(sentenceRe.FindAllStringIndex(content, -1)) * sentenceCost

	// Punctuation-heavy content costs more
	for _, r := range content {
		if !isWordRune(r) && !isSpaceRune(r) {
			estimate++
		}
	}

	return estimate
}

// ShouldChunk reports whether content is large enough to split
func ShouldChunk(content string) bool {
	return EstimateTokens(content) > ChunkThreshold
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9')
}

func isSpaceRune(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
