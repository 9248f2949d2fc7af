// Package synthesizer converts content chunks into metadata-enriched context
// nodes: importance scoring, summarization, keyword extraction, and content
// type classification.
//
// The heuristics here are intentionally simple pattern matching. Downstream
// chunking thresholds and retrieval behavior depend on their exact output,
// so the additive importance bonuses and the fixed classification priority
// order must be preserved as-is.
package synthesizer

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ctxnode/ctxnode-mcp/internal/estimator"
	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

const (
	// SummaryMaxLen is the summary length cap in runes, before the ellipsis
	SummaryMaxLen = 150
	// MaxKeywords caps the merged tag+content keyword list
	MaxKeywords = 10
	// TopContentWords is how many frequent content words join the keywords
	TopContentWords = 5
	// MinKeywordLen is the exclusive length floor for content words
	MinKeywordLen = 3
)

// Importance scoring weights. Bonuses stack additively up to the clamp.
const (
	baseImportance     = 0.5
	codeBonus          = 0.2
	documentationBonus = 0.15
	researchBonus      = 0.10
	hintBonus          = 0.10
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// Synthesizer builds ContextNodes from chunks of a parent context
type Synthesizer struct{}

// New creates a new Synthesizer instance
func New() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize converts one chunk of a parent context into a ContextNode. The
// node ID is deterministic in (contextID, chunkIndex) so synthesis order
// never affects persisted identity.
func (s *Synthesizer) Synthesize(chunk string, parent *types.Context, chunkIndex, totalChunks int) *types.ContextNode {
	now := time.Now()
	chunkType := ClassifyChunk(chunk, parent.Type)

	return &types.ContextNode{
		ID:            types.NodeID(parent.ID, chunkIndex),
		Content:       chunk,
		TokenCount:    estimator.EstimateTokens(chunk),
		Importance:    ScoreImportance(parent),
		Summary:       Summarize(chunk),
		Keywords:      ExtractKeywords(chunk, parent.Tags),
		ChunkType:     chunkType,
		Relationships: []string{},
		Meta: types.NodeMeta{
			ChunkIndex:        chunkIndex,
			TotalChunks:       totalChunks,
			OriginalContextID: parent.ID,
			ChunkType:         chunkType,
			IsOptimized:       false,
		},
		ParentNodeID: parent.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ScoreImportance computes the retrieval priority for nodes of a context.
// Base 0.5 plus type and hint bonuses, clamped to [0, 1].
func ScoreImportance(parent *types.Context) float64 {
	score := baseImportance

	switch parent.Type {
	case types.ContextCode:
		score += codeBonus
	case types.ContextDocumentation:
		score += documentationBonus
	case types.ContextResearch:
		score += researchBonus
	}

	if parent.Hints.Complexity == types.HintHigh {
		score += hintBonus
	}
	if parent.Hints.Urgency == types.HintHigh {
		score += hintBonus
	}
	if parent.Hints.Importance == types.HintHigh {
		score += hintBonus
	}

	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return score
}

// Summarize produces a sentence-boundary-aware synopsis of at most
// SummaryMaxLen runes, plus at most a trailing "..." when truncated hard.
func Summarize(content string) string {
	runes := []rune(content)
	if len(runes) <= SummaryMaxLen {
		return content
	}

	var summary strings.Builder
	length := 0
	for _, sentence := range splitSentences(content) {
		candidate := len([]rune(sentence)) + 1 // trailing terminator
		if length+candidate > SummaryMaxLen {
			break
		}
		summary.WriteString(sentence)
		summary.WriteString(".")
		length += candidate
	}

	if length == 0 {
		return string(runes[:SummaryMaxLen]) + "..."
	}
	return summary.String()
}

// splitSentences breaks content on sentence terminators, dropping empties
func splitSentences(content string) []string {
	parts := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}

// ExtractKeywords merges parent tags with the most frequent content words.
// Content is lowercased and stripped of punctuation; words longer than
// MinKeywordLen are ranked by frequency and the top TopContentWords join the
// tags. The result is deduplicated, order-stable, capped at MaxKeywords.
func ExtractKeywords(content string, tags []string) []string {
	cleaned := nonWordRe.ReplaceAllString(strings.ToLower(content), "")

	type wordCount struct {
		word  string
		count int
		first int
	}
	counts := make(map[string]*wordCount)
	order := 0
	for _, w := range strings.Fields(cleaned) {
		if len([]rune(w)) <= MinKeywordLen {
			continue
		}
		if wc, ok := counts[w]; ok {
			wc.count++
		} else {
			counts[w] = &wordCount{word: w, count: 1, first: order}
		}
		order++
	}

	ranked := make([]*wordCount, 0, len(counts))
	for _, wc := range counts {
		ranked = append(ranked, wc)
	}
	// Ties break on first occurrence so extraction is deterministic
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})
	if len(ranked) > TopContentWords {
		ranked = ranked[:TopContentWords]
	}

	keywords := make([]string, 0, MaxKeywords)
	seen := make(map[string]struct{})
	appendUnique := func(w string) {
		if w == "" {
			return
		}
		if _, ok := seen[w]; ok {
			return
		}
		if len(keywords) >= MaxKeywords {
			return
		}
		seen[w] = struct{}{}
		keywords = append(keywords, w)
	}

	for _, tag := range tags {
		appendUnique(tag)
	}
	for _, wc := range ranked {
		appendUnique(wc.word)
	}
	return keywords
}

// ClassifyChunk infers the chunk type from content signals. Rules evaluate
// in fixed priority order; the first match wins.
func ClassifyChunk(content string, parentType types.ContextType) types.ChunkType {
	switch {
	case strings.Contains(content, "```"),
		strings.Contains(content, "function"),
		strings.Contains(content, "class"):
		return types.ChunkCode
	case strings.Contains(content, "#"),
		strings.Contains(content, "**"),
		strings.Contains(content, "["):
		return types.ChunkMarkdown
	case strings.Contains(content, "http"),
		strings.Contains(content, "www."):
		return types.ChunkWebContent
	case parentType == types.ContextConversation:
		return types.ChunkConversation
	case parentType == types.ContextMeeting:
		return types.ChunkMeeting
	default:
		return types.ChunkText
	}
}
