package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/ctxnode/ctxnode-mcp/internal/estimator"
	"github.com/ctxnode/ctxnode-mcp/pkg/types"
)

const fenceMarker = "```"

// Chunker splits large content into ordered, bounded-size pieces along
// semantically meaningful boundaries
type Chunker struct{}

// New creates a new Chunker instance
func New() *Chunker {
	return &Chunker{}
}

// Split divides content into ordered chunk spans whose estimated token counts
// respect the strategy's budget. Breakpoints prefer, in priority order:
// fenced-code-block edges, markdown headers, paragraph breaks, sentence
// breaks, then a hard cut when no natural boundary falls within tolerance.
// With zero overlap the spans partition the input exactly; no span is empty.
func (c *Chunker) Split(content string, strategy types.ChunkingStrategy) (*types.ChunkingResult, error) {
	if content == "" {
		return nil, types.ErrEmptyContent
	}
	if strategy.MaxTokens <= 0 {
		strategy = types.DefaultStrategy()
	}

	spans := make([]types.ChunkSpan, 0, 4)
	pos := 0
	for pos < len(content) {
		rest := content[pos:]
		if estimator.EstimateTokens(rest) <= strategy.MaxTokens {
			spans = append(spans, types.ChunkSpan{
				Content:  rest,
				Start:    pos,
				End:      len(content),
				Boundary: types.BoundaryEnd,
			})
			break
		}

		limit := prefixWithinBudget(rest, strategy.MaxTokens)
		cut, boundary := c.findCut(rest, limit, strategy)
		spans = append(spans, types.ChunkSpan{
			Content:  rest[:cut],
			Start:    pos,
			End:      pos + cut,
			Boundary: boundary,
		})
		pos += cut
	}

	if strategy.OverlapChars > 0 {
		applyOverlap(spans, strategy.OverlapChars)
	}

	return &types.ChunkingResult{
		Spans:    spans,
		Strategy: strategy,
		Overlap:  strategy.OverlapChars,
	}, nil
}

// prefixWithinBudget finds the longest prefix of rest whose token estimate
// stays within maxTokens. The estimator is monotone over prefix extension,
// which makes binary search valid. The caller guarantees the full rest
// exceeds the budget.
func prefixWithinBudget(rest string, maxTokens int) int {
	lo, hi := 1, len(rest)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if estimator.EstimateTokens(rest[:mid]) <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	// Never split a multi-byte rune on a hard cut
	for lo > 1 && !utf8.RuneStart(rest[lo]) {
		lo--
	}
	return lo
}

// findCut picks the actual breakpoint at or below limit. Natural boundaries
// are only accepted within a tolerance window of the budgeted prefix; outside
// it the split degrades to a hard cut.
func (c *Chunker) findCut(rest string, limit int, strategy types.ChunkingStrategy) (int, types.BoundaryKind) {
	lo := limit / 2

	cut, boundary := limit, types.BoundaryHardCut

	if idx := lastSentenceEnd(rest[lo:limit]); idx > 0 {
		cut, boundary = lo+idx, types.BoundarySentence
	}
	if strategy.PreferParagraphs {
		if idx := strings.LastIndex(rest[lo:limit], "\n\n"); idx >= 0 {
			cut, boundary = lo+idx+2, types.BoundaryParagraph
		}
	}
	if strategy.PreferHeaders {
		if idx := strings.LastIndex(rest[lo:limit], "\n#"); idx >= 0 {
			cut, boundary = lo+idx+1, types.BoundaryHeader
		}
	}
	if strategy.PreferCodeFences {
		if fc := fenceClose(rest, lo, limit); fc > 0 {
			cut, boundary = fc, types.BoundaryCodeFence
		} else if open := fenceOpenBefore(rest, cut); open > 0 {
			// The chosen cut lands inside an open fenced block; back off to
			// the line the fence opens on so the block stays whole
			cut, boundary = open, types.BoundaryCodeFence
		}
	}

	if cut <= 0 || cut > limit {
		cut, boundary = limit, types.BoundaryHardCut
	}
	return cut, boundary
}

// fenceClose returns the position just past the last complete closing fence
// line within [lo, limit), or 0 when none exists
func fenceClose(rest string, lo, limit int) int {
	count := 0
	best := 0
	from := 0
	for from < limit {
		idx := strings.Index(rest[from:limit], fenceMarker)
		if idx < 0 {
			break
		}
		at := from + idx
		count++
		if count%2 == 0 {
			// Closing marker; cut after its line
			end := at + len(fenceMarker)
			if end < limit && rest[end] == '\n' {
				end++
			}
			if end >= lo && end <= limit {
				best = end
			}
		}
		from = at + len(fenceMarker)
	}
	return best
}

// fenceOpenBefore reports the line start of the fence left open at cut, or 0
// when the prefix has balanced fences
func fenceOpenBefore(rest string, cut int) int {
	count := strings.Count(rest[:cut], fenceMarker)
	if count%2 == 0 {
		return 0
	}
	last := strings.LastIndex(rest[:cut], fenceMarker)
	lineStart := strings.LastIndexByte(rest[:last], '\n') + 1
	return lineStart
}

// lastSentenceEnd returns the position just past the last sentence terminator
// that is followed by whitespace, or -1
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		switch s[i-1] {
		case '.', '!', '?':
			if s[i] == ' ' || s[i] == '\n' || s[i] == '\t' {
				return i + 1
			}
		}
	}
	return -1
}

// applyOverlap copies the trailing overlap bytes of each span onto the front
// of the next. Span offsets keep pointing at the original, non-overlapped
// slice so reconstruction accounting stays well-defined.
func applyOverlap(spans []types.ChunkSpan, overlap int) {
	for i := 1; i < len(spans); i++ {
		prev := spans[i-1].Content
		n := overlap
		if n > len(prev) {
			n = len(prev)
		}
		tail := prev[len(prev)-n:]
		for len(tail) > 0 && !utf8.RuneStart(tail[0]) {
			tail = tail[1:]
		}
		spans[i].Content = tail + spans[i].Content
	}
}
