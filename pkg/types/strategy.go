package types

// BoundaryKind identifies the kind of break a chunk boundary landed on
type BoundaryKind string

const (
	BoundaryCodeFence BoundaryKind = "code_fence"
	BoundaryHeader    BoundaryKind = "header"
	BoundaryParagraph BoundaryKind = "paragraph"
	BoundarySentence  BoundaryKind = "sentence"
	BoundaryHardCut   BoundaryKind = "hard_cut"
	BoundaryEnd       BoundaryKind = "end"
)

// ChunkingStrategy configures how large content is split. The zero value is
// not usable; call DefaultStrategy or fill MaxTokens explicitly.
type ChunkingStrategy struct {
	// MaxTokens is the estimated-token budget per chunk
	MaxTokens int
	// OverlapChars copies this many trailing characters of each chunk onto
	// the front of the next one. Zero keeps the reconstruction invariant:
	// concatenated chunk contents equal the original input.
	OverlapChars int
	// PreferCodeFences, PreferHeaders and PreferParagraphs toggle the
	// natural-boundary preferences, tried in that priority order before
	// sentence breaks and hard cuts
	PreferCodeFences bool
	PreferHeaders    bool
	PreferParagraphs bool
}

// DefaultStrategy returns the chunking configuration used when the caller
// supplies none
func DefaultStrategy() ChunkingStrategy {
	return ChunkingStrategy{
		MaxTokens:        1000,
		OverlapChars:     0,
		PreferCodeFences: true,
		PreferHeaders:    true,
		PreferParagraphs: true,
	}
}

// ChunkSpan is one ordered piece of split content. Start and End are byte
// offsets into the original content before any overlap prefix is applied.
type ChunkSpan struct {
	Content  string
	Start    int
	End      int
	Boundary BoundaryKind
}

// ChunkingResult holds the ordered chunk spans plus strategy metadata
type ChunkingResult struct {
	Spans    []ChunkSpan
	Strategy ChunkingStrategy
	// Overlap records the applied overlap length so reconstruction logic can
	// discount duplicated bytes; always equal to Strategy.OverlapChars
	Overlap int
}
