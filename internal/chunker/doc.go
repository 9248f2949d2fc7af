// Package chunker divides large context content into semantic chunks for
// node synthesis and search.
//
// The chunker creates chunks at natural content boundaries to preserve
// semantic meaning and enable accurate retrieval.
//
// # Basic Usage
//
//	c := chunker.New()
//	result, err := c.Split(content, types.DefaultStrategy())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, span := range result.Spans {
//	    fmt.Printf("chunk [%d:%d] via %s\n", span.Start, span.End, span.Boundary)
//	}
//
// # Chunking Strategy
//
// Breakpoints are chosen in fixed priority order:
//   - Fenced code block edges: a block is never split in half
//   - Markdown headers: a new section starts a new chunk
//   - Paragraph breaks: blank lines between prose blocks
//   - Sentence breaks: terminator followed by whitespace
//   - Hard cut: at the token budget when nothing natural is in range
//
// Natural boundaries are only accepted within a tolerance window (the upper
// half of the budgeted prefix) so chunks stay reasonably full.
//
// # Reconstruction Invariant
//
// With zero overlap the spans partition the input: concatenating span
// contents in order reproduces the original content byte for byte. Positive
// overlap copies a suffix of each chunk onto the front of the next; the
// overlap length is recorded on the ChunkingResult so downstream accounting
// can discount the duplicated bytes. Span Start/End offsets always reference
// the original, non-overlapped content.
//
// Token sizing uses the estimator package's heuristic, which is monotone over
// prefix extension; chunk boundaries are located by binary search against it.
package chunker
