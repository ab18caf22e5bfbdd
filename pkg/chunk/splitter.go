package chunk

import (
	"github.com/m-mizutani/goerr/v2"

	"github.com/o2alexanderfedin/ai-assistant-project/pkg/model"
)

const (
	// DefaultChunkSize and DefaultOverlap match the reference pipeline
	// defaults: 1000-byte chunks with 200 bytes of overlap.
	DefaultChunkSize = 1000
	DefaultOverlap   = 200

	// sentenceLookback is how far back from a tentative boundary the
	// splitter scans for a sentence terminator.
	sentenceLookback = 100
)

// Splitter cuts text into overlapping chunks with deterministic,
// sentence-boundary-aware breakpoints. All offsets are byte offsets.
type Splitter struct {
	chunkSize int
	overlap   int
}

// New creates a splitter. chunkSize must be positive and strictly
// greater than overlap, otherwise chunking could not make forward
// progress.
func New(chunkSize, overlap int) (*Splitter, error) {
	if chunkSize <= 0 {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "chunk size must be positive", goerr.V("chunk_size", chunkSize))
	}
	if overlap < 0 {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "overlap must not be negative", goerr.V("overlap", overlap))
	}
	if chunkSize <= overlap {
		return nil, goerr.Wrap(model.ErrInvalidConfig, "chunk size must be greater than overlap",
			goerr.V("chunk_size", chunkSize), goerr.V("overlap", overlap))
	}

	return &Splitter{chunkSize: chunkSize, overlap: overlap}, nil
}

// Split cuts content into chunks and attaches file references carrying
// the byte range of each chunk. Successive chunk ranges cover the whole
// content with no gaps; consecutive chunks overlap by up to the
// configured overlap to preserve cross-boundary context.
func (s *Splitter) Split(filePath, content string) []*model.Chunk {
	if len(content) == 0 {
		return nil
	}

	if len(content) <= s.chunkSize {
		return []*model.Chunk{{
			Text:      content,
			Reference: model.NewFileReference(filePath, 0, 0, len(content)),
		}}
	}

	var chunks []*model.Chunk
	start := 0
	index := 0

	for start < len(content) {
		end := start + s.chunkSize
		if end > len(content) {
			end = len(content)
		}

		if end < len(content) {
			end = s.pullBackToSentence(content, start, end)
		}

		chunks = append(chunks, &model.Chunk{
			Text:      content[start:end],
			Reference: model.NewFileReference(filePath, index, start, end-start),
		})

		// The last chunk always runs to the end of content; anything
		// emitted after it would be a strict subset of it.
		if end == len(content) {
			break
		}

		// Forward progress is guaranteed because chunkSize > overlap:
		// the first candidate strictly exceeds the previous start even
		// when end-overlap falls behind it. The pullback cap keeps
		// end >= start+chunkSize-overlap, so next never passes end and
		// every byte lands in some chunk.
		next := start + s.chunkSize - s.overlap
		if fromEnd := end - s.overlap; fromEnd > next {
			next = fromEnd
		}
		start = next
		index++
	}

	return chunks
}

// pullBackToSentence scans backward up to sentenceLookback bytes from
// end for a sentence terminator immediately followed by whitespace, and
// returns the boundary just past the terminator. Falls back to the
// original end when no terminator is found. The scan never reaches
// deeper than the overlap: a pullback beyond it would open a gap
// between this chunk and the next.
func (s *Splitter) pullBackToSentence(content string, start, end int) int {
	lookback := sentenceLookback
	if s.overlap < lookback {
		lookback = s.overlap
	}
	if span := end - start; span < lookback {
		lookback = span
	}

	for i := 0; i < lookback; i++ {
		if isTerminator(content[end-i-1]) && isSpace(content[end-i]) {
			return end - i
		}
	}

	return end
}

func isTerminator(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}
