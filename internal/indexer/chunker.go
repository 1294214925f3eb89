package indexer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultTargetSize is the paragraph accumulation limit in runes.
	DefaultTargetSize = 600
	// DefaultOverlapSize bounds the prefix carried over from the previous chunk.
	DefaultOverlapSize = 150

	paragraphSeparator = "\n\n"
	sentenceSeparator  = " "
)

var blankLines = regexp.MustCompile(`\n\s*\n`)

// Chunker splits normalized text into overlapping, size-bounded chunks.
type Chunker struct {
	targetSize  int
	overlapSize int
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithTargetSize sets the maximum content length of a chunk in runes.
// Non-positive values are ignored.
func WithTargetSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.targetSize = n
		}
	}
}

// WithOverlapSize sets the maximum overlap prefix length in runes. Zero disables overlap.
func WithOverlapSize(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlapSize = n
		}
	}
}

// NewChunker creates a chunker with the default sizes unless overridden.
func NewChunker(opts ...Option) *Chunker {
	c := &Chunker{
		targetSize:  DefaultTargetSize,
		overlapSize: DefaultOverlapSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TargetSize returns the configured target size.
func (c *Chunker) TargetSize() int { return c.targetSize }

// OverlapSize returns the configured overlap size.
func (c *Chunker) OverlapSize() int { return c.overlapSize }

// Chunk returns the chunk texts for text, each one prefixed with its overlap.
func (c *Chunker) Chunk(text string) []string {
	pieces := c.Split(text)
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		out = append(out, p.Text())
	}
	return out
}

// Split returns the chunks of text with the overlap prefix kept apart from the content.
func (c *Chunker) Split(text string) []Piece {
	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return []Piece{}
	}

	s := &splitState{chunker: c}
	for _, p := range paragraphs {
		pLen := utf8.RuneCountInString(p)

		if s.buf == "" && pLen <= c.targetSize {
			s.buf = p
			continue
		}
		if s.buf != "" && utf8.RuneCountInString(s.buf)+len(paragraphSeparator)+pLen <= c.targetSize {
			s.buf += paragraphSeparator + p
			continue
		}

		if s.buf != "" {
			s.flush(s.buf)
			s.buf = ""
		}

		if pLen <= c.targetSize {
			s.buf = p
			continue
		}

		// Paragraph alone exceeds the target: accumulate its sentences instead.
		var temp string
		for _, sentence := range splitSentences(p) {
			if temp == "" {
				temp = sentence
				continue
			}
			if utf8.RuneCountInString(temp)+len(sentenceSeparator)+utf8.RuneCountInString(sentence) <= c.targetSize {
				temp += sentenceSeparator + sentence
				continue
			}
			s.flush(temp)
			temp = sentence
		}
		s.buf = temp
	}

	if s.buf != "" {
		s.flush(s.buf)
	}
	return s.pieces
}

type splitState struct {
	chunker *Chunker
	buf     string
	overlap string
	pieces  []Piece
}

func (s *splitState) flush(content string) {
	s.pieces = append(s.pieces, Piece{Overlap: s.overlap, Content: content})
	s.overlap = overlapOf(content, s.chunker.overlapSize)
}

// overlapOf returns the trailing part, at most size runes, of the last one or
// two sentences of content. The result is always a substring of content.
func overlapOf(content string, size int) string {
	if size <= 0 {
		return ""
	}

	starts := sentenceStarts(content)
	from := 0
	if len(starts) >= 2 {
		from = starts[len(starts)-2]
	}
	tail := content[from:]

	if n := utf8.RuneCountInString(tail); n > size {
		skip := n - size
		for i := range tail {
			if skip == 0 {
				tail = tail[i:]
				break
			}
			skip--
		}
	}
	return strings.TrimSpace(tail)
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range blankLines.Split(text, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits on '.', '!' or '?' followed by whitespace, keeping the punctuation.
func splitSentences(p string) []string {
	starts := sentenceStarts(p)
	out := make([]string, 0, len(starts))
	for i, start := range starts {
		end := len(p)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if s := strings.TrimSpace(p[start:end]); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sentenceStarts returns the byte offsets at which sentences of s begin.
func sentenceStarts(s string) []int {
	starts := []int{0}
	afterTerminator := false
	inGap := false

	for i, r := range s {
		switch {
		case inGap && !unicode.IsSpace(r):
			starts = append(starts, i)
			inGap = false
			afterTerminator = r == '.' || r == '!' || r == '?'
		case inGap:
		case afterTerminator && unicode.IsSpace(r):
			inGap = true
			afterTerminator = false
		default:
			afterTerminator = r == '.' || r == '!' || r == '?'
		}
	}
	return starts
}
