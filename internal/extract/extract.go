// Package extract turns uploaded documents into plain text for indexing.
package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	// ErrUnsupportedFormat is returned for file types that cannot be extracted.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrCorruptDocument is returned when a file cannot be decoded as its extension claims.
	ErrCorruptDocument = errors.New("corrupt document")
)

// SupportedExtensions lists the extensions Extract accepts, lower case with the dot.
var SupportedExtensions = []string{".txt", ".md", ".docx", ".pdf"}

// Supported reports whether name has an extension Extract accepts.
func Supported(name string) bool {
	return slices.Contains(SupportedExtensions, Ext(name))
}

// Ext returns the lower-cased extension of name.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Extractor converts raw file contents to text.
type Extractor struct {
	markdown goldmark.Markdown
	runner   CommandRunner
}

// New creates an Extractor that reads PDFs with the pdftotext binary.
func New() *Extractor {
	return NewWithRunner(execRunner{})
}

// NewWithRunner creates an Extractor that runs pdftotext through runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{markdown: goldmark.New(), runner: runner}
}

// Extract returns the text of data, dispatching on the extension of name.
func (e *Extractor) Extract(name string, data []byte) (string, error) {
	switch ext := Ext(name); ext {
	case ".txt":
		return strings.ToValidUTF8(string(data), ""), nil
	case ".md":
		return e.extractMarkdown(data), nil
	case ".docx":
		return extractDocx(data)
	case ".pdf":
		return e.extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

func (e *Extractor) extractMarkdown(data []byte) string {
	source := []byte(strings.ToValidUTF8(string(data), ""))
	doc := e.markdown.Parser().Parse(text.NewReader(source))

	var buf strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			switch n.Kind() {
			case ast.KindParagraph, ast.KindHeading, ast.KindFencedCodeBlock, ast.KindCodeBlock, ast.KindThematicBreak, ast.KindList:
				endLines(&buf, 2)
			case ast.KindTextBlock:
				endLines(&buf, 1)
			}
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.ListItem:
			buf.WriteString(listMarker(node))
		case *ast.Text:
			buf.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				buf.WriteString("\n")
			}
		case *ast.String:
			buf.Write(node.Value)
		case *ast.AutoLink:
			buf.Write(node.Label(source))
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		case *ast.HTMLBlock, *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(buf.String())
}

// endLines pads buf until it ends with n newlines.
func endLines(buf *strings.Builder, n int) {
	if buf.Len() == 0 {
		return
	}
	s := buf.String()
	have := len(s) - len(strings.TrimRight(s, "\n"))
	for ; have < n; have++ {
		buf.WriteByte('\n')
	}
}

// listMarker renders the bullet or number of a list item.
func listMarker(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "- "
	}
	n := list.Start
	for sib := item.PreviousSibling(); sib != nil; sib = sib.PreviousSibling() {
		n++
	}
	return strconv.Itoa(n) + ". "
}

const docxBody = "word/document.xml"

func extractDocx(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCorruptDocument, err)
	}

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCorruptDocument, err)
		}
		defer func() {
			_ = rc.Close()
		}()
		return wordprocessingText(rc)
	}
	return "", fmt.Errorf("%w: missing %s", ErrCorruptDocument, docxBody)
}

// wordprocessingText collects run text from a WordprocessingML body, one line per paragraph.
func wordprocessingText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var buf strings.Builder
	inText := false
	props := 0 // depth inside paragraph properties, whose tab stops are not text

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCorruptDocument, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				props++
			case "t":
				inText = true
			case "tab":
				if props == 0 {
					buf.WriteString("\t")
				}
			case "br", "cr":
				buf.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "pPr":
				props--
			case "t":
				inText = false
			case "p":
				buf.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		}
	}

	return strings.TrimSpace(buf.String()), nil
}
