package indexer

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	// SplitterVersion identifies the snippet rules. Bump it when they change so
	// IndexVersion changes too.
	SplitterVersion = "v1"

	minSnippetRunes = 20
	maxSnippetRunes = 400
)

// Splitter breaks product feature text into snippets. Feature text is
// markdown-ish: headings group related claims, list items and paragraphs are
// individual claims.
type Splitter struct {
	parser goldmark.Markdown
}

// NewSplitter creates a new Splitter.
func NewSplitter() *Splitter {
	return &Splitter{
		parser: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// block is a run of text under one section.
type block struct {
	section string
	text    string
}

// Split returns the snippets of featureText in document order. Blank input
// yields no snippets.
func (s *Splitter) Split(featureText string) []Snippet {
	content := []byte(strings.TrimSpace(featureText))
	if len(content) == 0 {
		return nil
	}

	doc := s.parser.Parser().Parse(text.NewReader(content))
	blocks := collectBlocks(doc, content)
	if len(blocks) == 0 {
		blocks = []block{{text: string(content)}}
	}

	return pack(blocks)
}

// collectBlocks walks the AST and emits one block per paragraph, list item,
// code block or table row.
func collectBlocks(doc ast.Node, content []byte) []block {
	var (
		blocks   []block
		headings []headingInfo
	)

	emit := func(t string) {
		t = strings.TrimSpace(t)
		if t != "" {
			blocks = append(blocks, block{section: sectionPath(headings), text: t})
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			for len(headings) > 0 && headings[len(headings)-1].level >= node.Level {
				headings = headings[:len(headings)-1]
			}
			headings = append(headings, headingInfo{level: node.Level, text: nodeText(node, content)})
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock:
			emit(nodeText(node, content))
			return ast.WalkSkipChildren, nil

		case *ast.CodeBlock, *ast.FencedCodeBlock:
			var b strings.Builder
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				b.Write(line.Value(content))
			}
			emit(b.String())
			return ast.WalkSkipChildren, nil
		}

		kind := n.Kind().String()
		if kind == "TableRow" || kind == "TableHeader" {
			emit(tableRowText(n, content))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return blocks
}

// pack merges short blocks into their neighbours within a section and splits
// oversized ones. Sizes are in runes.
func pack(blocks []block) []Snippet {
	var snippets []Snippet
	var cur *block

	flush := func() {
		if cur == nil {
			return
		}
		for _, part := range splitLong(cur.text) {
			snippets = append(snippets, Snippet{Index: len(snippets), Section: cur.section, Text: part})
		}
		cur = nil
	}

	for _, b := range blocks {
		if cur != nil && cur.section == b.section {
			merged := cur.text + "\n" + b.text
			short := utf8.RuneCountInString(cur.text) < minSnippetRunes || utf8.RuneCountInString(b.text) < minSnippetRunes
			if short && utf8.RuneCountInString(merged) <= maxSnippetRunes {
				cur.text = merged
				continue
			}
		}
		flush()
		next := b
		cur = &next
	}
	flush()

	return snippets
}

// splitLong cuts text longer than maxSnippetRunes, preferring line breaks,
// then sentence ends, then a hard cut.
func splitLong(s string) []string {
	runes := []rune(s)
	if len(runes) <= maxSnippetRunes {
		return []string{s}
	}

	var parts []string
	start := 0
	for start < len(runes) {
		end := start + maxSnippetRunes
		if end >= len(runes) {
			parts = appendTrimmed(parts, string(runes[start:]))
			break
		}

		window := string(runes[start:end])
		cut := end
		for _, sep := range []string{"\n", ". ", ", "} {
			if i := strings.LastIndex(window, sep); i > 0 {
				cut = start + utf8.RuneCountInString(window[:i+len(sep)])
				break
			}
		}

		parts = appendTrimmed(parts, string(runes[start:cut]))
		start = cut
	}
	return parts
}

func appendTrimmed(parts []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		parts = append(parts, s)
	}
	return parts
}

type headingInfo struct {
	level int
	text  string
}

// sectionPath joins the open headings, e.g. "사용감 > 발림성".
func sectionPath(stack []headingInfo) string {
	parts := make([]string, len(stack))
	for i, h := range stack {
		parts[i] = h.text
	}
	return strings.Join(parts, " > ")
}

// nodeText extracts the text of a node and its children. Soft line breaks
// become spaces.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder

	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// tableRowText joins a table row's cells with " | ".
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, nodeText(c, content))
	}
	return strings.Join(cells, " | ")
}
