package main

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Entry is a single version section in the changelog.
type Entry struct {
	Version string
	Date    string
	Content string
}

// Changelog is a parsed Keep a Changelog file.
type Changelog struct {
	Entries []Entry
	Links   map[string]string
}

// FindVersion looks up an entry by version, with or without a "v" prefix.
func (c *Changelog) FindVersion(version string) *Entry {
	version = strings.TrimPrefix(version, "v")

	for i := range c.Entries {
		if strings.TrimPrefix(c.Entries[i].Version, "v") == version {
			return &c.Entries[i]
		}
	}
	return nil
}

// Parse reads a Keep a Changelog formatted markdown document. Each level-2
// heading starts a version entry; everything up to the next level-2 heading
// is that entry's content.
func Parse(source []byte) (*Changelog, error) {
	md := goldmark.New()
	reader := text.NewReader(source)
	ctx := parser.NewContext()
	doc := md.Parser().Parse(reader, parser.WithContext(ctx))

	changelog := &Changelog{
		Links: make(map[string]string),
	}

	for _, ref := range ctx.References() {
		changelog.Links[string(ref.Label())] = string(ref.Destination())
	}

	type section struct {
		version string
		date    string
		start   int // byte offset of the heading line
		end     int // byte offset where the heading line stops
	}
	var sections []section

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level != 2 {
			return ast.WalkContinue, nil
		}

		version, date := splitVersionHeading(headingText(heading, source))

		var start, end int
		if lines := heading.Lines(); lines.Len() > 0 {
			start = lines.At(0).Start
			end = lines.At(lines.Len() - 1).Stop
		}

		sections = append(sections, section{version: version, date: date, start: start, end: end})
		return ast.WalkContinue, nil
	})

	for i, s := range sections {
		contentEnd := len(source)
		if i+1 < len(sections) {
			contentEnd = sections[i+1].start
		}

		content := ""
		if s.end < contentEnd {
			content = strings.TrimSpace(string(source[s.end:contentEnd]))
		}

		changelog.Entries = append(changelog.Entries, Entry{
			Version: s.version,
			Date:    s.date,
			Content: content,
		})
	}

	return changelog, nil
}

// headingText flattens a heading node to plain text, descending into links
// so "[1.0.0]" style headings keep their version text.
func headingText(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for child := n.FirstChild(); child != nil; child = child.NextSibling() {
			if textNode, ok := child.(*ast.Text); ok {
				buf.Write(textNode.Segment.Value(source))
				continue
			}
			walk(child)
		}
	}
	walk(node)
	return buf.String()
}

// splitVersionHeading splits "1.0.0 - 2024-01-15" or "[1.0.0] - 2024-01-15"
// into version and date.
func splitVersionHeading(heading string) (version, date string) {
	heading = strings.TrimSpace(heading)
	heading = strings.TrimPrefix(heading, "[")
	heading = strings.Replace(heading, "]", "", 1)

	if idx := strings.Index(heading, " - "); idx != -1 {
		return strings.TrimSpace(heading[:idx]), strings.TrimSpace(heading[idx+3:])
	}
	return heading, ""
}
