package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// mdWriter turns a parsed markdown document into terminal text.
type mdWriter struct {
	src []byte
	sb  strings.Builder
	st  *styles
}

// Markdown renders a task description for the terminal. Headings are
// underlined, lists get bullets and code blocks are indented.
func (r *Renderer) Markdown(src string) string {
	data := []byte(src)
	doc := markdown.Parser().Parse(text.NewReader(data))
	m := &mdWriter{src: data, st: &r.st}
	m.blocks(doc, "")
	return strings.TrimRight(m.sb.String(), "\n") + "\n"
}

func (m *mdWriter) blocks(parent ast.Node, indent string) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		m.block(n, indent)
	}
}

func (m *mdWriter) block(n ast.Node, indent string) {
	switch n := n.(type) {
	case *ast.Heading:
		title := m.inline(n)
		rule := "="
		if n.Level > 1 {
			rule = "-"
		}
		m.line(indent, m.st.heading.Sprint(title))
		m.line(indent, strings.Repeat(rule, max(runewidth.StringWidth(title), 3)))
		m.sb.WriteString("\n")
	case *ast.Paragraph:
		for _, l := range strings.Split(m.inline(n), "\n") {
			m.line(indent, l)
		}
		m.sb.WriteString("\n")
	case *ast.TextBlock:
		for _, l := range strings.Split(m.inline(n), "\n") {
			m.line(indent, l)
		}
	case *ast.List:
		i := n.Start
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			marker := "• "
			if n.IsOrdered() {
				marker = fmt.Sprintf("%d. ", i)
				i++
			}
			m.listItem(item, indent, marker)
		}
		m.sb.WriteString("\n")
	case *ast.FencedCodeBlock:
		m.code(n.Lines(), indent)
	case *ast.CodeBlock:
		m.code(n.Lines(), indent)
	case *ast.Blockquote:
		m.blocks(n, indent+"│ ")
	case *ast.ThematicBreak:
		m.line(indent, strings.Repeat("─", 20))
		m.sb.WriteString("\n")
	case *ast.HTMLBlock:
	default:
		m.blocks(n, indent)
	}
}

// listItem writes the first line of an item after the marker and indents
// the rest under it.
func (m *mdWriter) listItem(item ast.Node, indent, marker string) {
	sub := &mdWriter{src: m.src, st: m.st}
	sub.blocks(item, "")
	body := strings.TrimRight(sub.sb.String(), "\n")
	pad := strings.Repeat(" ", runewidth.StringWidth(marker))
	for i, l := range strings.Split(body, "\n") {
		switch {
		case i == 0:
			m.line(indent, marker+l)
		case l == "":
			m.sb.WriteString("\n")
		default:
			m.line(indent, pad+l)
		}
	}
}

func (m *mdWriter) code(lines *text.Segments, indent string) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		l := strings.TrimRight(string(seg.Value(m.src)), "\n")
		m.line(indent, "    "+m.st.code.Sprint(l))
	}
	m.sb.WriteString("\n")
}

func (m *mdWriter) line(indent, s string) {
	m.sb.WriteString(strings.TrimRight(indent+s, " "))
	m.sb.WriteString("\n")
}

func (m *mdWriter) inline(parent ast.Node) string {
	var sb strings.Builder
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(m.src))
			switch {
			case n.HardLineBreak():
				sb.WriteString("\n")
			case n.SoftLineBreak():
				sb.WriteString(" ")
			}
		case *ast.String:
			sb.Write(n.Value)
		case *ast.CodeSpan:
			sb.WriteString(m.st.code.Sprint(m.inline(n)))
		case *ast.Emphasis:
			if n.Level >= 2 {
				sb.WriteString(m.st.bold.Sprint(m.inline(n)))
			} else {
				sb.WriteString(m.inline(n))
			}
		case *ast.Link:
			label := m.inline(n)
			dest := string(n.Destination)
			if label == dest || dest == "" {
				sb.WriteString(label)
			} else {
				sb.WriteString(label + " (" + dest + ")")
			}
		case *ast.AutoLink:
			sb.Write(n.URL(m.src))
		case *ast.RawHTML:
		default:
			sb.WriteString(m.inline(n))
		}
	}
	return sb.String()
}
