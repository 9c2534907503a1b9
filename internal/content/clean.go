package content

import (
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedTags are stripped from the tree entirely, along with their subtrees,
// before any text is emitted (spec §4.5: nav/footer/script/style/ads).
var droppedTags = map[atom.Atom]bool{
	atom.Nav:    true,
	atom.Footer: true,
	atom.Script: true,
	atom.Style:  true,
	atom.Header: true,
	atom.Aside:  true,
}

// Clean converts an HTML body to Markdown, preserving headings, paragraphs,
// lists, tables, code blocks, and links while dropping navigation, footers,
// and script/style content (spec §4.5). Non-HTML bodies pass through
// unchanged by the caller; Clean is only meaningful for text/html bodies.
// On malformed input that the tokenizer cannot recover from, Clean returns
// the original body and logs a warning, matching the "cleaning failure
// returns the original body" contract.
func Clean(body []byte) []byte {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		slog.Warn("content: html parse failed, passing body through", slog.String("error", err.Error()))
		return body
	}

	var b strings.Builder
	walk(doc, &b, walkState{})
	out := strings.TrimSpace(collapseBlankLines(b.String()))
	if out == "" {
		return body
	}
	return []byte(out)
}

type walkState struct {
	listDepth  int
	ordered    bool
	listIndex  int
	inPre      bool
}

func walk(n *html.Node, b *strings.Builder, st walkState) {
	if n.Type == html.ElementNode && droppedTags[n.DataAtom] {
		return
	}

	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !st.inPre {
			text = collapseSpaces(text)
		}
		if text != "" {
			b.WriteString(text)
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.DataAtom - atom.H1 + 1)
			b.WriteString("\n\n" + strings.Repeat("#", level) + " ")
			walkChildren(n, b, st)
			b.WriteString("\n\n")
			return
		case atom.P:
			b.WriteString("\n\n")
			walkChildren(n, b, st)
			b.WriteString("\n\n")
			return
		case atom.Br:
			b.WriteString("\n")
			return
		case atom.A:
			href := attr(n, "href")
			b.WriteString("[")
			walkChildren(n, b, st)
			b.WriteString("](" + href + ")")
			return
		case atom.Ul:
			st.listDepth++
			st.ordered = false
			b.WriteString("\n")
			walkChildren(n, b, st)
			b.WriteString("\n")
			return
		case atom.Ol:
			st.listDepth++
			st.ordered = true
			st.listIndex = 0
			b.WriteString("\n")
			walkChildren(n, b, st)
			b.WriteString("\n")
			return
		case atom.Li:
			st.listIndex++
			indent := strings.Repeat("  ", st.listDepth-1)
			if st.ordered {
				b.WriteString("\n" + indent + strconv.Itoa(st.listIndex) + ". ")
			} else {
				b.WriteString("\n" + indent + "- ")
			}
			walkChildren(n, b, st)
			return
		case atom.Pre:
			b.WriteString("\n\n```\n")
			st.inPre = true
			walkChildren(n, b, st)
			st.inPre = false
			b.WriteString("\n```\n\n")
			return
		case atom.Code:
			if st.inPre {
				walkChildren(n, b, st)
				return
			}
			b.WriteString("`")
			walkChildren(n, b, st)
			b.WriteString("`")
			return
		case atom.Table:
			writeTable(n, b)
			return
		case atom.Strong, atom.B:
			b.WriteString("**")
			walkChildren(n, b, st)
			b.WriteString("**")
			return
		case atom.Em, atom.I:
			b.WriteString("_")
			walkChildren(n, b, st)
			b.WriteString("_")
			return
		}
	}

	walkChildren(n, b, st)
}

func walkChildren(n *html.Node, b *strings.Builder, st walkState) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b, st)
	}
}

// writeTable renders a <table> as a GitHub-flavored Markdown table, reading
// only the first-level <tr>/<th>/<td> structure (no rowspan/colspan support).
func writeTable(n *html.Node, b *strings.Builder) {
	var rows [][]string
	var collectRows func(*html.Node)
	collectRows = func(node *html.Node) {
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Tr {
				var cells []string
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.DataAtom == atom.Td || cell.DataAtom == atom.Th {
						var cb strings.Builder
						walkChildren(cell, &cb, walkState{})
						cells = append(cells, strings.TrimSpace(cb.String()))
					}
				}
				if len(cells) > 0 {
					rows = append(rows, cells)
				}
				continue
			}
			collectRows(c)
		}
	}
	collectRows(n)

	if len(rows) == 0 {
		return
	}

	b.WriteString("\n\n")
	writeRow(b, rows[0])
	b.WriteString("|" + strings.Repeat(" --- |", len(rows[0])) + "\n")
	for _, r := range rows[1:] {
		writeRow(b, r)
	}
	b.WriteString("\n")
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString("|")
	for _, c := range cells {
		b.WriteString(" " + c + " |")
	}
	b.WriteString("\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	var out []string
	blank := 0
	for _, l := range lines {
		trimmed := strings.TrimRight(l, " \t")
		if trimmed == "" {
			blank++
			if blank > 2 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
