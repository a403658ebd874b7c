package format

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"blocknotes/internal/domain"
)

var zeroWidth = strings.NewReplacer(
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

// Extract walks the subtree rooted at n depth-first and returns its plain
// text together with a format range for every styled text leaf. Offsets are
// measured after zero-width characters are stripped.
func Extract(n *html.Node) (string, []domain.TextFormat) {
	w := &walker{}
	w.walk(n, domain.Style{}, true)
	return w.buf.String(), mergeAdjacent(w.formats)
}

// ExtractHTML sanitizes markup coming from an editable surface and extracts
// its text and formats.
func ExtractHTML(markup string) (string, []domain.TextFormat, error) {
	clean := Sanitize(markup)
	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(clean), root)
	if err != nil {
		return "", nil, fmt.Errorf("parse markup: %w", err)
	}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	text, formats := Extract(root)
	return text, formats, nil
}

type walker struct {
	buf     strings.Builder
	n       int
	last    rune
	formats []domain.TextFormat
}

func (w *walker) write(s string) {
	w.buf.WriteString(s)
	w.n += utf8.RuneCountInString(s)
	r, _ := utf8.DecodeLastRuneInString(s)
	w.last = r
}

func (w *walker) walk(n *html.Node, st domain.Style, root bool) {
	switch n.Type {
	case html.TextNode:
		s := zeroWidth.Replace(n.Data)
		// Indentation between block elements, as emitted by HTML serializers.
		if s == "" || (strings.TrimSpace(s) == "" && strings.Contains(s, "\n")) {
			return
		}
		start := w.n
		w.write(s)
		if !st.IsZero() {
			w.formats = append(w.formats, domain.TextFormat{StartOffset: start, EndOffset: w.n}.WithStyle(st))
		}
		return
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Br:
			w.write("\n")
			return
		case atom.Script, atom.Style, atom.Head, atom.Title:
			return
		}
		if !root && isBlock(n) {
			if w.n > 0 && w.last != '\n' {
				w.write("\n")
			}
			if onlyChildIsBreak(n) {
				// Empty line placeholder: the line itself was already opened.
				if w.n == 0 {
					w.write("\n")
				}
				return
			}
		}
		st = inherit(n, st)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, st, false)
	}
}

func isBlock(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Div, atom.P, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote, atom.Pre:
		return true
	}
	return false
}

func onlyChildIsBreak(n *html.Node) bool {
	c := n.FirstChild
	return c != nil && c.NextSibling == nil && c.Type == html.ElementNode && c.DataAtom == atom.Br
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func inherit(n *html.Node, st domain.Style) domain.Style {
	switch n.DataAtom {
	case atom.B, atom.Strong, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		st.Bold = true
	case atom.I, atom.Em:
		st.Italic = true
	case atom.U:
		st.Underline = true
	case atom.S, atom.Strike, atom.Del:
		st.Strikethrough = true
	case atom.A:
		if href := attr(n, "href"); href != "" {
			st.Link = href
		}
	case atom.Font:
		if face := attr(n, "face"); face != "" {
			st.Font = face
		}
		if size := attr(n, "size"); size != "" {
			st.Size = size
		}
	}
	if css := attr(n, "style"); css != "" {
		st = applyCSS(css, st)
	}
	return st
}

func applyCSS(css string, st domain.Style) domain.Style {
	for _, decl := range strings.Split(css, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		v = strings.TrimSpace(v)
		lv := strings.ToLower(v)
		switch k {
		case "font-weight":
			st.Bold = isBoldWeight(lv)
		case "font-style":
			st.Italic = lv == "italic" || lv == "oblique"
		case "text-decoration", "text-decoration-line":
			if strings.Contains(lv, "underline") {
				st.Underline = true
			}
			if strings.Contains(lv, "line-through") {
				st.Strikethrough = true
			}
			if lv == "none" {
				st.Underline, st.Strikethrough = false, false
			}
		case "font-family":
			st.Font = strings.Trim(v, `"'`)
		case "font-size":
			st.Size = v
		}
	}
	return st
}

func isBoldWeight(v string) bool {
	switch v {
	case "bold", "bolder":
		return true
	case "normal", "lighter":
		return false
	}
	n, err := strconv.Atoi(v)
	return err == nil && n >= 600
}

func mergeAdjacent(formats []domain.TextFormat) []domain.TextFormat {
	if len(formats) < 2 {
		return formats
	}
	out := formats[:1]
	for _, f := range formats[1:] {
		last := &out[len(out)-1]
		if last.EndOffset == f.StartOffset && last.Style() == f.Style() {
			last.EndOffset = f.EndOffset
			continue
		}
		out = append(out, f)
	}
	return out
}
