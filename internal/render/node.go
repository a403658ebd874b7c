// Package render produces render descriptions: plain trees of nodes the
// presentation layer turns into its own widgets. Nothing here touches a DOM.
package render

import (
	"html"
	"sort"
	"strings"
)

// Node is one element or text run of a render description.
type Node struct {
	Tag      string            `json:"tag,omitempty"`
	Key      string            `json:"key,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Markup   string            `json:"markup,omitempty"` // trusted inner markup, replaces Children
	Children []Node            `json:"children,omitempty"`
}

// El builds an element node.
func El(tag string, attrs map[string]string, children ...Node) Node {
	return Node{Tag: tag, Attrs: attrs, Children: children}
}

// Txt builds a text node.
func Txt(s string) Node { return Node{Text: s} }

var voidTags = map[string]bool{"br": true, "img": true, "input": true, "hr": true}

// HTML renders n as markup.
func HTML(n Node) string {
	var sb strings.Builder
	write(&sb, n)
	return sb.String()
}

func write(sb *strings.Builder, n Node) {
	if n.Tag == "" {
		sb.WriteString(html.EscapeString(n.Text))
		return
	}
	sb.WriteString("<" + n.Tag)
	attrs := n.Attrs
	if n.Key != "" {
		attrs = withAttr(attrs, "data-key", n.Key)
	}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" " + k + `="` + html.EscapeString(attrs[k]) + `"`)
	}
	sb.WriteString(">")
	if voidTags[n.Tag] {
		return
	}
	if n.Markup != "" {
		sb.WriteString(n.Markup)
	} else {
		if n.Text != "" {
			sb.WriteString(html.EscapeString(n.Text))
		}
		for _, c := range n.Children {
			write(sb, c)
		}
	}
	sb.WriteString("</" + n.Tag + ">")
}

func withAttr(attrs map[string]string, k, v string) map[string]string {
	out := make(map[string]string, len(attrs)+1)
	for ak, av := range attrs {
		out[ak] = av
	}
	out[k] = v
	return out
}

// Find returns the first node in the tree whose attribute k equals v.
func Find(n Node, k, v string) (Node, bool) {
	if n.Attrs[k] == v {
		return n, true
	}
	for _, c := range n.Children {
		if found, ok := Find(c, k, v); ok {
			return found, true
		}
	}
	return Node{}, false
}
