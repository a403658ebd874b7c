package format

import "github.com/microcosm-cc/bluemonday"

// policy admits only the formatting vocabulary an editable text surface can
// produce. Everything else is stripped before extraction.
var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "strong", "i", "em", "u", "s", "strike", "del", "br", "div", "p", "span",
		"h1", "h2", "h3", "h4", "h5", "h6", "li", "ul", "ol", "blockquote", "pre", "code", "font")
	p.AllowAttrs("face", "size").OnElements("font")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.AllowRelativeURLs(true)
	p.AllowStyles("font-weight", "font-style", "text-decoration", "text-decoration-line",
		"font-family", "font-size").Globally()
	return p
}

// Sanitize strips markup outside the formatting vocabulary.
func Sanitize(markup string) string {
	return policy.Sanitize(markup)
}
