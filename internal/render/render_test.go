package render_test

import (
	"errors"
	"strings"
	"testing"

	"blocknotes/internal/domain"
	"blocknotes/internal/format"
	"blocknotes/internal/render"
)

func TestBlock_ContainerContract(t *testing.T) {
	for _, typ := range []domain.BlockType{domain.BlockTypeText, domain.BlockTypeCode, domain.BlockTypeImage} {
		b := domain.Block{ID: domain.PersistedID("42"), Type: typ}
		n := render.Block(b)
		if n.Key != "42" || n.Attrs["data-block-id"] != "42" {
			t.Errorf("%s: container not keyed by block id: %+v", typ, n.Attrs)
		}
		if _, ok := render.Find(n, "data-action", "insert"); !ok {
			t.Errorf("%s: missing insert handle", typ)
		}
	}
}

func TestBlock_LocalIDKey(t *testing.T) {
	n := render.Block(domain.Block{ID: domain.LocalID("abc"), Type: domain.BlockTypeText})
	id, err := domain.ParseBlockID(n.Key)
	if err != nil {
		t.Fatal(err)
	}
	if !id.IsLocal() || id != domain.LocalID("abc") {
		t.Fatalf("key %q does not parse back to the local id", n.Key)
	}
}

func TestTextRenderer_RenderAndInput(t *testing.T) {
	content := format.TextContent{Text: "a&b", Formats: []domain.TextFormat{{StartOffset: 0, EndOffset: 1, Bold: true}}}.Marshal()
	b := domain.Block{ID: domain.PersistedID("1"), Type: domain.BlockTypeText, Content: content}

	n := render.Block(b)
	surface, ok := render.Find(n, "data-input", "text")
	if !ok {
		t.Fatal("no text surface")
	}
	if surface.Markup != "<b>a</b>&amp;b" || surface.Attrs["contenteditable"] != "true" {
		t.Fatalf("surface = %+v", surface)
	}

	r, _ := render.For(domain.BlockTypeText)
	got, err := r.Input(b, render.InputEvent{Markup: "<i>xy</i>"})
	if err != nil {
		t.Fatal(err)
	}
	c := format.ParseTextContent(got)
	if c.Text != "xy" || len(c.Formats) != 1 || !c.Formats[0].Italic {
		t.Fatalf("content = %+v", c)
	}
}

func TestParseCodeContent_Fallback(t *testing.T) {
	cases := []struct {
		raw      string
		wantLang string
		wantText string
	}{
		{`{"language":"go","content":"x := 1"}`, "go", "x := 1"},
		{`not json at all`, render.DefaultLanguage, "not json at all"},
		{`{"language":"go",`, render.DefaultLanguage, `{"language":"go",`},
		{`{"language":"klingon","content":"qapla"}`, render.DefaultLanguage, "qapla"},
		{``, render.DefaultLanguage, ""},
	}
	for _, tc := range cases {
		c := render.ParseCodeContent(tc.raw)
		if c.Language != tc.wantLang || c.Content != tc.wantText {
			t.Errorf("ParseCodeContent(%q) = %+v", tc.raw, c)
		}
	}
}

func TestCodeRenderer_MalformedContent(t *testing.T) {
	b := domain.Block{ID: domain.PersistedID("7"), Type: domain.BlockTypeCode, Content: "SELECT 1 -- {oops"}
	n := render.Block(b)

	sel, ok := render.Find(n, "data-input", "language")
	if !ok {
		t.Fatal("no language selector")
	}
	selected := ""
	for _, opt := range sel.Children {
		if opt.Attrs["selected"] != "" {
			selected = opt.Attrs["value"]
		}
	}
	if selected != render.DefaultLanguage {
		t.Fatalf("selected = %q, want default", selected)
	}
	if html := render.HTML(n); !strings.Contains(html, "SELECT 1 -- {oops") {
		t.Fatalf("raw content not displayed: %s", html)
	}
}

func TestCodeRenderer_Input(t *testing.T) {
	b := domain.Block{ID: domain.PersistedID("7"), Type: domain.BlockTypeCode, Content: `{"language":"python","content":"print(1)"}`}
	r, _ := render.For(domain.BlockTypeCode)

	got, _ := r.Input(b, render.InputEvent{Text: "print(2)"})
	if c := render.ParseCodeContent(got); c.Language != "python" || c.Content != "print(2)" {
		t.Fatalf("text input: %+v", c)
	}
	got, _ = r.Input(b, render.InputEvent{Language: "go"})
	if c := render.ParseCodeContent(got); c.Language != "go" || c.Content != "print(1)" {
		t.Fatalf("language input: %+v", c)
	}
}

func TestHighlight_TokenSpans(t *testing.T) {
	nodes := render.Highlight("go", "func main() {}")
	found := false
	for _, n := range nodes {
		if n.Tag == "span" && n.Attrs["class"] == "kd" && len(n.Children) == 1 && n.Children[0].Text == "func" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a keyword span for func, got %+v", nodes)
	}
}

func TestImageRenderer(t *testing.T) {
	b := domain.Block{ID: domain.PersistedID("9"), Type: domain.BlockTypeImage, Content: "/uploads/cat.png"}
	img, ok := render.Find(render.Block(b), "class", "block-image")
	if !ok || img.Attrs["src"] != "/uploads/cat.png" {
		t.Fatalf("img = %+v", img)
	}
	r, _ := render.For(domain.BlockTypeImage)
	if _, err := r.Input(b, render.InputEvent{Text: "x"}); !errors.Is(err, render.ErrNotEditable) {
		t.Fatalf("err = %v", err)
	}
}

func TestHTML_EscapesAndOrdersAttributes(t *testing.T) {
	n := render.El("p", map[string]string{"title": `a"b`, "class": "x"}, render.Txt("<hi>"))
	if got := render.HTML(n); got != `<p class="x" title="a&#34;b">&lt;hi&gt;</p>` {
		t.Fatalf("got %s", got)
	}
}
