package domain

// TextFormat is a style applied to the code points [StartOffset, EndOffset)
// of a text block. Ranges may overlap.
type TextFormat struct {
	StartOffset   int    `json:"start_offset"`
	EndOffset     int    `json:"end_offset"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Link          string `json:"link,omitempty"`
	Font          string `json:"font,omitempty"`
	Size          string `json:"size,omitempty"`
}

// Style is the attribute part of a TextFormat.
type Style struct {
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	Link          string `json:"link,omitempty"`
	Font          string `json:"font,omitempty"`
	Size          string `json:"size,omitempty"`
}

func (s Style) IsZero() bool { return s == Style{} }

// Merge returns s with every attribute set in o applied on top.
func (s Style) Merge(o Style) Style {
	s.Bold = s.Bold || o.Bold
	s.Italic = s.Italic || o.Italic
	s.Underline = s.Underline || o.Underline
	s.Strikethrough = s.Strikethrough || o.Strikethrough
	if o.Link != "" {
		s.Link = o.Link
	}
	if o.Font != "" {
		s.Font = o.Font
	}
	if o.Size != "" {
		s.Size = o.Size
	}
	return s
}

func (f TextFormat) Style() Style {
	return Style{
		Bold:          f.Bold,
		Italic:        f.Italic,
		Underline:     f.Underline,
		Strikethrough: f.Strikethrough,
		Link:          f.Link,
		Font:          f.Font,
		Size:          f.Size,
	}
}

// WithStyle returns f with its attributes replaced by s.
func (f TextFormat) WithStyle(s Style) TextFormat {
	f.Bold = s.Bold
	f.Italic = s.Italic
	f.Underline = s.Underline
	f.Strikethrough = s.Strikethrough
	f.Link = s.Link
	f.Font = s.Font
	f.Size = s.Size
	return f
}

// Valid reports whether the range is well formed for a text of textLen code points.
func (f TextFormat) Valid(textLen int) bool {
	return f.StartOffset >= 0 && f.StartOffset < f.EndOffset && f.EndOffset <= textLen
}
