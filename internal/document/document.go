package document

import "io"

// Document is a titled list of text lines, such as a shopping list.
type Document struct {
	Title   string
	Subject string
	Author  string
	Lines   []string
}

// Renderer writes a Document in some output format.
type Renderer interface {
	Render(w io.Writer, doc Document) error
	ContentType() string
}
