package transport

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer turns agent markdown into HTML. Raw HTML in the source is
// escaped, never passed through.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a renderer with links, strikethrough and hard wraps.
func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)}
}

// HTML renders markdown. It returns "" when rendering fails so clients fall
// back to the plain text.
func (r *Renderer) HTML(markdown string) string {
	if r == nil || markdown == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return ""
	}
	return buf.String()
}
