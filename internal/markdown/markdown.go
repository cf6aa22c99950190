// Package markdown wraps Goldmark as the pipeline's Markdown-to-HTML black box.
package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// Options selects the Goldmark extension set by name.
type Options struct {
	Extensions []string
}

// Renderer converts Markdown text to HTML text.
//
// Raw HTML always passes through (WithUnsafe): include directives and other
// custom elements embedded in Markdown sources must survive rendering so the
// resolver can still see them.
type Renderer struct {
	md goldmark.Markdown
}

// extensionsByName maps config extension names to Goldmark extenders.
var extensionsByName = map[string]goldmark.Extender{
	"gfm":             extension.GFM,
	"table":           extension.Table,
	"strikethrough":   extension.Strikethrough,
	"tasklist":        extension.TaskList,
	"linkify":         extension.Linkify,
	"typographer":     extension.Typographer,
	"footnote":        extension.Footnote,
	"definition-list": extension.DefinitionList,
}

// KnownExtensions lists the accepted extension names, for config validation.
func KnownExtensions() []string {
	names := make([]string, 0, len(extensionsByName))
	for name := range extensionsByName {
		names = append(names, name)
	}
	return names
}

// New builds a Renderer. Unknown extension names are rejected up front so a
// typo in config fails the run instead of silently changing output.
func New(opts Options) (*Renderer, error) {
	extenders := make([]goldmark.Extender, 0, len(opts.Extensions))
	for _, name := range opts.Extensions {
		ext, ok := extensionsByName[strings.ToLower(name)]
		if !ok {
			return nil, ferrors.ConfigError("unknown markdown extension").
				WithContext("extension", name).Build()
		}
		extenders = append(extenders, ext)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extenders...),
		goldmark.WithParserOptions(parser.WithAttribute()),
		goldmark.WithRendererOptions(ghtml.WithUnsafe()),
	)
	return &Renderer{md: md}, nil
}

// Render converts Markdown text to HTML text.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "render markdown").Build()
	}
	return buf.String(), nil
}

// RenderInline converts Markdown text to HTML and strips a single enclosing
// paragraph, so the result can be spliced into surrounding inline content
// without starting a new block.
func (r *Renderer) RenderInline(src string) (string, error) {
	out, err := r.Render(src)
	if err != nil {
		return "", err
	}
	out = strings.TrimRight(out, "\n")
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") {
		inner := out[len("<p>") : len(out)-len("</p>")]
		// Only unwrap when the trimmed output is one paragraph.
		if !strings.Contains(inner, "<p>") {
			return inner, nil
		}
	}
	return out, nil
}

// IsMarkdownPath reports whether the path names a Markdown source, by extension.
func IsMarkdownPath(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".markdown")
}
