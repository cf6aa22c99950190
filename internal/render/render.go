// Package render implements the second, render-only pass over an
// include-resolved tree: residual Markdown markers are converted to HTML and
// dynamic panels are materialized into placeholder elements.
package render

import (
	"context"
	"os"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docweave/internal/dom"
	"git.home.luguber.info/inful/docweave/internal/include"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/metrics"
	"git.home.luguber.info/inful/docweave/internal/observability"
)

// DefaultFragmentSuffix is the sibling-file naming convention a dynamic
// panel's src is rewritten to. A separate build step materializes that
// fragment file independently.
const DefaultFragmentSuffix = ".fragment.html"

// Pass walks an include-resolved tree once. One Pass serves one render run;
// the dynamic source log is scoped to it.
type Pass struct {
	md             *markdown.Renderer
	recorder       metrics.Recorder
	fragmentSuffix string

	dynamicSources []string
}

// NewPass creates a render pass. An empty fragmentSuffix selects the default
// convention.
func NewPass(md *markdown.Renderer, rec metrics.Recorder, fragmentSuffix string) *Pass {
	if fragmentSuffix == "" {
		fragmentSuffix = DefaultFragmentSuffix
	}
	return &Pass{md: md, recorder: metrics.OrNoop(rec), fragmentSuffix: fragmentSuffix}
}

// DynamicSources returns the ordered list of dynamic include sources seen
// during the pass. A source included twice appears twice.
func (p *Pass) DynamicSources() []string {
	out := make([]string, len(p.dynamicSources))
	copy(out, p.dynamicSources)
	return out
}

// Run processes the top-level sibling nodes and returns the updated sequence.
// Unwrapped inline Markdown markers may change the node count.
func (p *Pass) Run(ctx context.Context, nodes []*html.Node) ([]*html.Node, error) {
	var out []*html.Node
	for _, n := range nodes {
		repl, err := p.renderNode(ctx, n)
		if err != nil {
			return nil, err
		}
		out = append(out, repl...)
	}
	return out, nil
}

func (p *Pass) renderNode(ctx context.Context, n *html.Node) ([]*html.Node, error) {
	if n.Type == html.ElementNode {
		switch strings.ToLower(n.Data) {
		case include.MarkdownMarkerTag:
			inline := dom.HasAttr(n, "inline")
			if err := p.renderMarkdownMarker(n); err != nil {
				return nil, err
			}
			// The re-parsed content may itself carry nested markers or panels.
			if err := p.renderChildren(ctx, n); err != nil {
				return nil, err
			}
			if inline {
				// Inline content joins the surrounding flow; no wrapper survives.
				return detachChildren(n), nil
			}
			return []*html.Node{n}, nil

		case include.DynamicPanelTag:
			p.materializePanel(ctx, n)
		}
	}

	if err := p.renderChildren(ctx, n); err != nil {
		return nil, err
	}
	return []*html.Node{n}, nil
}

func (p *Pass) renderChildren(ctx context.Context, n *html.Node) error {
	children := detachChildren(n)
	rendered, err := p.Run(ctx, children)
	if err != nil {
		return err
	}
	for _, c := range rendered {
		n.AppendChild(c)
	}
	return nil
}

// renderMarkdownMarker converts a markdown marker element: its children are
// serialized back to text, rendered, re-parsed, and re-attached; the marker
// becomes a plain div.
func (p *Pass) renderMarkdownMarker(n *html.Node) error {
	inline := dom.HasAttr(n, "inline")

	src, err := dom.RenderChildren(n)
	if err != nil {
		return err
	}

	var rendered string
	if inline {
		rendered, err = p.md.RenderInline(src)
	} else {
		rendered, err = p.md.Render(src)
	}
	if err != nil {
		return err
	}

	parsed, err := dom.Parse(rendered)
	if err != nil {
		return err
	}

	dom.Rename(n, "div")
	dom.RemoveAttr(n, "inline")
	dom.ReplaceChildren(n, parsed)
	return nil
}

// materializePanel fills in the presentation attributes of a dynamic panel
// and records its source. When src names an existing local file, it is
// rewritten to the sibling fragment filename a later build step produces;
// remote or missing sources are left untouched.
func (p *Pass) materializePanel(ctx context.Context, n *html.Node) {
	isOpen := dom.GetAttr(n, "isOpen")
	if isOpen == "" {
		isOpen = "false"
	}
	dom.SetAttr(n, "isOpen", isOpen)
	dom.SetAttr(n, "header", dom.GetAttr(n, "name"))

	src := dom.GetAttr(n, "src")
	p.dynamicSources = append(p.dynamicSources, src)
	p.recorder.DynamicPanel()

	path, anchor := splitAnchor(src)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		// Remote URL or a path that cannot be checked; leave src unchanged.
		observability.DebugContext(ctx, "Dynamic panel source not rewritten", logfields.Src(src))
		return
	}

	rewritten := trimExt(path) + p.fragmentSuffix
	if anchor != "" {
		rewritten += "#" + anchor
	}
	dom.SetAttr(n, "src", rewritten)
}

func trimExt(path string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndex(path, "/") {
		return path[:i]
	}
	return path
}

func splitAnchor(src string) (base, anchor string) {
	base, anchor, _ = strings.Cut(src, "#")
	return base, anchor
}

func detachChildren(n *html.Node) []*html.Node {
	children := dom.Children(n)
	for _, c := range children {
		n.RemoveChild(c)
	}
	return children
}
