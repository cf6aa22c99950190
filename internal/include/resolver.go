// Package include implements the recursive include-resolution pass.
//
// The resolver walks a parsed document tree depth-first and replaces every
// <include> directive with spliced content (or a deferred dynamic-panel
// marker), re-entering itself across file boundaries with a fresh Context
// per included file.
package include

import (
	"context"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docweave/internal/dom"
	"git.home.luguber.info/inful/docweave/internal/filecache"
	"git.home.luguber.info/inful/docweave/internal/fragment"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/metrics"
	"git.home.luguber.info/inful/docweave/internal/observability"
)

// IncludeTag is the element name of the include directive.
const IncludeTag = "include"

// MarkdownMarkerTag marks deferred Markdown content for the render pass.
const MarkdownMarkerTag = "markdown"

// DynamicPanelTag is the terminal element name of a deferred dynamic include.
const DynamicPanelTag = "dynamic-panel"

// Resolver resolves include directives. One Resolver serves one top-level
// operation; warnings and the cycle-detection stack are scoped to it.
type Resolver struct {
	cache    *filecache.Cache
	md       *markdown.Renderer
	recorder metrics.Recorder

	warnings []Warning
	open     map[string]bool // absolute paths on the active resolution stack
	chain    []string        // same paths in stack order, for error reporting
}

// NewResolver creates a Resolver backed by the given cache and renderer.
func NewResolver(cache *filecache.Cache, md *markdown.Renderer, rec metrics.Recorder) *Resolver {
	return &Resolver{
		cache:    cache,
		md:       md,
		recorder: metrics.OrNoop(rec),
		open:     make(map[string]bool),
	}
}

// Warnings returns the warnings collected so far, in occurrence order.
func (r *Resolver) Warnings() []Warning {
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	return out
}

// ResolveTree resolves all include directives in the given top-level sibling
// nodes and returns the combined tree. The root file named by ic.CurrentFile
// is considered open for cycle detection.
func (r *Resolver) ResolveTree(ctx context.Context, nodes []*html.Node, ic Context) ([]*html.Node, error) {
	root := filepath.Clean(ic.CurrentFile)
	r.open[root] = true
	r.chain = append(r.chain, root)
	defer func() {
		delete(r.open, root)
		r.chain = r.chain[:len(r.chain)-1]
	}()
	return r.resolveNodes(ctx, nodes, ic)
}

// resolveNodes resolves each node in order, splicing replacements in place of
// unwrapped inline includes.
func (r *Resolver) resolveNodes(ctx context.Context, nodes []*html.Node, ic Context) ([]*html.Node, error) {
	var out []*html.Node
	for _, n := range nodes {
		repl, err := r.resolveNode(ctx, n, ic)
		if err != nil {
			return nil, err
		}
		out = append(out, repl...)
	}
	return out, nil
}

// resolveNode resolves one node. Non-include elements keep their identity and
// have their children resolved under the same context; include directives
// are rewritten per the directive's flags and may expand to zero or more
// replacement nodes.
func (r *Resolver) resolveNode(ctx context.Context, n *html.Node, ic Context) ([]*html.Node, error) {
	if n.Type != html.ElementNode {
		return []*html.Node{n}, nil
	}
	if strings.ToLower(n.Data) == IncludeTag {
		return r.resolveInclude(ctx, n, ic)
	}

	children := dom.Children(n)
	for _, c := range children {
		n.RemoveChild(c)
	}
	resolved, err := r.resolveNodes(ctx, children, ic)
	if err != nil {
		return nil, err
	}
	for _, c := range resolved {
		n.AppendChild(c)
	}
	return []*html.Node{n}, nil
}

// resolveInclude executes the include decision sequence.
func (r *Resolver) resolveInclude(ctx context.Context, n *html.Node, ic Context) ([]*html.Node, error) {
	src := dom.GetAttr(n, "src")
	inline := dom.HasAttr(n, "inline")
	dynamic := dom.HasAttr(n, "dynamic")
	remote := isRemoteURL(src)

	base, anchor := splitAnchor(src)
	resolved := base
	if !remote {
		resolved = filepath.Join(filepath.Dir(ic.CurrentFile), base)
	}

	observability.DebugContext(ctx, "Resolving include",
		logfields.Src(src), logfields.File(ic.CurrentFile), logfields.Anchor(anchor))

	// Dynamic includes are terminal here: the panel is materialized by the
	// render pass and its content by a later standalone build.
	if dynamic {
		dom.Rename(n, DynamicPanelTag)
		dom.SetAttr(n, "src", joinAnchor(resolved, anchor))
		dom.RemoveAttr(n, "dynamic")
		r.recorder.IncludeResolved("dynamic")
		return []*html.Node{n}, nil
	}

	// Remote content is recorded, never fetched.
	if remote {
		if inline {
			dom.Rename(n, "span")
		} else {
			dom.Rename(n, "div")
		}
		r.recorder.IncludeResolved("remote")
		return []*html.Node{n}, nil
	}

	if r.open[filepath.Clean(resolved)] {
		return nil, ferrors.WrapError(ferrors.ErrIncludeCycle, ferrors.CategoryInclude, "include cycle").
			WithContext("path", resolved).
			WithContext("chain", strings.Join(r.chain, " -> ")).Build()
	}

	targetMarkdown := markdown.IsMarkdownPath(resolved)

	content, err := r.cache.Get(resolved)
	if err != nil {
		return nil, err
	}

	if anchor != "" {
		extracted, found, err := fragment.Extract(content, anchor)
		if err != nil {
			return nil, err
		}
		if !found {
			r.warn(ic.CurrentFile, src, anchor, "anchor matched no element; spliced empty content")
			r.recorder.AnchorMiss()
			observability.WarnContext(ctx, "Include anchor matched no element",
				logfields.Src(src), logfields.Anchor(anchor), logfields.File(ic.CurrentFile))
		}
		content = extracted
	}

	content, err = r.convertContent(content, targetMarkdown, inline, ic.Mode)
	if err != nil {
		return nil, err
	}

	children, err := dom.Parse(content)
	if err != nil {
		return nil, err
	}

	childFormat := FormatHTML
	if targetMarkdown {
		childFormat = FormatMarkdown
	}
	childCtx := ic.child(resolved, childFormat)

	key := filepath.Clean(resolved)
	r.open[key] = true
	r.chain = append(r.chain, key)
	resolvedChildren, err := r.resolveNodes(ctx, children, childCtx)
	delete(r.open, key)
	r.chain = r.chain[:len(r.chain)-1]
	if err != nil {
		return nil, err
	}

	// HTML including Markdown in include mode defers rendering: mark the
	// subtree so the render pass knows to convert it. An inline flag on the
	// marker tells that pass to splice rather than wrap.
	if ic.Format == FormatHTML && targetMarkdown && ic.Mode == ModeInclude {
		dom.Rename(n, MarkdownMarkerTag)
		dom.ReplaceChildren(n, resolvedChildren)
		r.recorder.IncludeResolved(kindOf(inline))
		return []*html.Node{n}, nil
	}

	if inline {
		// Inline content joins the surrounding flow directly; a wrapper
		// element would break text adjacency at the splice point.
		r.recorder.IncludeResolved("inline")
		return resolvedChildren, nil
	}

	dom.Rename(n, "div")
	dom.ReplaceChildren(n, resolvedChildren)
	r.recorder.IncludeResolved("block")
	return []*html.Node{n}, nil
}

// convertContent applies the per-mode content conversion rule: Markdown is
// rendered in render mode and padded (block) or left bare (inline) in include
// mode; HTML content is used verbatim in both modes.
func (r *Resolver) convertContent(content string, targetMarkdown, inline bool, mode Mode) (string, error) {
	if !targetMarkdown {
		return content, nil
	}
	if mode == ModeRender {
		if inline {
			return r.md.RenderInline(content)
		}
		return r.md.Render(content)
	}
	if inline {
		return content, nil
	}
	// A blank line before and a newline after keep Markdown paragraphs from
	// merging across the splice boundary.
	return "\n\n" + content + "\n", nil
}

func (r *Resolver) warn(file, src, anchor, message string) {
	r.warnings = append(r.warnings, Warning{File: file, Src: src, Anchor: anchor, Message: message})
}

func kindOf(inline bool) string {
	if inline {
		return "inline"
	}
	return "block"
}

// isRemoteURL reports whether src is an absolute URL rather than a path.
func isRemoteURL(src string) bool {
	i := strings.Index(src, "://")
	if i <= 0 {
		return false
	}
	for _, r := range src[:i] {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}

// splitAnchor separates an optional #anchor suffix from a src value.
func splitAnchor(src string) (base, anchor string) {
	base, anchor, _ = strings.Cut(src, "#")
	return base, anchor
}

// joinAnchor re-attaches an anchor suffix to a resolved path.
func joinAnchor(path, anchor string) string {
	if anchor == "" {
		return path
	}
	return path + "#" + anchor
}
