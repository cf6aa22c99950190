// Package trim strips comment nodes and whitespace-only text nodes from a
// tree. It runs only on the final render-path tree, after the render pass
// and before serialization.
package trim

import (
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/docweave/internal/dom"
)

// Nodes filters a top-level sibling sequence and recursively trims every
// element's children.
func Nodes(nodes []*html.Node) []*html.Node {
	out := nodes[:0]
	for _, n := range nodes {
		if drop(n) {
			continue
		}
		trimChildren(n)
		out = append(out, n)
	}
	return out
}

func trimChildren(n *html.Node) {
	for _, c := range dom.Children(n) {
		if drop(c) {
			n.RemoveChild(c)
			continue
		}
		trimChildren(c)
	}
}

func drop(n *html.Node) bool {
	switch n.Type {
	case html.CommentNode:
		return true
	case html.TextNode:
		return strings.TrimSpace(n.Data) == ""
	default:
		return false
	}
}
