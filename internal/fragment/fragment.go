// Package fragment extracts anchor-addressed fragments from markup content.
package fragment

import (
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/docweave/internal/dom"
)

// Extract parses content and returns the serialized inner content of the
// element whose id matches anchor. Anchors are compared after NFC
// normalization so composed and decomposed spellings of the same identifier
// match. found is false when no element carries the anchor; the content
// result is then empty rather than an error, and the caller decides how to
// surface that.
func Extract(content, anchor string) (result string, found bool, err error) {
	nodes, err := dom.Parse(content)
	if err != nil {
		return "", false, err
	}

	want := norm.NFC.String(anchor)
	target := findByID(nodes, want)
	if target == nil {
		return "", false, nil
	}

	inner, err := dom.RenderChildren(target)
	if err != nil {
		return "", false, err
	}
	return inner, true, nil
}

func findByID(nodes []*html.Node, id string) *html.Node {
	for _, n := range nodes {
		if n.Type == html.ElementNode && norm.NFC.String(dom.GetAttr(n, "id")) == id {
			return n
		}
		if hit := findByID(dom.Children(n), id); hit != nil {
			return hit
		}
	}
	return nil
}
