// Package dom wraps the golang.org/x/net/html parser with a lenient
// fragment-level API used by the flattening pipeline.
//
// Document sources are fragments, not full pages: there is no implied
// <html><head><body> scaffolding, custom elements such as <include> are kept
// verbatim, and a trailing slash on a non-void start tag is honored as
// self-closing. The stricter html.Parse tree constructor does none of those
// things, so parsing here is built directly on html.Tokenizer.
package dom

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// voidElements never take children even without a closing slash.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Parse parses markup text into a sequence of sibling nodes.
//
// Tag and attribute names arrive lowercased from the tokenizer. The returned
// nodes are detached (no parent).
func Parse(text string) ([]*html.Node, error) {
	z := html.NewTokenizer(strings.NewReader(text))

	root := &html.Node{Type: html.DocumentNode}
	stack := []*html.Node{root}
	top := func() *html.Node { return stack[len(stack)-1] }

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, ferrors.WrapError(ferrors.ErrParse, ferrors.CategoryParse, "tokenize markup").
					WithContext("cause", err.Error()).Build()
			}
			return detachChildren(root), nil

		case html.TextToken:
			top().AppendChild(&html.Node{Type: html.TextNode, Data: string(z.Text())})

		case html.StartTagToken:
			n := elementFromToken(z)
			top().AppendChild(n)
			if !voidElements[n.Data] {
				stack = append(stack, n)
			}

		case html.SelfClosingTagToken:
			top().AppendChild(elementFromToken(z))

		case html.EndTagToken:
			name, _ := z.TagName()
			// Pop to the nearest matching open element; stray end tags are dropped.
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Data == string(name) {
					stack = stack[:i]
					break
				}
			}

		case html.CommentToken:
			top().AppendChild(&html.Node{Type: html.CommentNode, Data: string(z.Text())})

		case html.DoctypeToken:
			top().AppendChild(&html.Node{Type: html.DoctypeNode, Data: string(z.Text())})
		}
	}
}

func elementFromToken(z *html.Tokenizer) *html.Node {
	name, hasAttr := z.TagName()
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     string(name),
		DataAtom: atom.Lookup(name),
	}
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		n.Attr = append(n.Attr, html.Attribute{Key: string(key), Val: string(val)})
	}
	return n
}

// Render serializes a sequence of sibling nodes back to markup text.
func Render(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryParse, "serialize markup").Build()
		}
	}
	return buf.String(), nil
}

// RenderChildren serializes the children of n to markup text.
func RenderChildren(n *html.Node) (string, error) {
	return Render(Children(n))
}

// Children collects the direct children of n into a slice.
func Children(n *html.Node) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

// detachChildren removes and returns all children of n.
func detachChildren(n *html.Node) []*html.Node {
	children := Children(n)
	for _, c := range children {
		n.RemoveChild(c)
	}
	return children
}

// GetAttr retrieves an attribute value by case-insensitive key.
func GetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether the attribute is present, regardless of value.
func HasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return true
		}
	}
	return false
}

// SetAttr sets an attribute, replacing a case-insensitive match if present.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Key = key
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// RemoveAttr removes an attribute by case-insensitive key.
func RemoveAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if !strings.EqualFold(a.Key, key) {
			out = append(out, a)
		}
	}
	n.Attr = out
}

// Rename changes the element name of n.
func Rename(n *html.Node, name string) {
	n.Data = name
	n.DataAtom = atom.Lookup([]byte(name))
}

// ReplaceChildren removes the current children of n and attaches the given
// nodes in order. The nodes must be detached.
func ReplaceChildren(n *html.Node, children []*html.Node) {
	for _, c := range Children(n) {
		n.RemoveChild(c)
	}
	for _, c := range children {
		n.AppendChild(c)
	}
}

// ReplaceWith splices the given nodes into n's parent in place of n.
// n must have a parent.
func ReplaceWith(n *html.Node, nodes []*html.Node) {
	parent := n.Parent
	for _, repl := range nodes {
		parent.InsertBefore(repl, n)
	}
	parent.RemoveChild(n)
}
