package dom

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestParse_KeepsCustomElements(t *testing.T) {
	nodes, err := Parse(`<include src="part.md"></include>`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, html.ElementNode, nodes[0].Type)
	require.Equal(t, "include", nodes[0].Data)
	require.Equal(t, "part.md", GetAttr(nodes[0], "src"))
}

func TestParse_SelfClosingCustomElement(t *testing.T) {
	// A trailing slash must terminate the element: "tail" is a sibling,
	// not a child.
	nodes, err := Parse(`<include src="part.md" inline />tail`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, "include", nodes[0].Data)
	require.Nil(t, nodes[0].FirstChild)
	require.Equal(t, html.TextNode, nodes[1].Type)
	require.Equal(t, "tail", nodes[1].Data)
}

func TestParse_NoImpliedDocumentScaffolding(t *testing.T) {
	nodes, err := Parse(`<p>hello</p>`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "p", nodes[0].Data)

	out, err := Render(nodes)
	require.NoError(t, err)
	require.Equal(t, `<p>hello</p>`, out)
}

func TestParse_TextAndComments(t *testing.T) {
	nodes, err := Parse("# Title\n<!-- note -->")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, html.TextNode, nodes[0].Type)
	require.Equal(t, "# Title\n", nodes[0].Data)
	require.Equal(t, html.CommentNode, nodes[1].Type)
}

func TestParse_StrayEndTagIsDropped(t *testing.T) {
	nodes, err := Parse(`<div>a</span>b</div>`)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	out, err := Render(nodes)
	require.NoError(t, err)
	require.Equal(t, `<div>ab</div>`, out)
}

func TestAttrHelpers_CaseInsensitive(t *testing.T) {
	nodes, err := Parse(`<dynamic-panel isOpen name="x"></dynamic-panel>`)
	require.NoError(t, err)
	n := nodes[0]

	// The tokenizer lowercases attribute keys on input.
	require.True(t, HasAttr(n, "isOpen"))
	require.Equal(t, "", GetAttr(n, "isOpen"))

	SetAttr(n, "isOpen", "false")
	require.Equal(t, "false", GetAttr(n, "isopen"))

	RemoveAttr(n, "NAME")
	require.False(t, HasAttr(n, "name"))
}

func TestRename(t *testing.T) {
	nodes, err := Parse(`<include></include>`)
	require.NoError(t, err)
	Rename(nodes[0], "div")

	out, err := Render(nodes)
	require.NoError(t, err)
	require.Equal(t, `<div></div>`, out)
}

func TestReplaceChildren(t *testing.T) {
	parent, err := Parse(`<div>old</div>`)
	require.NoError(t, err)
	repl, err := Parse(`<span>new</span>`)
	require.NoError(t, err)

	ReplaceChildren(parent[0], repl)
	out, err := Render(parent)
	require.NoError(t, err)
	require.Equal(t, `<div><span>new</span></div>`, out)
}

func TestReplaceWith(t *testing.T) {
	nodes, err := Parse(`<div><include></include>tail</div>`)
	require.NoError(t, err)
	inc := nodes[0].FirstChild
	repl, err := Parse(`<b>x</b>`)
	require.NoError(t, err)

	ReplaceWith(inc, repl)
	out, err := Render(nodes)
	require.NoError(t, err)
	require.Equal(t, `<div><b>x</b>tail</div>`, out)
}

func TestVoidElementsTakeNoChildren(t *testing.T) {
	nodes, err := Parse(`<img src="a.png">after`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Nil(t, nodes[0].FirstChild)
}
