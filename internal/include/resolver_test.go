package include

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docweave/internal/dom"
	"git.home.luguber.info/inful/docweave/internal/filecache"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/markdown"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	md, err := markdown.New(markdown.Options{})
	require.NoError(t, err)
	return NewResolver(filecache.New(), md, nil)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resolveText(t *testing.T, r *Resolver, text string, ic Context) string {
	t.Helper()
	nodes, err := dom.Parse(text)
	require.NoError(t, err)
	nodes, err = r.ResolveTree(context.Background(), nodes, ic)
	require.NoError(t, err)
	out, err := dom.Render(nodes)
	require.NoError(t, err)
	return out
}

func TestResolve_BlockIncludePadsMarkdown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "hello")
	root := writeFile(t, dir, "root.md", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `before
<include src="a.md"></include>
after`, Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})

	require.Contains(t, out, "<div>\n\nhello\n</div>")
	require.Contains(t, out, "before")
	require.Contains(t, out, "after")
}

func TestResolve_InlineIncludeSplicesWithoutWrapper(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "hello")
	root := writeFile(t, dir, "root.md", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="a.md" inline/>tail`,
		Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})

	require.Equal(t, "hellotail", out)
}

func TestResolve_NestedIncludeUsesIncludedFilesDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sub/one.md", `<include src="two.md" inline/>`)
	writeFile(t, dir, "sub/two.md", "deep")
	root := writeFile(t, dir, "root.md", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="sub/one.md"></include>`,
		Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})

	// two.md only exists under sub/; resolution against the root directory
	// would have failed.
	require.Contains(t, out, "deep")
}

func TestResolve_DynamicIncludeIsTerminal(t *testing.T) {
	dir := t.TempDir()
	panel := writeFile(t, dir, "panel.md", "content that must not be inlined")
	root := writeFile(t, dir, "root.md", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="panel.md" dynamic name="Panel"></include>`,
		Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})

	require.Contains(t, out, "<dynamic-panel")
	require.Contains(t, out, `src="`+panel+`"`)
	require.Contains(t, out, `name="Panel"`)
	require.NotContains(t, out, "dynamic=")
	require.NotContains(t, out, "must not be inlined")
}

func TestResolve_RemoteIncludeIsNotFetched(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.md", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="https://example.com/x.md"></include>`,
		Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})

	require.Contains(t, out, `<div src="https://example.com/x.md"></div>`)
}

func TestResolve_HTMLIncludingMarkdownDefersViaMarker(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "note.md", "**hi**")
	root := writeFile(t, dir, "root.html", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="note.md"></include>`,
		Context{CurrentFile: root, Format: FormatHTML, Mode: ModeInclude})

	require.Contains(t, out, "<markdown>")
	require.Contains(t, out, "**hi**")
}

func TestResolve_RenderModeRendersMarkdownEagerly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "note.md", "**hi**")
	root := writeFile(t, dir, "root.html", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="note.md"></include>`,
		Context{CurrentFile: root, Format: FormatHTML, Mode: ModeRender})

	require.Contains(t, out, "<strong>hi</strong>")
	require.NotContains(t, out, "<markdown")
}

func TestResolve_AnchorSelectsFragmentOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frag.html", `<div id="sec"><b>in</b></div><p>out</p>`)
	root := writeFile(t, dir, "root.html", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="frag.html#sec"></include>`,
		Context{CurrentFile: root, Format: FormatHTML, Mode: ModeInclude})

	require.Contains(t, out, "<b>in</b>")
	require.NotContains(t, out, "out")
	require.Empty(t, r.Warnings())
}

func TestResolve_MissingAnchorWarnsAndSplicesEmpty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "frag.html", `<div id="sec">x</div>`)
	root := writeFile(t, dir, "root.html", "")

	r := newTestResolver(t)
	out := resolveText(t, r, `<include src="frag.html#nope"></include>`,
		Context{CurrentFile: root, Format: FormatHTML, Mode: ModeInclude})

	require.Contains(t, out, "<div></div>")

	warnings := r.Warnings()
	require.Len(t, warnings, 1)
	require.Equal(t, "nope", warnings[0].Anchor)
	require.Equal(t, root, warnings[0].File)
}

func TestResolve_MissingIncludeFails(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "root.md", "")

	r := newTestResolver(t)
	nodes, err := dom.Parse(`<include src="gone.md"></include>`)
	require.NoError(t, err)
	_, err = r.ResolveTree(context.Background(), nodes, Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})
	require.Error(t, err)
	require.True(t, ferrors.Is(err, ferrors.ErrIncludeNotFound))
}

func TestResolve_CycleFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.md", `<include src="b.md"></include>`)
	writeFile(t, dir, "b.md", `<include src="a.md"></include>`)
	root := filepath.Join(dir, "a.md")

	r := newTestResolver(t)
	nodes, err := dom.Parse(`<include src="b.md"></include>`)
	require.NoError(t, err)
	_, err = r.ResolveTree(context.Background(), nodes, Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})
	require.Error(t, err)
	require.True(t, ferrors.Is(err, ferrors.ErrIncludeCycle))
}

func TestResolve_SelfIncludeFailsFast(t *testing.T) {
	dir := t.TempDir()
	root := writeFile(t, dir, "self.md", `<include src="self.md"></include>`)

	r := newTestResolver(t)
	nodes, err := dom.Parse(`<include src="self.md"></include>`)
	require.NoError(t, err)
	_, err = r.ResolveTree(context.Background(), nodes, Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})
	require.Error(t, err)
	require.True(t, ferrors.Is(err, ferrors.ErrIncludeCycle))
}

func TestResolve_SameFileTwiceIsNotACycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shared.md", "twice")
	root := writeFile(t, dir, "root.md", "")

	r := newTestResolver(t)
	out := resolveText(t, r,
		`<include src="shared.md" inline/><include src="shared.md" inline/>`,
		Context{CurrentFile: root, Format: FormatMarkdown, Mode: ModeInclude})

	require.Equal(t, "twicetwice", out)
}
