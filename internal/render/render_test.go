package render

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docweave/internal/dom"
	"git.home.luguber.info/inful/docweave/internal/markdown"
)

func newTestPass(t *testing.T) *Pass {
	t.Helper()
	md, err := markdown.New(markdown.Options{})
	require.NoError(t, err)
	return NewPass(md, nil, "")
}

func runPass(t *testing.T, p *Pass, text string) string {
	t.Helper()
	nodes, err := dom.Parse(text)
	require.NoError(t, err)
	nodes, err = p.Run(context.Background(), nodes)
	require.NoError(t, err)
	out, err := dom.Render(nodes)
	require.NoError(t, err)
	return out
}

func TestRun_MarkdownMarkerBecomesRenderedDiv(t *testing.T) {
	p := newTestPass(t)
	out := runPass(t, p, `<markdown>**hi**</markdown>`)
	require.Contains(t, out, "<div>")
	require.Contains(t, out, "<p><strong>hi</strong></p>")
	require.NotContains(t, out, "<markdown")
}

func TestRun_InlineMarkerUnwraps(t *testing.T) {
	p := newTestPass(t)
	out := runPass(t, p, `<markdown inline>**hi**</markdown>tail`)
	require.Contains(t, out, "<strong>hi</strong>tail")
	require.NotContains(t, out, "<div")
}

func TestRun_NestedMarkers(t *testing.T) {
	p := newTestPass(t)
	out := runPass(t, p, `<section><markdown>line</markdown></section>`)
	require.Contains(t, out, "<section><div><p>line</p>")
}

func TestRun_DynamicPanelDefaults(t *testing.T) {
	p := newTestPass(t)
	out := runPass(t, p, `<dynamic-panel src="https://example.com/a.md" name="Usage"></dynamic-panel>`)

	require.Contains(t, out, `isOpen="false"`)
	require.Contains(t, out, `header="Usage"`)
	// Remote source cannot be checked; src stays as written.
	require.Contains(t, out, `src="https://example.com/a.md"`)
	require.Equal(t, []string{"https://example.com/a.md"}, p.DynamicSources())
}

func TestRun_DynamicPanelExplicitIsOpen(t *testing.T) {
	p := newTestPass(t)
	out := runPass(t, p, `<dynamic-panel src="x.md" isOpen="true"></dynamic-panel>`)
	require.Contains(t, out, `isOpen="true"`)
}

func TestRun_DynamicPanelRewritesLocalSrc(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "panel.md")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	p := newTestPass(t)
	out := runPass(t, p, `<dynamic-panel src="`+src+`"></dynamic-panel>`)

	want := filepath.Join(dir, "panel"+DefaultFragmentSuffix)
	require.Contains(t, out, `src="`+want+`"`)
	require.Equal(t, []string{src}, p.DynamicSources())
}

func TestRun_DynamicSourceLogKeepsDuplicates(t *testing.T) {
	p := newTestPass(t)
	_ = runPass(t, p, `<dynamic-panel src="a.md"></dynamic-panel><dynamic-panel src="a.md"></dynamic-panel>`)
	require.Equal(t, []string{"a.md", "a.md"}, p.DynamicSources())
}

func TestRun_PlainTreeUntouched(t *testing.T) {
	p := newTestPass(t)
	out := runPass(t, p, `<p>plain <b>content</b></p>`)
	require.Equal(t, `<p>plain <b>content</b></p>`, out)
}
