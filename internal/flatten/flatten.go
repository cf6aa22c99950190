// Package flatten exposes the two top-level operations of the pipeline:
// IncludeFile (structural splicing only) and RenderFile (splicing plus full
// rendering and dynamic-panel materialization).
package flatten

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docweave/internal/dom"
	"git.home.luguber.info/inful/docweave/internal/filecache"
	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/include"
	"git.home.luguber.info/inful/docweave/internal/logfields"
	"git.home.luguber.info/inful/docweave/internal/markdown"
	"git.home.luguber.info/inful/docweave/internal/metrics"
	"git.home.luguber.info/inful/docweave/internal/observability"
	"git.home.luguber.info/inful/docweave/internal/render"
	"git.home.luguber.info/inful/docweave/internal/trim"
)

// Options configures a Processor.
type Options struct {
	Markdown       markdown.Options
	FragmentSuffix string
	Recorder       metrics.Recorder
}

// Result is the outcome of one top-level operation.
type Result struct {
	RunID    string
	Output   string
	Duration time.Duration

	// DynamicSources is the ordered log of dynamic include sources, only
	// populated by RenderFile. Duplicates are preserved.
	DynamicSources []string

	// Warnings lists non-fatal degradations observed during resolution.
	Warnings []include.Warning
}

// Processor owns the shared state of repeated flatten operations: the file
// cache and the markdown renderer. Resolvers and render passes are created
// per run, so warnings and dynamic-source logs never leak between runs.
// A Processor is safe for concurrent use.
type Processor struct {
	md             *markdown.Renderer
	cache          *filecache.Cache
	recorder       metrics.Recorder
	fragmentSuffix string

	mu         sync.Mutex
	lastHits   int64
	lastMisses int64
}

// NewProcessor builds a Processor from options.
func NewProcessor(opts Options) (*Processor, error) {
	md, err := markdown.New(opts.Markdown)
	if err != nil {
		return nil, err
	}
	return &Processor{
		md:             md,
		cache:          filecache.New(),
		recorder:       metrics.OrNoop(opts.Recorder),
		fragmentSuffix: opts.FragmentSuffix,
	}, nil
}

// IncludeFile resolves all includes of the file at path without rendering
// Markdown. The output may still contain Markdown text and markdown marker
// elements, suitable for a further render pass.
func (p *Processor) IncludeFile(ctx context.Context, path string) (*Result, error) {
	return p.run(ctx, path, include.ModeInclude)
}

// RenderFile resolves all includes of the file at path and produces fully
// rendered HTML: Markdown converted, dynamic panels materialized, comments
// and blank text removed.
func (p *Processor) RenderFile(ctx context.Context, path string) (*Result, error) {
	return p.run(ctx, path, include.ModeRender)
}

func (p *Processor) run(ctx context.Context, path string, mode include.Mode) (result *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve root path").
			WithContext("path", path).Build()
	}

	ctx = observability.WithRunID(ctx, runID)
	ctx = observability.WithRootFile(ctx, abs)
	observability.InfoContext(ctx, "Flatten run started", logfields.Mode(string(mode)))

	defer func() {
		d := time.Since(start)
		outcome := "success"
		if err != nil {
			outcome = "error"
			observability.ErrorContext(ctx, "Flatten run failed", logfields.Error(err), logfields.DurationMS(float64(d.Milliseconds())))
		} else {
			result.Duration = d
			observability.InfoContext(ctx, "Flatten run completed", logfields.DurationMS(float64(d.Milliseconds())))
		}
		p.recorder.RunCompleted(string(mode), outcome, d)
		p.reportCacheDeltas()
	}()

	format, err := rootFormat(abs)
	if err != nil {
		return nil, err
	}

	cache := p.currentCache()
	raw, err := cache.Get(abs)
	if err != nil {
		return nil, err
	}

	// Render mode converts a Markdown root fully to HTML before parsing; in
	// include mode the raw Markdown text is parsed as markup directly so the
	// directives embedded in it are visible without committing to a render.
	text := raw
	if format == include.FormatMarkdown && mode == include.ModeRender {
		if text, err = p.md.Render(raw); err != nil {
			return nil, err
		}
	}

	nodes, err := dom.Parse(text)
	if err != nil {
		return nil, err
	}

	resolver := include.NewResolver(cache, p.md, p.recorder)
	ic := include.Context{CurrentFile: abs, Format: format, Mode: mode}

	ctx = observability.WithStage(ctx, "resolve")
	nodes, err = resolver.ResolveTree(ctx, nodes, ic)
	if err != nil {
		return nil, err
	}

	result = &Result{RunID: runID, Warnings: resolver.Warnings()}

	if mode == include.ModeRender {
		ctx = observability.WithStage(ctx, "render")
		pass := render.NewPass(p.md, p.recorder, p.fragmentSuffix)
		nodes, err = pass.Run(ctx, nodes)
		if err != nil {
			return nil, err
		}
		nodes = trim.Nodes(nodes)
		result.DynamicSources = pass.DynamicSources()
	}

	out, err := dom.Render(nodes)
	if err != nil {
		return nil, err
	}
	result.Output = out
	return result, nil
}

// ResetCache discards all memoized file contents. Long-lived callers such as
// the preview server call this between rebuilds so edited sources are re-read.
func (p *Processor) ResetCache() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache = filecache.New()
	p.lastHits, p.lastMisses = 0, 0
}

// rootFormat gates the root extension before any parsing occurs.
func rootFormat(path string) (include.Format, error) {
	switch {
	case markdown.IsMarkdownPath(path):
		return include.FormatMarkdown, nil
	case strings.HasSuffix(strings.ToLower(path), ".html"), strings.HasSuffix(strings.ToLower(path), ".htm"):
		return include.FormatHTML, nil
	default:
		return "", ferrors.WrapError(ferrors.ErrUnsupportedExtension, ferrors.CategoryValidation, "root file must be markdown or html").
			WithContext("path", path).Build()
	}
}

// currentCache returns the cache in effect for a starting run.
func (p *Processor) currentCache() *filecache.Cache {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache
}

// reportCacheDeltas forwards cache hit/miss growth since the previous run.
func (p *Processor) reportCacheDeltas() {
	hits, misses := p.currentCache().Stats()
	p.mu.Lock()
	dh, dm := hits-p.lastHits, misses-p.lastMisses
	if dh < 0 || dm < 0 {
		// Cache was reset mid-flight; report absolute counts instead.
		dh, dm = hits, misses
	}
	p.lastHits, p.lastMisses = hits, misses
	p.mu.Unlock()
	p.recorder.CacheAccess(dh, dm)
}
