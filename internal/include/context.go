package include

// Format identifies the source format of the file owning a subtree.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Mode selects how much work the pipeline performs.
//
// Include mode performs structural splicing only and defers Markdown
// rendering; render mode splices and fully renders in one run.
type Mode string

const (
	ModeInclude Mode = "include"
	ModeRender  Mode = "render"
)

// Context is the per-file resolution context threaded through the recursive
// walk. It is passed by value: a child's processing never mutates a sibling's
// or parent's context. CurrentFile is always the absolute path of the file
// that owns the subtree currently being processed and is the base for
// resolving relative src values.
type Context struct {
	CurrentFile string
	Format      Format
	Mode        Mode
}

// child derives the context for a subtree sourced from a newly included file.
func (c Context) child(file string, format Format) Context {
	return Context{CurrentFile: file, Format: format, Mode: c.Mode}
}
