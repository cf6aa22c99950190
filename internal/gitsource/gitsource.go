// Package gitsource fetches a documentation source tree from a git
// repository into a local workdir so it can be flattened like any other
// directory.
package gitsource

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
	"git.home.luguber.info/inful/docweave/internal/logfields"
)

// Fetch shallow-clones url at branch into a fresh directory under parentDir
// and returns the path of the checked-out subdirectory dir (repository root
// when dir is empty). The caller owns cleanup of the returned tree's parent.
func Fetch(ctx context.Context, parentDir, url, branch, dir string) (string, error) {
	workdir, err := os.MkdirTemp(parentDir, "docweave-src-*")
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "create source workdir").Build()
	}

	slog.Debug("Cloning source repository", logfields.Path(workdir), slog.String("url", url), slog.String("branch", branch))

	opts := &git.CloneOptions{
		URL:   url,
		Depth: 1,
	}
	if branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(branch)
		opts.SingleBranch = true
	}

	if _, err := git.PlainCloneContext(ctx, workdir, false, opts); err != nil {
		_ = os.RemoveAll(workdir)
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "clone source repository").
			WithContext("url", url).WithContext("branch", branch).Build()
	}

	root := workdir
	if dir != "" {
		root = filepath.Join(workdir, dir)
		if info, err := os.Stat(root); err != nil || !info.IsDir() {
			_ = os.RemoveAll(workdir)
			return "", ferrors.NewError(ferrors.CategoryGit, "source subdirectory missing from repository").
				WithContext("dir", dir).Build()
		}
	}
	return root, nil
}
