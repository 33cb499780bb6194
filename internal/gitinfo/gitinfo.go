// Package gitinfo reads per-file history from the git repository that
// contains the content directory.
package gitinfo

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
)

// ErrNotTracked is returned when no commit touches the requested file.
var ErrNotTracked = errors.New("file has no commits")

// Repo gives access to file history of one repository.
type Repo struct {
	repo *git.Repository
	root string
}

// Open finds the repository enclosing dir, walking up parent directories.
func Open(dir string) (*Repo, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	r, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open git repository for %s: %w", dir, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	root, err := resolve(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	return &Repo{repo: r, root: root}, nil
}

// LastModified returns the author time of the newest commit touching path.
// path may be absolute or relative to the working directory.
func (r *Repo) LastModified(path string) (time.Time, error) {
	abs, err := resolve(path)
	if err != nil {
		return time.Time{}, err
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return time.Time{}, fmt.Errorf("path %s outside repository: %w", path, err)
	}
	rel = filepath.ToSlash(rel)

	head, err := r.repo.Head()
	if err != nil {
		return time.Time{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &rel})
	if err != nil {
		return time.Time{}, fmt.Errorf("log %s: %w", rel, err)
	}
	defer iter.Close()

	c, err := iter.Next()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNotTracked, rel)
	}
	return c.Author.When.UTC(), nil
}

// resolve makes p absolute and follows symlinks so it compares with the
// worktree root.
func resolve(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}
