// Package walk traverses directory trees depth-first, producing a
// lazy pre-order sequence of entries filtered by extension, match,
// and skip rules.
//
// The platform directory-listing primitive is one level deep; walking
// a whole tree by calling it recursively risks stack growth on deep
// trees and unbounded buffering on wide ones. The walker here keeps
// an explicit work list instead of recursing, and produces entries
// one pull at a time: each step of the returned iterator performs
// just enough I/O to yield the next entry.
package walk

import (
	"context"
	"fmt"
	"iter"
	"math"
	"path/filepath"
)

// Entry is one filesystem node observed during traversal. Entries are
// values, constructed once and never mutated.
type Entry struct {
	Name string // base name of the path segment
	Path string // root-joined path; cleaned for the root itself
	FileInfo
}

// Options configures a traversal. The same Options value is consulted
// at every level; only the depth budget decreases as the walker
// descends. Rule sets are read, never modified.
type Options struct {
	// MaxDepth is the remaining recursion budget. 0 visits only the
	// root, negative values visit nothing. DefaultOptions leaves it
	// effectively unbounded.
	MaxDepth int

	// IncludeFiles and IncludeDirs select which node kinds are
	// emitted. Both default to true; they are independent of the
	// pattern rules below.
	IncludeFiles bool
	IncludeDirs  bool

	// FollowSymlinks resolves symbolic links and continues through
	// them. When false (the default) symlinks are skipped outright:
	// neither emitted nor descended into. No cycle detection is
	// performed; a link cycle with FollowSymlinks set walks forever.
	FollowSymlinks bool

	// Exts is a suffix allow-list applied to emission, e.g. ".go".
	Exts []string
	// Match patterns must accept an emitted path (doublestar globs).
	Match []string
	// Skip patterns suppress emission and prune matching directories
	// from traversal entirely.
	Skip []string
}

// DefaultOptions returns the options Walk uses when passed nil:
// unbounded depth, files and directories both included, symlinks
// skipped, no pattern rules.
func DefaultOptions() *Options {
	return &Options{
		MaxDepth:     math.MaxInt,
		IncludeFiles: true,
		IncludeDirs:  true,
	}
}

// CorruptEntryError reports a directory listing record with no name.
// It aborts the traversal; there is nothing sensible to resume from.
type CorruptEntryError struct {
	Dir string
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("walk: unnamed entry in directory %q", e.Dir)
}

// Walk traverses the local filesystem rooted at root, observing ctx
// between filesystem operations. A nil opts means DefaultOptions.
//
// The sequence is pre-order: a directory is yielded before anything
// beneath it, children in listing order. Iteration stops at the first
// failure, which is yielded with a zero Entry; entries yielded before
// the failure remain valid. Each call walks afresh.
func Walk(ctx context.Context, root string, opts *Options) iter.Seq2[Entry, error] {
	return WalkFS(ctx, OSFS{}, root, opts)
}

// WalkSync is Walk without a context: every filesystem operation
// blocks until complete. Given the same tree and options it yields
// exactly the sequence Walk yields.
func WalkSync(root string, opts *Options) iter.Seq2[Entry, error] {
	return WalkFS(context.Background(), OSFS{}, root, opts)
}

// WalkFS is the traversal core, explicit about its collaborators.
// Walk and WalkSync both delegate here.
func WalkFS(ctx context.Context, fsys FS, root string, opts *Options) iter.Seq2[Entry, error] {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(yield func(Entry, error) bool) {
		// Work list replacing call recursion. A popped task with a
		// type hint is a child fresh from a listing; without one it
		// is a traversal root (the initial root, or a directory being
		// descended into) and owes a stat for its own entry.
		stack := []task{{path: filepath.Clean(root), depth: opts.MaxDepth}}

		for len(stack) > 0 {
			t := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if t.hint != nil {
				if t.name == "" {
					yield(Entry{}, &CorruptEntryError{Dir: t.parent})
					return
				}
				t.path = filepath.Join(t.parent, t.name)
				hint := *t.hint

				if hint.IsSymlink {
					if !opts.FollowSymlinks {
						continue
					}
					resolved, err := fsys.Resolve(ctx, t.path)
					if err != nil {
						yield(Entry{}, err)
						return
					}
					// Processing continues as the resolved node, still
					// under the listing's type flags.
					t.path = resolved
				}

				if hint.IsFile {
					if opts.IncludeFiles && Include(t.path, opts.Exts, opts.Match, opts.Skip) {
						if !yield(Entry{Name: t.name, Path: t.path, FileInfo: hint}, nil) {
							return
						}
					}
					continue
				}
				// Non-file children fall through and are treated as a
				// traversal root one level down.
			}

			if t.depth < 0 {
				continue
			}
			if opts.IncludeDirs && Include(t.path, opts.Exts, opts.Match, opts.Skip) {
				info, err := fsys.Stat(ctx, t.path)
				if err != nil {
					yield(Entry{}, err)
					return
				}
				if !yield(Entry{Name: filepath.Base(t.path), Path: t.path, FileInfo: info}, nil) {
					return
				}
			}

			// Descend only while budget remains, and never into a
			// directory a skip rule matches. Exts and Match suppress
			// emission above but never prune.
			if t.depth < 1 || skipped(t.path, opts.Skip) {
				continue
			}
			children, err := fsys.ReadDir(ctx, t.path)
			if err != nil {
				yield(Entry{}, err)
				return
			}
			// Pushed in reverse so they pop in listing order, each
			// child's subtree expanding before its next sibling.
			for i := len(children) - 1; i >= 0; i-- {
				child := children[i]
				hint := child.FileInfo
				stack = append(stack, task{
					parent: t.path,
					name:   child.Name,
					depth:  t.depth - 1,
					hint:   &hint,
				})
			}
		}
	}
}

type task struct {
	parent string
	name   string
	path   string
	depth  int
	hint   *FileInfo
}
