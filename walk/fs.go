package walk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// FileInfo carries the type flags of one filesystem node.
type FileInfo struct {
	IsFile    bool
	IsDir     bool
	IsSymlink bool
}

// DirEntry is one record from a directory listing: a name plus type
// flags, so children do not need a separate stat.
type DirEntry struct {
	Name string
	FileInfo
}

// FS is the set of filesystem operations the walker depends on.
// Implementations decide how an operation waits: the OS-backed one
// blocks the calling goroutine, observing ctx between operations.
type FS interface {
	// Stat returns the type flags of the node at path, following
	// symbolic links.
	Stat(ctx context.Context, path string) (FileInfo, error)
	// ReadDir returns one level of children with type flags, in the
	// order the filesystem reports them.
	ReadDir(ctx context.Context, path string) ([]DirEntry, error)
	// Resolve dereferences a symbolic link to its real path. It fails
	// on dangling links.
	Resolve(ctx context.Context, path string) (string, error)
}

// OSFS implements FS against the local filesystem.
type OSFS struct{}

func (OSFS) Stat(ctx context.Context, path string) (FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return FileInfo{}, err
	}
	return modeFlags(info.Mode()), nil
}

func (OSFS) ReadDir(ctx context.Context, path string) ([]DirEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	children, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	entries := make([]DirEntry, len(children))
	for i, child := range children {
		entries[i] = DirEntry{
			Name:     child.Name(),
			FileInfo: modeFlags(child.Type()),
		}
	}
	return entries, nil
}

func (OSFS) Resolve(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(path)
}

func modeFlags(mode fs.FileMode) FileInfo {
	return FileInfo{
		IsFile:    mode.IsRegular(),
		IsDir:     mode.IsDir(),
		IsSymlink: mode&fs.ModeSymlink != 0,
	}
}
