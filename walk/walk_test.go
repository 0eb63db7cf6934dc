package walk

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

// fixtureRoot returns a canonicalized temp dir so expected paths
// compare cleanly even when the temp dir itself sits behind a
// symlink (macOS /tmp).
func fixtureRoot(t *testing.T) string {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func collect(t *testing.T, seq iter.Seq2[Entry, error]) []Entry {
	t.Helper()
	var entries []Entry
	for e, err := range seq {
		if err != nil {
			t.Fatalf("walk failed: %v", err)
		}
		entries = append(entries, e)
	}
	return entries
}

func entryPaths(entries []Entry) []string {
	var paths []string
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths
}

func TestWalk_NoFilters(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))
	writeFile(t, filepath.Join(root, "sub", "deep", "c.txt"))

	entries := collect(t, WalkSync(root, nil))

	want := []string{
		root,
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub"),
		filepath.Join(root, "sub", "b.txt"),
		filepath.Join(root, "sub", "deep"),
		filepath.Join(root, "sub", "deep", "c.txt"),
	}
	if got := entryPaths(entries); !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_RootEntryFlags(t *testing.T) {
	root := fixtureRoot(t)
	entries := collect(t, WalkSync(root, nil))

	if len(entries) != 1 {
		t.Fatalf("expected only the root entry, got %d entries", len(entries))
	}
	e := entries[0]
	if e.Path != root || e.Name != filepath.Base(root) {
		t.Errorf("unexpected root entry %+v", e)
	}
	if !e.IsDir || e.IsFile || e.IsSymlink {
		t.Errorf("expected directory flags on root, got %+v", e.FileInfo)
	}
}

func TestWalk_MaxDepthNegative(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))

	opts := DefaultOptions()
	opts.MaxDepth = -1
	if entries := collect(t, WalkSync(root, opts)); len(entries) != 0 {
		t.Errorf("expected empty sequence, got %v", entryPaths(entries))
	}
}

func TestWalk_MaxDepthZero(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))

	opts := DefaultOptions()
	opts.MaxDepth = 0
	got := entryPaths(collect(t, WalkSync(root, opts)))
	if !slices.Equal(got, []string{root}) {
		t.Errorf("expected only root, got %v", got)
	}

	opts.IncludeDirs = false
	if entries := collect(t, WalkSync(root, opts)); len(entries) != 0 {
		t.Errorf("expected empty sequence without dirs, got %v", entryPaths(entries))
	}
}

func TestWalk_MaxDepthOne(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "sub", "deep", "file"))

	opts := DefaultOptions()
	opts.MaxDepth = 1
	got := entryPaths(collect(t, WalkSync(root, opts)))
	want := []string{root, filepath.Join(root, "sub")}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_IncludeFilesFalse(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))

	opts := DefaultOptions()
	opts.IncludeFiles = false
	entries := collect(t, WalkSync(root, opts))
	for _, e := range entries {
		if e.IsFile {
			t.Errorf("unexpected file entry %s", e.Path)
		}
	}
	want := []string{root, filepath.Join(root, "sub")}
	if got := entryPaths(entries); !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_IncludeDirsFalse(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))

	opts := DefaultOptions()
	opts.IncludeDirs = false
	got := entryPaths(collect(t, WalkSync(root, opts)))
	want := []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub", "b.txt"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_SkipPrunesSubtree(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))
	writeFile(t, filepath.Join(root, "sub", ".git", "c"))

	opts := DefaultOptions()
	opts.Skip = []string{"**/.git"}
	got := entryPaths(collect(t, WalkSync(root, opts)))
	want := []string{
		root,
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "sub"),
		filepath.Join(root, "sub", "b.txt"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_SkipBeatsMatch(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "keep", "a.txt"))
	writeFile(t, filepath.Join(root, "drop", "b.txt"))

	opts := DefaultOptions()
	opts.IncludeDirs = false
	opts.Match = []string{"**/*.txt"}
	opts.Skip = []string{"**/drop"}
	got := entryPaths(collect(t, WalkSync(root, opts)))
	want := []string{filepath.Join(root, "keep", "a.txt")}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// An extension rule suppresses emission but never descent: the root
// itself fails the .txt suffix and is not yielded, while the files
// beneath it are still reached.
func TestWalk_ExtsFilterEmissionOnly(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "x.md"))
	writeFile(t, filepath.Join(root, "sub", "y.txt"))

	opts := DefaultOptions()
	opts.Exts = []string{".txt"}
	got := entryPaths(collect(t, WalkSync(root, opts)))
	want := []string{filepath.Join(root, "sub", "y.txt")}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_SymlinksSkippedByDefault(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "real", "f.txt"))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	entries := collect(t, WalkSync(root, nil))
	for _, e := range entries {
		if e.IsSymlink {
			t.Errorf("unexpected symlink entry %s", e.Path)
		}
		if e.Name == "link" {
			t.Errorf("symlink %s should not be emitted", e.Path)
		}
	}
	want := []string{
		root,
		filepath.Join(root, "real"),
		filepath.Join(root, "real", "f.txt"),
	}
	if got := entryPaths(entries); !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_FollowSymlinkDirectory(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "real", "f.txt"))
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "link")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	opts := DefaultOptions()
	opts.FollowSymlinks = true
	entries := collect(t, WalkSync(root, opts))

	// root, the resolved link and its child, then real and its child.
	got := entryPaths(entries)
	want := []string{
		root,
		filepath.Join(root, "real"),
		filepath.Join(root, "real", "f.txt"),
		filepath.Join(root, "real"),
		filepath.Join(root, "real", "f.txt"),
	}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestWalk_ModesAgree(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "sub", "b.txt"))

	syncEntries := collect(t, WalkSync(root, nil))
	ctxEntries := collect(t, Walk(context.Background(), root, nil))
	if !slices.Equal(syncEntries, ctxEntries) {
		t.Errorf("sync and context walks disagree: %v vs %v",
			entryPaths(syncEntries), entryPaths(ctxEntries))
	}

	// Same tree, same options, same sequence.
	again := collect(t, WalkSync(root, nil))
	if !slices.Equal(syncEntries, again) {
		t.Errorf("repeated walks disagree: %v vs %v",
			entryPaths(syncEntries), entryPaths(again))
	}
}

func TestWalk_CanceledContext(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var firstErr error
	for _, err := range Walk(ctx, root, nil) {
		firstErr = err
		break
	}
	if !errors.Is(firstErr, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", firstErr)
	}
}

func TestWalk_MissingRoot(t *testing.T) {
	root := filepath.Join(fixtureRoot(t), "nope")

	var entries int
	var firstErr error
	for _, err := range WalkSync(root, nil) {
		if err != nil {
			firstErr = err
			break
		}
		entries++
	}
	if firstErr == nil {
		t.Fatal("expected an error for a missing root")
	}
	if !errors.Is(firstErr, fs.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", firstErr)
	}
	if entries != 0 {
		t.Errorf("expected no entries before the failure, got %d", entries)
	}
}

func TestWalk_EarlyStopIsClean(t *testing.T) {
	root := fixtureRoot(t)
	writeFile(t, filepath.Join(root, "a.txt"))
	writeFile(t, filepath.Join(root, "b.txt"))

	var got []string
	for e, err := range WalkSync(root, nil) {
		if err != nil {
			t.Fatalf("walk failed: %v", err)
		}
		got = append(got, e.Path)
		if len(got) == 2 {
			break
		}
	}
	want := []string{root, filepath.Join(root, "a.txt")}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

// fakeFS serves canned listings so collaborator-level failures can be
// provoked deterministically.
type fakeFS struct {
	stats    map[string]FileInfo
	listings map[string][]DirEntry
	resolved map[string]string
}

func (f *fakeFS) Stat(_ context.Context, path string) (FileInfo, error) {
	info, ok := f.stats[path]
	if !ok {
		return FileInfo{}, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrNotExist}
	}
	return info, nil
}

func (f *fakeFS) ReadDir(_ context.Context, path string) ([]DirEntry, error) {
	listing, ok := f.listings[path]
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: path, Err: fs.ErrNotExist}
	}
	return listing, nil
}

func (f *fakeFS) Resolve(_ context.Context, path string) (string, error) {
	target, ok := f.resolved[path]
	if !ok {
		return "", &fs.PathError{Op: "resolve", Path: path, Err: fs.ErrNotExist}
	}
	return target, nil
}

func TestWalkFS_CorruptListing(t *testing.T) {
	dir := FileInfo{IsDir: true}
	file := FileInfo{IsFile: true}
	fsys := &fakeFS{
		stats: map[string]FileInfo{"root": dir},
		listings: map[string][]DirEntry{
			"root": {
				{Name: "ok.txt", FileInfo: file},
				{Name: "", FileInfo: file},
				{Name: "never.txt", FileInfo: file},
			},
		},
	}

	var got []string
	var firstErr error
	for e, err := range WalkFS(context.Background(), fsys, "root", nil) {
		if err != nil {
			firstErr = err
			break
		}
		got = append(got, e.Path)
	}

	var corrupt *CorruptEntryError
	if !errors.As(firstErr, &corrupt) {
		t.Fatalf("expected CorruptEntryError, got %v", firstErr)
	}
	if corrupt.Dir != "root" {
		t.Errorf("expected corrupt entry reported in root, got %q", corrupt.Dir)
	}
	want := []string{"root", filepath.Join("root", "ok.txt")}
	if !slices.Equal(got, want) {
		t.Errorf("entries before failure: got %v, want %v", got, want)
	}
}

func TestWalkFS_DanglingSymlink(t *testing.T) {
	dir := FileInfo{IsDir: true}
	fsys := &fakeFS{
		stats: map[string]FileInfo{"root": dir},
		listings: map[string][]DirEntry{
			"root": {{Name: "gone", FileInfo: FileInfo{IsSymlink: true}}},
		},
	}

	opts := DefaultOptions()
	opts.FollowSymlinks = true
	var firstErr error
	for _, err := range WalkFS(context.Background(), fsys, "root", opts) {
		if err != nil {
			firstErr = err
			break
		}
	}
	if !errors.Is(firstErr, fs.ErrNotExist) {
		t.Errorf("expected resolve failure to surface, got %v", firstErr)
	}
}

func TestWalkFS_ListingOrderPreserved(t *testing.T) {
	dir := FileInfo{IsDir: true}
	file := FileInfo{IsFile: true}
	fsys := &fakeFS{
		stats: map[string]FileInfo{
			"root":                        dir,
			filepath.Join("root", "zdir"): dir,
		},
		listings: map[string][]DirEntry{
			"root": {
				{Name: "zdir", FileInfo: dir},
				{Name: "a.txt", FileInfo: file},
			},
			filepath.Join("root", "zdir"): {
				{Name: "inner.txt", FileInfo: file},
			},
		},
	}

	entries := collect(t, WalkFS(context.Background(), fsys, "root", nil))
	want := []string{
		"root",
		filepath.Join("root", "zdir"),
		filepath.Join("root", "zdir", "inner.txt"),
		filepath.Join("root", "a.txt"),
	}
	if got := entryPaths(entries); !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
