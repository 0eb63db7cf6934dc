package cli

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"treewalk/config"
	"treewalk/walk"
)

var (
	listMaxDepth int
	listExts     []string
	listMatch    []string
	listSkip     []string
	listNoFiles  bool
	listNoDirs   bool
	listFollow   bool
)

var listCmd = &cobra.Command{
	Use:   "list [path]",
	Short: "List a directory tree",
	Long: `List a directory tree depth-first, one entry per line.
Directories are suffixed with / and symlinks with @. Flags override
the corresponding config values for this invocation only.

Examples:
  treewalk list .                       # List everything under here
  treewalk list --ext .go src           # Only .go files
  treewalk list --skip '**/dist' .      # Prune dist subtrees`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	listCmd.Flags().IntVar(&listMaxDepth, "max-depth", -1, "descent limit (-1 unlimited, 0 root only)")
	listCmd.Flags().StringSliceVar(&listExts, "ext", nil, "emit only paths with one of these suffixes")
	listCmd.Flags().StringSliceVar(&listMatch, "match", nil, "emit only paths matching one of these globs")
	listCmd.Flags().StringSliceVar(&listSkip, "skip", nil, "suppress matching paths and prune matching directories")
	listCmd.Flags().BoolVar(&listNoFiles, "no-files", false, "do not emit file entries")
	listCmd.Flags().BoolVar(&listNoDirs, "no-dirs", false, "do not emit directory entries")
	listCmd.Flags().BoolVar(&listFollow, "follow-symlinks", false, "resolve and traverse symbolic links")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	path, err := targetPath(args)
	if err != nil {
		return err
	}

	opts := walkOptions(cmd)
	logger.Debug().
		Str("path", path).
		Int("max_depth", opts.MaxDepth).
		Bool("follow_symlinks", opts.FollowSymlinks).
		Msg("starting walk")

	count := 0
	for e, err := range walk.Walk(cmd.Context(), path, opts) {
		if err != nil {
			return fmt.Errorf("walk failed: %w", err)
		}
		fmt.Println(displayPath(e))
		count++
	}

	logger.Debug().Int("entries", count).Msg("walk finished")
	return nil
}

func displayPath(e walk.Entry) string {
	switch {
	case e.IsDir:
		return e.Path + string(os.PathSeparator)
	case e.IsSymlink:
		return e.Path + "@"
	default:
		return e.Path
	}
}

// targetPath resolves the positional path argument, defaulting to the
// root directory flag.
func targetPath(args []string) (string, error) {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return "", fmt.Errorf("invalid path: %w", err)
		}
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", path)
	}
	return path, nil
}

// walkOptions merges config defaults with whichever list flags were
// set on this invocation.
func walkOptions(cmd *cobra.Command) *walk.Options {
	opts := optionsFromConfig(cfg.Walk)

	flags := cmd.Flags()
	if flags.Changed("max-depth") {
		if listMaxDepth < 0 {
			opts.MaxDepth = math.MaxInt
		} else {
			opts.MaxDepth = listMaxDepth
		}
	}
	if flags.Changed("ext") {
		opts.Exts = listExts
	}
	if flags.Changed("match") {
		opts.Match = listMatch
	}
	if flags.Changed("skip") {
		opts.Skip = listSkip
	}
	if flags.Changed("no-files") {
		opts.IncludeFiles = !listNoFiles
	}
	if flags.Changed("no-dirs") {
		opts.IncludeDirs = !listNoDirs
	}
	if flags.Changed("follow-symlinks") {
		opts.FollowSymlinks = listFollow
	}
	return opts
}

func optionsFromConfig(wc config.WalkConfig) *walk.Options {
	opts := walk.DefaultOptions()
	if wc.MaxDepth >= 0 {
		opts.MaxDepth = wc.MaxDepth
	}
	opts.IncludeFiles = wc.IncludeFiles
	opts.IncludeDirs = wc.IncludeDirs
	opts.FollowSymlinks = wc.FollowSymlinks
	opts.Exts = wc.Exts
	opts.Match = wc.Match
	opts.Skip = wc.Skip
	return opts
}
