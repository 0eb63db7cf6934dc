package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"treewalk/config"
	"treewalk/internal/adapter/store"
	"treewalk/internal/usecase"
	"treewalk/walk"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot [path]",
	Short: "Persist the current tree listing",
	Long: `Walk the tree with the configured options and store the resulting
listing under .treewalk/snapshots.db in the target directory, for
later comparison with diff.

Examples:
  treewalk snapshot .                 # Snapshot the current directory
  treewalk snapshot /path/to/project`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnapshot,
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots [path]",
	Short: "List stored snapshots",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshots,
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(snapshotsCmd)
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	path, err := targetPath(args)
	if err != nil {
		return err
	}

	if err := config.EnsureStateDir(path); err != nil {
		return fmt.Errorf("failed to create .treewalk directory: %w", err)
	}

	dbPath := config.SnapshotDBPath(path)
	st, err := store.NewSnapshotStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer st.Close()

	opts := optionsFromConfig(cfg.Walk)
	// The snapshot must not list its own state directory.
	opts.Skip = append(opts.Skip, "**/.treewalk")

	bar := progressbar.Default(-1, "walking")
	uc := usecase.NewSnapshotUseCase(st, cfg.Snapshot.Keep)
	snap, err := uc.Take(cmd.Context(), path, opts, func(walk.Entry) {
		bar.Add(1)
	})
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}
	bar.Finish()

	fmt.Printf("\nSnapshot complete:\n")
	fmt.Printf("  ID:      %s\n", snap.ID)
	fmt.Printf("  Root:    %s\n", snap.Root)
	fmt.Printf("  Entries: %d\n", snap.Count)
	fmt.Printf("\nSnapshot stored at: %s\n", dbPath)
	return nil
}

func runSnapshots(cmd *cobra.Command, args []string) error {
	path, err := targetPath(args)
	if err != nil {
		return err
	}

	st, err := store.NewSnapshotStore(config.SnapshotDBPath(path))
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer st.Close()

	snaps, err := st.ListSnapshots()
	if err != nil {
		return fmt.Errorf("failed to list snapshots: %w", err)
	}
	if len(snaps) == 0 {
		fmt.Println("No snapshots stored.")
		return nil
	}

	for _, s := range snaps {
		fmt.Printf("%s  %s  %6d entries  %s\n",
			s.ID, s.TakenAt.Format("2006-01-02 15:04:05"), s.Count, s.Root)
	}
	return nil
}
