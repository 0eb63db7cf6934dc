package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"treewalk/config"
	"treewalk/internal/adapter/store"
	"treewalk/internal/usecase"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old-id> <new-id>",
	Short: "Compare two stored snapshots",
	Long: `Compare two snapshots of the same root, printing paths that were
added, removed, or changed kind between them.

Example:
  treewalk diff 3f2a1b9c8d7e 9e8d7c6b5a41`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	path, err := targetPath(nil)
	if err != nil {
		return err
	}

	st, err := store.NewSnapshotStore(config.SnapshotDBPath(path))
	if err != nil {
		return fmt.Errorf("failed to open snapshot store: %w", err)
	}
	defer st.Close()

	uc := usecase.NewSnapshotUseCase(st, cfg.Snapshot.Keep)
	diff, err := uc.Diff(args[0], args[1])
	if err != nil {
		return fmt.Errorf("diff failed: %w", err)
	}

	if diff.Empty() {
		fmt.Println("No differences.")
		return nil
	}

	for _, p := range diff.Added {
		fmt.Printf("+ %s\n", p)
	}
	for _, p := range diff.Removed {
		fmt.Printf("- %s\n", p)
	}
	for _, p := range diff.Changed {
		fmt.Printf("~ %s\n", p)
	}
	fmt.Printf("\n%d added, %d removed, %d changed\n",
		len(diff.Added), len(diff.Removed), len(diff.Changed))
	return nil
}
