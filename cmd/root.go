package cmd

import (
	"github.com/pathwise/pathwise/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pathwise",
	Short: "Adaptive learning engine",
	Long:  "Pathwise tracks skill mastery over a prerequisite graph and recommends learning content through a weighted algorithm ensemble.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PATHWISE_DB env var)")
	rootCmd.PersistentFlags().String("curriculum", "", "Path to a curriculum JSON file (default: built-in algebra curriculum)")
	rootCmd.PersistentFlags().String("catalog", "", "Path to a content catalog JSON file (default: built-in catalog)")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(weightsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then PATHWISE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
