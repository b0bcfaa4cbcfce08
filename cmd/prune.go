package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old events from the database",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)
		removed, err := w.st.Events().PruneEventsBefore(cmd.Context(), cutoff)
		if err != nil {
			return fmt.Errorf("prune events: %w", err)
		}
		fmt.Printf("Removed %d events older than %d days\n", removed, days)
		return nil
	},
}

func init() {
	pruneCmd.Flags().Int("days", 180, "Delete events older than this many days")
}
