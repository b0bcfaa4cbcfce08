package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Show a user's skill gaps and unlockable skills",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx := cmd.Context()
		gaps, err := w.tracker.IdentifySkillGaps(ctx, user)
		if err != nil {
			return fmt.Errorf("identify gaps: %w", err)
		}
		unlockable, err := w.tracker.UnlockableSkills(ctx, user)
		if err != nil {
			return fmt.Errorf("unlockable skills: %w", err)
		}

		if len(gaps) == 0 {
			fmt.Println("No skill gaps.")
		} else {
			fmt.Printf("%-28s  %-5s  %-7s  %s\n", "Skill", "Gap", "Urgency", "Priority")
			fmt.Println(strings.Repeat("─", 55))
			for _, g := range gaps {
				fmt.Printf("%-28s  %.2f  %.2f     %.2f\n",
					g.Node.Name, g.Gap, g.Urgency, g.Priority())
			}
		}

		if len(unlockable) > 0 {
			fmt.Println("\nClose to unlocking:")
			for _, n := range unlockable {
				fmt.Printf("  %s (difficulty %d)\n", n.Name, n.Difficulty)
			}
		}
		return nil
	},
}

func init() {
	gapsCmd.Flags().String("user", "", "User ID (required)")
	_ = gapsCmd.MarkFlagRequired("user")
}
