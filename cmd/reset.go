package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a user's mastery of a skill",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		skill, _ := cmd.Flags().GetString("skill")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		transitions, err := w.tracker.ResetSkill(cmd.Context(), user, skill)
		if err != nil {
			return fmt.Errorf("reset skill: %w", err)
		}

		fmt.Printf("Reset %s for %s\n", skill, user)
		for _, tr := range transitions {
			fmt.Printf("  %s: %s -> %s\n", tr.SkillID, tr.From, tr.To)
		}
		return nil
	},
}

func init() {
	resetCmd.Flags().String("user", "", "User ID (required)")
	resetCmd.Flags().String("skill", "", "Skill ID (required)")
	_ = resetCmd.MarkFlagRequired("user")
	_ = resetCmd.MarkFlagRequired("skill")
}
