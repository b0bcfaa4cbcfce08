package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathwise/pathwise/internal/mastery"
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Submit mastery evidence for a skill",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		skill, _ := cmd.Flags().GetString("skill")
		score, _ := cmd.Flags().GetFloat64("score")
		quality, _ := cmd.Flags().GetFloat64("quality")
		evidenceType, _ := cmd.Flags().GetString("type")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		result, err := w.tracker.AssessSkillMastery(cmd.Context(), user, skill, []mastery.Evidence{
			{
				Type:      mastery.EvidenceType(evidenceType),
				Score:     score,
				Quality:   quality,
				Timestamp: time.Now(),
			},
		})
		if err != nil {
			var locked *mastery.SkillLockedError
			if errors.As(err, &locked) {
				fmt.Printf("Skill %s is locked. Missing prerequisites: %s\n",
					skill, strings.Join(locked.MissingPrereqs, ", "))
				return nil
			}
			return fmt.Errorf("assess skill: %w", err)
		}

		fmt.Printf("Skill:     %s\n", result.SkillID)
		fmt.Printf("Evidence:  %.3f\n", result.EvidenceScore)
		fmt.Printf("Mastery:   %.3f (threshold %.3f)\n", result.NewMasteryLevel, result.Threshold)
		fmt.Printf("Completed: %v\n", result.Completed)
		if len(result.UnlockedSkills) > 0 {
			fmt.Printf("Unlocked:  %s\n", strings.Join(result.UnlockedSkills, ", "))
		}
		for _, a := range result.EarnedAchievements {
			fmt.Printf("Achievement earned: %s (%s)\n", a.Name, a.Description)
		}
		for _, skipped := range result.SkippedEvidence {
			fmt.Printf("Skipped evidence: %v\n", skipped)
		}
		return nil
	},
}

func init() {
	assessCmd.Flags().String("user", "", "User ID (required)")
	assessCmd.Flags().String("skill", "", "Skill ID (required)")
	assessCmd.Flags().Float64("score", 0, "Evidence score in [0, 1] (required)")
	assessCmd.Flags().Float64("quality", 1.0, "Evidence quality in [0, 1]")
	assessCmd.Flags().String("type", string(mastery.EvidenceAssessment), "Evidence type")
	_ = assessCmd.MarkFlagRequired("user")
	_ = assessCmd.MarkFlagRequired("skill")
	_ = assessCmd.MarkFlagRequired("score")
}
