package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pathwise/pathwise/internal/analytics"
	"github.com/pathwise/pathwise/internal/profile"
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a content interaction",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		content, _ := cmd.Flags().GetString("content")
		kind, _ := cmd.Flags().GetString("type")
		engagement, _ := cmd.Flags().GetFloat64("engagement")
		completion, _ := cmd.Flags().GetFloat64("completion")
		minutes, _ := cmd.Flags().GetInt("minutes")
		algorithm, _ := cmd.Flags().GetString("via")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		ci := profile.ContentInteraction{
			ContentID:       content,
			InteractionType: profile.InteractionType(kind),
			Timestamp:       time.Now(),
			Duration:        time.Duration(minutes) * time.Minute,
			EngagementScore: engagement,
			CompletionRate:  completion,
		}
		if algorithm != "" {
			ci.Context = analytics.Attribution(algorithm)
		}

		if err := w.aggregator.RecordInteraction(cmd.Context(), user, content, ci); err != nil {
			return fmt.Errorf("record interaction: %w", err)
		}
		fmt.Printf("Recorded %s interaction with %s for %s\n", kind, content, user)
		return nil
	},
}

func init() {
	recordCmd.Flags().String("user", "", "User ID (required)")
	recordCmd.Flags().String("content", "", "Content ID (required)")
	recordCmd.Flags().String("type", string(profile.InteractionCompleted), "Interaction type")
	recordCmd.Flags().Float64("engagement", 0.5, "Engagement score in [0, 1]")
	recordCmd.Flags().Float64("completion", 1.0, "Completion rate in [0, 1]")
	recordCmd.Flags().Int("minutes", 0, "Time spent, in minutes")
	recordCmd.Flags().String("via", "", "Attributing algorithm, when the content was recommended")
	_ = recordCmd.MarkFlagRequired("user")
	_ = recordCmd.MarkFlagRequired("content")
}
