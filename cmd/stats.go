package cmd

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning and recommendation statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		days, _ := cmd.Flags().GetInt("days")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx := cmd.Context()
		profile, err := w.tracker.Profile(ctx, user)
		if err != nil {
			return fmt.Errorf("mastery profile: %w", err)
		}

		fmt.Printf("User: %s\n", user)
		fmt.Printf("Overall mastery: %.2f\n", profile.OverallMasteryLevel())
		for _, subject := range sortedKeys(profile.Trees) {
			tree := profile.Trees[subject]
			fmt.Printf("  %-12s  %d/%d skills completed, %d unlocked\n",
				subject, tree.CompletedSkills(), tree.TotalSkills(), tree.UnlockedSkills())
		}
		if len(profile.AchievementsEarned) > 0 {
			fmt.Printf("Achievements: %s\n", strings.Join(sortedKeys(profile.AchievementsEarned), ", "))
		}

		report, err := w.aggregator.RecommendationAnalytics(ctx, user, time.Duration(days)*24*time.Hour)
		if err != nil {
			return fmt.Errorf("recommendation analytics: %w", err)
		}

		fmt.Printf("\nLast %d days: %d interactions, %d recommendations served\n",
			days, report.TotalInteractions, report.TotalRecommendations)
		fmt.Printf("Engagement %.2f  Completion %.2f  Satisfaction %.2f\n",
			report.EngagementRate, report.CompletionRate, report.SatisfactionRate)

		if len(report.Algorithms) > 0 {
			fmt.Printf("\n%-24s  %-6s  %-7s  %-10s  %s\n",
				"Algorithm", "Served", "ActedOn", "Conversion", "Engagement")
			fmt.Println(strings.Repeat("─", 70))
			for _, name := range sortedKeys(report.Algorithms) {
				p := report.Algorithms[name]
				fmt.Printf("%-24s  %-6d  %-7d  %.2f        %.2f\n",
					name, p.Served, p.ActedOn, p.ConversionRate, p.AvgEngagement)
			}
		}
		return nil
	},
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	statsCmd.Flags().String("user", "", "User ID (required)")
	statsCmd.Flags().Int("days", 7, "Reporting window in days")
	_ = statsCmd.MarkFlagRequired("user")
}
