package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pathwise/pathwise/internal/recommend"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Generate content recommendations for a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		subject, _ := cmd.Flags().GetString("subject")
		count, _ := cmd.Flags().GetInt("count")
		diversity, _ := cmd.Flags().GetFloat64("diversity")
		minScore, _ := cmd.Flags().GetFloat64("min-score")
		weightsFile, _ := cmd.Flags().GetString("weights")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		if weightsFile != "" {
			weights, err := recommend.LoadWeights(weightsFile)
			if err != nil {
				return fmt.Errorf("load weights: %w", err)
			}
			w.engine.SetWeights(weights)
		}

		batch, err := w.engine.Recommend(cmd.Context(), recommend.Request{
			UserID:          user,
			Subject:         subject,
			Count:           count,
			DiversityFactor: diversity,
			MinScore:        minScore,
		})
		if err != nil {
			return fmt.Errorf("generate recommendations: %w", err)
		}

		if len(batch.Recommendations) == 0 && len(batch.Fallback) == 0 {
			fmt.Println("No recommendations available.")
			return nil
		}

		printRecommendations(batch.Recommendations)
		if len(batch.Fallback) > 0 {
			fmt.Println("\nFallback (below the score threshold):")
			printRecommendations(batch.Fallback)
		}

		fmt.Printf("\nBatch: diversity %.2f  quality %.2f  novelty %.2f  serendipity %.2f\n",
			batch.DiversityScore, batch.QualityScore, batch.NoveltyScore, batch.SerendipityScore)
		fmt.Printf("Algorithms: %s", strings.Join(batch.AlgorithmsUsed, ", "))
		if len(batch.AlgorithmsFailed) > 0 {
			fmt.Printf("  (failed: %s)", strings.Join(batch.AlgorithmsFailed, ", "))
		}
		fmt.Println()
		return nil
	},
}

func printRecommendations(recs []recommend.ContentRecommendation) {
	fmt.Printf("%-3s  %-8s  %-40s  %-10s  %-5s  %s\n",
		"#", "ID", "Title", "Type", "Score", "Reason")
	fmt.Println(strings.Repeat("─", 110))
	for _, rec := range recs {
		title := rec.Item.Title
		if len(title) > 40 {
			title = title[:40]
		}
		reason := rec.Reasoning
		if len(reason) > 50 {
			reason = reason[:50]
		}
		fmt.Printf("%-3d  %-8s  %-40s  %-10s  %.3f  %s\n",
			rec.Priority, rec.Item.ID, title, rec.Item.ContentType, rec.Score, reason)
	}
}

func init() {
	recommendCmd.Flags().String("user", "", "User ID (required)")
	recommendCmd.Flags().String("subject", "", "Restrict to one subject area")
	recommendCmd.Flags().Int("count", 0, "Number of recommendations (default 10)")
	recommendCmd.Flags().Float64("diversity", 0, "Diversity factor in [0, 1] (default 0.3)")
	recommendCmd.Flags().Float64("min-score", 0, "Minimum combined score (default 0.35)")
	recommendCmd.Flags().String("weights", "", "Path to an algorithm weights YAML file")
	_ = recommendCmd.MarkFlagRequired("user")
}
