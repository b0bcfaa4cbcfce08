package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Optimize ensemble weights from a user's interaction history",
	Long: `Computes per-algorithm performance over the reporting window and proposes
adjusted ensemble weights. The proposal is printed as YAML suitable for
"pathwise recommend --weights"; nothing is applied automatically.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		days, _ := cmd.Flags().GetInt("days")

		w, err := openWorld(cmd)
		if err != nil {
			return err
		}
		defer w.Close()

		next, changes, err := w.aggregator.OptimizeAlgorithmWeights(
			cmd.Context(), user, time.Duration(days)*24*time.Hour, w.engine.Weights())
		if err != nil {
			return fmt.Errorf("optimize weights: %w", err)
		}

		if len(changes) == 0 {
			fmt.Println("No adjustments: not enough interaction data in the window.")
			return nil
		}

		for _, ch := range changes {
			fmt.Printf("%-24s  %.3f -> %.3f  (%s)\n", ch.Algorithm, ch.From, ch.To, ch.Reason)
		}

		out, err := yaml.Marshal(map[string]float64(next))
		if err != nil {
			return fmt.Errorf("marshal weights: %w", err)
		}
		fmt.Printf("\nProposed weights:\n%s", out)
		return nil
	},
}

func init() {
	weightsCmd.Flags().String("user", "", "User ID (required)")
	weightsCmd.Flags().Int("days", 30, "Reporting window in days")
	_ = weightsCmd.MarkFlagRequired("user")
}
