package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeu5/maze-coach/analysis"
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/policies"
	"github.com/zeu5/maze-coach/util"
)

func CompareCommand() *cobra.Command {
	var blockSize int

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Train every algorithm on the same maze and seed",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := loadMaze()
			if err != nil {
				return err
			}

			cmp := core.NewComparison()
			cmp.AddAnalysis("summary", &analysis.SummaryAnalyzerConstructor{}, analysis.NewSummaryComparator(os.Stdout, flags.SavePath))
			var curves core.Comparator = analysis.NewNoOpComparator()
			if flags.SavePath != "" {
				curves = analysis.NewCurveComparator(flags.SavePath)
			}
			cmp.AddAnalysis("curve", &analysis.CurveAnalyzerConstructor{BlockSize: blockSize}, curves)
			for _, alg := range policies.AllAlgorithms() {
				cmp.AddExperiment(&core.Experiment{
					Name:    alg.String(),
					Layout:  layout,
					Rewards: core.DefaultRewardConfig(),
					Policy:  policies.NewPolicyConstructor(alg, flags.PolicyConfig()).NewPolicy(),
				})
			}

			ctx, done := interruptContext()
			defer done()

			printer := util.NewTerminalPrinter(os.Stdout, 200*time.Millisecond)
			_, err = cmp.Run(ctx, &core.RunConfig{
				Episodes: flags.Episodes,
				Seed:     flags.Seed,
			}, nil, printer, os.Stderr)

			if errors.Is(err, core.ErrCanceled) {
				fmt.Println("Comparison canceled")
				return nil
			}
			return err
		},
	}
	cmd.Flags().IntVar(&blockSize, "block-size", 10, "Episodes per learning curve point")
	return cmd
}
