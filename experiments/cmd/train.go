package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/spf13/cobra"

	"github.com/zeu5/maze-coach/analysis"
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/experiments/common"
	"github.com/zeu5/maze-coach/policies"
	"github.com/zeu5/maze-coach/util"
)

func TrainCommand() *cobra.Command {
	var showPolicy bool
	var saveQTable string

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train one algorithm on a maze",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := loadMaze()
			if err != nil {
				return err
			}
			alg, err := policies.ParseAlgorithm(flags.Algorithm)
			if err != nil {
				return err
			}
			policy, err := policies.New(alg, flags.PolicyConfig())
			if err != nil {
				return err
			}

			ctx, done := interruptContext()
			defer done()

			sum, err := train(ctx, alg.Label(), layout, policy, flags.Episodes, flags.Seed)
			if errors.Is(err, core.ErrCanceled) {
				fmt.Println("Run canceled")
				return nil
			}
			if err != nil {
				return err
			}
			printSummary(alg.Label(), sum, core.ShortestPath(layout))
			if err := util.SaveJson(path.Join(flags.SavePath, "train_summary.json"), sum); err != nil {
				return err
			}

			if saveQTable != "" {
				tabular, ok := policy.(interface{ Table() *policies.QTable })
				if !ok {
					return fmt.Errorf("%s has no single value table to save", alg.Label())
				}
				if err := tabular.Table().Record(saveQTable); err != nil {
					return err
				}
			}
			if showPolicy {
				rollout := core.GreedyRollout(layout, core.DefaultRewardConfig(), policy)
				common.RenderRollout(os.Stdout, layout, rollout, flags.Color)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPolicy, "show-policy", false, "Draw the greedy route after training")
	cmd.Flags().StringVar(&saveQTable, "save-qtable", "", "Write the learned Q-table as JSON lines")
	return cmd
}

// train runs a single experiment with a live progress line.
func train(ctx context.Context, name string, layout *core.MazeLayout, policy core.Policy, episodes int, seed uint64) (analysis.Summary, error) {
	experiment := &core.Experiment{
		Name:    name,
		Layout:  layout,
		Rewards: core.DefaultRewardConfig(),
		Policy:  policy,
	}

	printer := util.NewTerminalPrinter(os.Stdout, 200*time.Millisecond)
	line := printer.NewLine()
	printer.Start(ctx)

	gate := core.NewGate()
	result, err := experiment.Run(ctx, &core.RunConfig{
		Episodes: episodes,
		Seed:     seed,
	}, gate, gate.Begin(), map[string]core.Analyzer{
		"summary": analysis.NewSummaryAnalyzer(),
	}, line)
	printer.Stop()
	if err != nil {
		return analysis.Summary{}, err
	}
	return result.Datasets["summary"].(analysis.Summary), nil
}

func printSummary(name string, s analysis.Summary, ideal int) {
	fmt.Printf("%s: %d episodes, success %.1f%%, avg steps %.1f", name, s.Episodes, s.SuccessRate, s.AvgSteps)
	if s.HasAvgStepsOnSuccess {
		fmt.Printf(", avg steps on success %.1f", s.AvgStepsOnSuccess)
	}
	if ideal >= 0 {
		fmt.Printf(" (shortest %d)", ideal)
	}
	fmt.Printf(", improvement %+.1f, explore %.2f, bumps %.2f\n", s.Improvement, s.ExploreRate, s.BumpRate)
}
