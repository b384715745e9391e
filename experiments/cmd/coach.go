package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zeu5/maze-coach/coach"
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/policies"
	"github.com/zeu5/maze-coach/util"
)

func CoachCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "coach",
		Short: "Ask the adaptive coach what to train next",
	}

	cmd.AddCommand(
		coachPlanCommand(),
		coachInsightCommand(),
		coachRunCommand(),
		coachHistoryCommand(),
		coachVersionsCommand(),
		coachRollbackCommand(),
	)

	return cmd
}

// openCoach opens the coach on top of the SQLite store, or on a plain JSON
// file when --state-file is set; the returned database is nil in that case.
// The maze is optional; when given it supplies the mission's ideal step count.
func openCoach() (*coach.Coach, *coach.SQLiteStore, *core.MazeLayout, error) {
	var (
		store   *coach.SQLiteStore
		backend coach.Store
		err     error
	)
	if flags.StateFile != "" {
		backend = coach.NewFileStore(flags.StateFile)
	} else {
		store, err = coach.NewSQLiteStore(flags.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		backend = store
	}
	c := coach.New(backend,
		coach.WithLogger(slog.Default().With("component", "coach")),
		coach.WithSeed(flags.Seed),
	)

	var layout *core.MazeLayout
	if flags.MazePath != "" {
		layout, err = core.LoadMaze(flags.MazePath)
		if err != nil {
			store.Close()
			return nil, nil, nil, err
		}
		c.SetIdealSteps(flags.Level, core.ShortestPath(layout))
	}
	return c, store, layout, nil
}

func printJSON(v interface{}) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bs))
	return nil
}

func coachPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Choose a training plan for a mission",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, store, _, err := openCoach()
			if err != nil {
				return err
			}
			defer store.Close()

			plan := c.ChooseCoachPlan(flags.Level)
			if err := c.Save(cmd.Context()); err != nil {
				return err
			}
			return printJSON(plan)
		},
	}
}

func coachInsightCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "insight",
		Short: "Show the coach's view of a mission",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, store, _, err := openCoach()
			if err != nil {
				return err
			}
			defer store.Close()
			return printJSON(c.GetMissionInsight(flags.Level))
		},
	}
}

func coachRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Plan, train and record one mission run",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, store, layout, err := openCoach()
			if err != nil {
				return err
			}
			defer store.Close()
			if layout == nil {
				return errors.New("a maze file is required (--maze)")
			}

			plan := c.ChooseCoachPlan(flags.Level)
			fmt.Printf("Coach plan: %s for %d episodes (%s)\n%s\n", plan.Algorithm.Label(), plan.Episodes, plan.Preset, plan.Reason)

			policy, err := policies.New(plan.Algorithm, flags.PolicyConfig())
			if err != nil {
				return err
			}
			rec, _ := c.Mission(flags.Level)
			runSeed := util.DeriveSeed(flags.Seed, rec.Attempts)

			ctx, done := interruptContext()
			defer done()

			sum, err := train(ctx, plan.Algorithm.Label(), layout, policy, plan.Episodes, runSeed)
			if errors.Is(err, core.ErrCanceled) {
				fmt.Println("Run canceled, nothing recorded")
				return c.Save(context.Background())
			}
			if err != nil {
				return err
			}
			printSummary(plan.Algorithm.Label(), sum, core.ShortestPath(layout))

			updated := c.RecordMissionRun(flags.Level, sum)
			if store != nil {
				if _, err := store.LogRun(ctx, flags.Level, plan.Algorithm.String(), sum, updated); err != nil {
					return err
				}
			}
			if err := c.Save(ctx); err != nil {
				return err
			}
			return printJSON(c.GetMissionInsight(flags.Level))
		},
	}
}

func coachHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List the recorded runs of a mission",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := coach.NewSQLiteStore(flags.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), flags.Level)
			if err != nil {
				return err
			}
			for _, r := range runs {
				fmt.Fprintf(os.Stdout, "%s  %-14s %4d episodes  success %5.1f%%  mastery %3d%%  %s\n",
					r.CreatedAt.Format("2006-01-02 15:04"), r.Algorithm, r.Summary.Episodes,
					r.Summary.SuccessRate, r.Record.MasteryPercent, r.Record.Status)
			}
			return nil
		},
	}
}

func coachVersionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List saved coach state versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := coach.NewSQLiteStore(flags.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()

			versions, err := store.ListVersions(cmd.Context())
			if err != nil {
				return err
			}
			for _, v := range versions {
				marker := " "
				if v.Active {
					marker = "*"
				}
				fmt.Printf("%s %s  %s\n", marker, v.ID, v.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func coachRollbackCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <version-id>",
		Short: "Make an earlier coach state version active",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := coach.NewSQLiteStore(flags.DBPath)
			if err != nil {
				return err
			}
			defer store.Close()
			return store.Rollback(cmd.Context(), args[0])
		},
	}
}
