package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/zeu5/maze-coach/core"
)

func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "mazecoach",
		Short:        "Train tabular agents on small mazes and let the coach plan the next run",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			UpdateFlags()
			slog.SetDefault(flags.Logger())
			return flags.Record()
		},
	}
	AddFlags(cmd)

	cmd.AddCommand(
		TrainCommand(),
		CompareCommand(),
		CoachCommand(),
	)

	return cmd
}

// interruptContext is canceled on SIGINT or when the returned done func is called.
func interruptContext() (context.Context, func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	doneCh := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, func() { close(doneCh) }
}

func loadMaze() (*core.MazeLayout, error) {
	if flags.MazePath == "" {
		return nil, errors.New("a maze file is required (--maze)")
	}
	return core.LoadMaze(flags.MazePath)
}
