package cmd

import (
	"github.com/spf13/cobra"
	"github.com/zeu5/maze-coach/experiments/common"
)

var (
	flags     *common.Flags = loadDefaults()
	savePath  string
	mazePath  string
	dbPath    string
	stateFile string
	debug     bool
	noColor   bool

	algorithm string
	episodes  int
	seed      uint64
	level     int

	alpha         float64
	gamma         float64
	epsilonStart  float64
	epsilonEnd    float64
	planningSteps int
)

// loadDefaults reads .env before the defaults are computed so that it can
// seed them.
func loadDefaults() *common.Flags {
	common.LoadEnv()
	return common.DefaultFlags()
}

func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&savePath, "save-path", flags.SavePath, "Path to save results")
	cmd.PersistentFlags().StringVar(&mazePath, "maze", flags.MazePath, "Maze layout JSON file")
	cmd.PersistentFlags().StringVar(&dbPath, "db", flags.DBPath, "SQLite database holding the coach state")
	cmd.PersistentFlags().StringVar(&stateFile, "state-file", flags.StateFile, "Keep the coach state in a JSON file instead of the database")
	cmd.PersistentFlags().BoolVar(&debug, "debug", flags.Debug, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", !flags.Color, "Disable coloured output")

	cmd.PersistentFlags().StringVar(&algorithm, "algorithm", flags.Algorithm, "Learning algorithm")
	cmd.PersistentFlags().IntVar(&episodes, "episodes", flags.Episodes, "Number of episodes")
	cmd.PersistentFlags().Uint64Var(&seed, "seed", flags.Seed, "Trial seed")
	cmd.PersistentFlags().IntVar(&level, "level", flags.Level, "Mission level id")

	cmd.PersistentFlags().Float64Var(&alpha, "alpha", flags.Alpha, "Learning rate")
	cmd.PersistentFlags().Float64Var(&gamma, "gamma", flags.Gamma, "Discount factor")
	cmd.PersistentFlags().Float64Var(&epsilonStart, "epsilon-start", flags.EpsilonStart, "Exploration rate of the first episode")
	cmd.PersistentFlags().Float64Var(&epsilonEnd, "epsilon-end", flags.EpsilonEnd, "Exploration rate of the last episode")
	cmd.PersistentFlags().IntVar(&planningSteps, "planning-steps", flags.PlanningSteps, "Dyna-Q planning steps per update")
}

func UpdateFlags() {
	flags.SavePath = savePath
	flags.MazePath = mazePath
	flags.DBPath = dbPath
	flags.StateFile = stateFile
	flags.Debug = debug
	flags.Color = !noColor

	flags.Algorithm = algorithm
	flags.Episodes = episodes
	flags.Seed = seed
	flags.Level = level

	flags.Alpha = alpha
	flags.Gamma = gamma
	flags.EpsilonStart = epsilonStart
	flags.EpsilonEnd = epsilonEnd
	flags.PlanningSteps = planningSteps
}
