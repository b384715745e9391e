package common

import (
	"log/slog"
	"os"
	"path"

	"github.com/joho/godotenv"

	"github.com/zeu5/maze-coach/policies"
	"github.com/zeu5/maze-coach/util"
)

const (
	EnvDBPath    = "MAZECOACH_DB"
	EnvSavePath  = "MAZECOACH_SAVE_PATH"
	EnvStateFile = "MAZECOACH_STATE_FILE"
)

type Flags struct {
	SavePath  string
	MazePath  string
	DBPath    string
	StateFile string
	RunFlags
	LearningFlags
	Level int
	Debug bool
	Color bool
}

type RunFlags struct {
	Algorithm string
	Episodes  int
	Seed      uint64
}

type LearningFlags struct {
	Alpha         float64
	Gamma         float64
	EpsilonStart  float64
	EpsilonEnd    float64
	PlanningSteps int
}

// LoadEnv reads the first .env file found near the working directory.
// Variables already set in the environment win.
func LoadEnv() {
	for _, envFile := range []string{
		".env",
		"../.env",
		"../../.env",
	} {
		if err := godotenv.Load(envFile); err == nil {
			return
		}
	}
}

func DefaultFlags() *Flags {
	cfg := policies.DefaultConfig()
	return &Flags{
		SavePath:  envOr(EnvSavePath, "results"),
		MazePath:  "",
		DBPath:    envOr(EnvDBPath, "mazecoach.db"),
		StateFile: envOr(EnvStateFile, ""),
		RunFlags: RunFlags{
			Algorithm: policies.QLearning.String(),
			Episodes:  200,
			Seed:      7,
		},
		LearningFlags: LearningFlags{
			Alpha:         cfg.Alpha,
			Gamma:         cfg.Gamma,
			EpsilonStart:  cfg.EpsilonStart,
			EpsilonEnd:    cfg.EpsilonEnd,
			PlanningSteps: cfg.PlanningSteps,
		},
		Level: 1,
		Debug: false,
		Color: true,
	}
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// PolicyConfig is the learning configuration handed to policies.New.
func (f *Flags) PolicyConfig() policies.Config {
	return policies.Config{
		Alpha:         f.Alpha,
		Gamma:         f.Gamma,
		EpsilonStart:  f.EpsilonStart,
		EpsilonEnd:    f.EpsilonEnd,
		PlanningSteps: f.PlanningSteps,
	}
}

func (f *Flags) Logger() *slog.Logger {
	level := slog.LevelInfo
	if f.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
