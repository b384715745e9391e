package core

import (
	"context"
	"fmt"
	"io"

	"github.com/zeu5/maze-coach/util"
)

type DataSet interface{}

// Analyzer consumes the metrics of every finished episode of one experiment.
type Analyzer interface {
	Analyze(EpisodeMetrics)
	DataSet() DataSet
	Reset()
}

type AnalyzerConstructor interface {
	// NewAnalyzer creates an analyzer for the named experiment.
	NewAnalyzer(string) Analyzer
}

type Comparator interface {
	Compare([]string, []DataSet)
}

type RunConfig struct {
	Episodes int
	Seed     uint64
	Observer StepObserver
}

// Experiment is one policy trained on one maze.
type Experiment struct {
	Name    string
	Layout  *MazeLayout
	Rewards RewardConfig
	Policy  Policy
}

type ExperimentResult struct {
	Name              string
	Episodes          []EpisodeMetrics
	CompletedEpisodes int
	SuccessEpisodes   int
	TotalTimeSteps    int
	Datasets          map[string]DataSet
}

// Run executes a full trial: the policy's tables and the trial rng are reset
// from cfg.Seed, then cfg.Episodes episodes are played. A superseded run
// returns ErrCanceled.
func (e *Experiment) Run(ctx context.Context, cfg *RunConfig, gate *Gate, token Token, analyzers map[string]Analyzer, progress *util.ProgressLine) (*ExperimentResult, error) {
	result := &ExperimentResult{
		Name:     e.Name,
		Episodes: make([]EpisodeMetrics, 0, cfg.Episodes),
		Datasets: make(map[string]DataSet),
	}
	for _, a := range analyzers {
		a.Reset()
	}

	env := NewGridWorld(e.Layout, e.Rewards)
	rng := util.NewRng(cfg.Seed)
	e.Policy.StartTrial(cfg.Seed)

	for episode := 0; episode < cfg.Episodes; episode++ {
		metrics, err := RunEpisode(ctx, EpisodeRequest{
			Env:      env,
			Policy:   e.Policy,
			Rng:      rng,
			Index:    episode,
			Total:    cfg.Episodes,
			Gate:     gate,
			Token:    token,
			Observer: cfg.Observer,
		})
		if err != nil {
			return nil, err
		}

		result.Episodes = append(result.Episodes, metrics)
		result.CompletedEpisodes++
		result.TotalTimeSteps += metrics.Steps
		if metrics.Success {
			result.SuccessEpisodes++
		}
		for _, a := range analyzers {
			a.Analyze(metrics)
		}
		if progress != nil {
			progress.Setf(
				"Experiment: %s, Episode %d/%d, Timesteps: %d, Successes: %d, Epsilon: %.3f",
				e.Name, episode+1, cfg.Episodes, result.TotalTimeSteps, result.SuccessEpisodes, e.Policy.Epsilon(),
			)
		}
	}

	for name, a := range analyzers {
		result.Datasets[name] = a.DataSet()
	}
	return result, nil
}

// Comparison runs several experiments on the same seed, one after another,
// and hands each analyzer's datasets to the matching comparator.
type Comparison struct {
	Experiments []*Experiment
	Analyzers   map[string]AnalyzerConstructor
	Comparators map[string]Comparator
}

func NewComparison() *Comparison {
	return &Comparison{
		Analyzers:   make(map[string]AnalyzerConstructor),
		Comparators: make(map[string]Comparator),
		Experiments: make([]*Experiment, 0),
	}
}

func (c *Comparison) AddExperiment(e *Experiment) {
	c.Experiments = append(c.Experiments, e)
}

func (c *Comparison) AddAnalysis(name string, a AnalyzerConstructor, cmp Comparator) {
	c.Analyzers[name] = a
	c.Comparators[name] = cmp
}

// Run trains every experiment and then runs the comparators. Experiments are
// run sequentially under one gate token, so starting another run on the same
// gate stops the comparison at its next step. A non-nil printer is started and
// stopped by Run.
func (c *Comparison) Run(ctx context.Context, cfg *RunConfig, gate *Gate, printer *util.TerminalPrinter, log io.Writer) (map[string]*ExperimentResult, error) {
	if gate == nil {
		gate = NewGate()
	}
	token := gate.Begin()

	lines := make([]*util.ProgressLine, len(c.Experiments))
	for i, e := range c.Experiments {
		if printer != nil {
			lines[i] = printer.NewLine()
			lines[i].Setf("Experiment: %s, waiting", e.Name)
		}
	}
	if printer != nil {
		printer.Start(ctx)
		defer printer.Stop()
	}

	results := make(map[string]*ExperimentResult)
	names := make([]string, 0, len(c.Experiments))
	for i, e := range c.Experiments {
		analyzers := make(map[string]Analyzer)
		for name, aC := range c.Analyzers {
			analyzers[name] = aC.NewAnalyzer(e.Name)
		}
		result, err := e.Run(ctx, cfg, gate, token, analyzers, lines[i])
		if err != nil {
			if log != nil {
				fmt.Fprintf(log, "Experiment: %s, Error: %v\n", e.Name, err)
			}
			return results, err
		}
		results[e.Name] = result
		names = append(names, e.Name)
	}

	if printer != nil {
		printer.Stop()
	}

	for name, cmp := range c.Comparators {
		datasets := make([]DataSet, len(names))
		for i, exp := range names {
			datasets[i] = results[exp].Datasets[name]
		}
		cmp.Compare(names, datasets)
	}
	return results, nil
}
