package analysis

import (
	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the episodes of one run. Rates are percentages
// (0-100) except ExploreRate and BumpRate, which are per-step fractions.
type Summary struct {
	Episodes        int `json:"episodes"`
	SuccessEpisodes int `json:"success_episodes"`

	SuccessRate          float64 `json:"success_rate"`
	AvgSteps             float64 `json:"avg_steps"`
	AvgStepsOnSuccess    float64 `json:"avg_steps_on_success"`
	HasAvgStepsOnSuccess bool    `json:"has_avg_steps_on_success"`
	AvgReturn            float64 `json:"avg_return"`

	// Improvement is the success rate of the trailing window minus that of
	// the leading window, in percentage points.
	Improvement float64 `json:"improvement"`
	Window      int     `json:"window"`

	ExploreRate float64 `json:"explore_rate"`
	BumpRate    float64 `json:"bump_rate"`
}

// ImprovementWindow is max(3, min(10, episodes/2)).
func ImprovementWindow(episodes int) int {
	return util.MaxInt(3, util.MinInt(10, episodes/2))
}

// Summarize computes run-level aggregates. An empty run yields zeros.
func Summarize(metrics []core.EpisodeMetrics) Summary {
	s := Summary{Episodes: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	steps := make([]float64, len(metrics))
	returns := make([]float64, len(metrics))
	successSteps := make([]float64, 0, len(metrics))
	totalSteps, explored, bumps := 0, 0, 0
	for i, m := range metrics {
		steps[i] = float64(m.Steps)
		returns[i] = m.EpisodeReturn
		totalSteps += m.Steps
		explored += m.Explored
		bumps += m.Bumps
		if m.Success {
			s.SuccessEpisodes++
			successSteps = append(successSteps, float64(m.Steps))
		}
	}

	s.SuccessRate = 100 * util.Ratio(float64(s.SuccessEpisodes), float64(len(metrics)))
	s.AvgSteps = stat.Mean(steps, nil)
	s.AvgReturn = stat.Mean(returns, nil)
	if len(successSteps) > 0 {
		s.AvgStepsOnSuccess = stat.Mean(successSteps, nil)
		s.HasAvgStepsOnSuccess = true
	}
	s.ExploreRate = util.Ratio(float64(explored), float64(totalSteps))
	s.BumpRate = util.Ratio(float64(bumps), float64(totalSteps))

	s.Window = util.MinInt(ImprovementWindow(len(metrics)), len(metrics))
	lead := successRate(metrics[:s.Window])
	trail := successRate(metrics[len(metrics)-s.Window:])
	s.Improvement = trail - lead
	return s
}

func successRate(metrics []core.EpisodeMetrics) float64 {
	wins := 0
	for _, m := range metrics {
		if m.Success {
			wins++
		}
	}
	return 100 * util.Ratio(float64(wins), float64(len(metrics)))
}
