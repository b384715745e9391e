package coach

import (
	"github.com/zeu5/maze-coach/policies"
	"github.com/zeu5/maze-coach/util"
	"gonum.org/v1/gonum/floats"
)

const (
	coachAlpha = 0.26
	coachGamma = 0.84

	coachEpsilonStart = 0.34
	coachEpsilonDecay = 0.03
	coachEpsilonFloor = 0.08

	minPlanEpisodes = 30
	maxPlanEpisodes = 400

	// policy rows persisted with a length outside this range are rejected
	minPolicyWidth = 3
	maxPolicyWidth = 6
)

// Presets is the coach's action space, indexed by action number.
var Presets = []Preset{
	{
		Name:         "steady-q",
		Algorithm:    policies.QLearning,
		Speed:        SpeedNormal,
		BaseEpisodes: 120,
		LevelBump:    10,
		Rationale:    "Q-learning learns from the best next move, a steady default for mapping out the maze.",
	},
	{
		Name:         "careful-sarsa",
		Algorithm:    policies.SARSA,
		Speed:        SpeedSlow,
		BaseEpisodes: 140,
		LevelBump:    12,
		Rationale:    "SARSA learns from the moves it actually makes, so watching it slowly shows how exploration shapes a safer route.",
	},
	{
		Name:         "dyna-planner",
		Algorithm:    policies.DynaQ,
		Speed:        SpeedFast,
		BaseEpisodes: 80,
		LevelBump:    8,
		Rationale:    "Dyna-Q replays remembered moves between steps, so it needs fewer episodes to find the goal.",
	},
	{
		Name:         "double-check",
		Algorithm:    policies.DoubleQ,
		Speed:        SpeedNormal,
		BaseEpisodes: 160,
		LevelBump:    14,
		Rationale:    "Double Q-learning checks each estimate against a second table, which curbs overconfident values.",
	},
	{
		Name:         "policy-ppo",
		Algorithm:    policies.PPO,
		Speed:        SpeedTurbo,
		BaseEpisodes: 180,
		LevelBump:    16,
		Rationale:    "Tabular PPO nudges action preferences in small clipped steps, useful once the basics are solid.",
	},
}

// CoachEpsilon is the exploration rate for a mission with the given number
// of recorded attempts: max(0.08, 0.34 - 0.03*attempts).
func CoachEpsilon(attempts int) float64 {
	return util.MaxFloat(coachEpsilonFloor, coachEpsilonStart-float64(attempts)*coachEpsilonDecay)
}

func difficultyBucket(levelID int) string {
	switch {
	case levelID <= 2:
		return "intro"
	case levelID <= 4:
		return "core"
	default:
		return "advanced"
	}
}

// performanceBucket classifies the most recent run of a mission.
func performanceBucket(rec *MissionRecord, idealSteps int) string {
	if rec == nil || rec.Attempts == 0 {
		return "new"
	}
	sr := rec.LastSuccessRate
	switch {
	case sr < 25:
		return "struggle"
	case sr < 55:
		return "learning"
	case sr < 85 && idealSteps > 0 && rec.LastAvgStepsOnSuccess != nil &&
		*rec.LastAvgStepsOnSuccess > 2.3*float64(idealSteps):
		return "inefficient"
	case sr < 85:
		return "growing"
	default:
		return "master"
	}
}

// StateKey is the coach's own state: difficulty bucket x performance bucket.
func StateKey(levelID int, rec *MissionRecord, idealSteps int) string {
	return difficultyBucket(levelID) + ":" + performanceBucket(rec, idealSteps)
}

// policyRow returns the Q row for key, creating a zero row if needed.
func (s *State) policyRow(key string) []float64 {
	row, ok := s.PolicyQ[key]
	if !ok || len(row) != len(Presets) {
		resized := make([]float64, len(Presets))
		copy(resized, row)
		s.PolicyQ[key] = resized
		row = resized
	}
	return row
}

// peekPolicyRow reads a row without inserting it.
func (s *State) peekPolicyRow(key string) []float64 {
	out := make([]float64, len(Presets))
	copy(out, s.PolicyQ[key])
	return out
}

func greedyPreset(row []float64) int {
	if len(row) == 0 {
		return 0
	}
	return floats.MaxIdx(row)
}

// updatePolicy applies one Q-learning step to the coach table.
func (s *State) updatePolicy(before string, action int, reward float64, after string) {
	next := s.policyRow(after)
	maxNext := floats.Max(next)
	row := s.policyRow(before)
	row[action] += coachAlpha * (reward + coachGamma*maxNext - row[action])
}

func statusEpisodeBump(status Status) int {
	switch status {
	case StatusPracticing:
		return 12
	case StatusImproving:
		return 4
	case StatusMastered:
		return -8
	default:
		return 0
	}
}

// planEpisodes adjusts a preset's base episode count for the mission.
func planEpisodes(p Preset, levelID int, rec *MissionRecord) int {
	episodes := p.BaseEpisodes + (levelID-1)*p.LevelBump
	if rec != nil {
		episodes += statusEpisodeBump(rec.Status)
		if rec.Attempts > 0 && rec.LastSuccessRate < 30 {
			episodes += 14
		}
	}
	return util.ClampInt(episodes, minPlanEpisodes, maxPlanEpisodes)
}
