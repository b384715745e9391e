package coach

import (
	"math"

	"github.com/zeu5/maze-coach/analysis"
	"github.com/zeu5/maze-coach/util"
)

// Mastery blend weights.
const (
	masterySuccessWeight     = 0.58
	masteryEfficiencyWeight  = 0.22
	masteryImprovementWeight = 0.14
	masteryExploreWeight     = 0.06

	targetExploreRate = 0.28

	masterySmoothingPrev = 0.55
	masterySmoothingNext = 0.45
)

// MasteryScore blends success, step efficiency, improvement and exploration
// into an integer percentage in [0,100].
func MasteryScore(s analysis.Summary, idealSteps int) int {
	success := util.Clamp(s.SuccessRate/90, 0, 1)

	efficiency := 0.0
	if s.HasAvgStepsOnSuccess {
		if idealSteps > 0 {
			ideal := float64(idealSteps)
			efficiency = ideal / math.Max(ideal, s.AvgStepsOnSuccess)
		} else {
			efficiency = 0.5
		}
	}
	efficiency = util.Clamp(efficiency, 0, 1)

	improvement := util.Clamp((s.Improvement+15)/35, 0, 1)
	explore := util.Clamp(1-math.Abs(s.ExploreRate-targetExploreRate)/targetExploreRate, 0, 1)

	blend := masterySuccessWeight*success +
		masteryEfficiencyWeight*efficiency +
		masteryImprovementWeight*improvement +
		masteryExploreWeight*explore
	return int(math.Round(util.Clamp(blend, 0, 1) * 100))
}

// RewardInputs is what the coach's reward depends on.
type RewardInputs struct {
	SuccessRate  float64
	DeltaSuccess float64
	Improvement  float64
	Mastery      int
	BumpRate     float64
	PrevAvgSteps *float64
	NewAvgSteps  *float64
}

// CoachReward is the scalar reward for the coach's own Q-update, clamped to
// [-1.1, 2.2].
func CoachReward(in RewardInputs) float64 {
	stepBoost := 0.0
	if in.PrevAvgSteps != nil && in.NewAvgSteps != nil {
		stepBoost = util.Clamp((*in.PrevAvgSteps-*in.NewAvgSteps)/25, -0.4, 0.5)
	}
	reward := 1.3*in.SuccessRate/100 +
		1.6*in.DeltaSuccess/100 +
		0.4*(in.Improvement/45) +
		0.3*(float64(in.Mastery)/100) +
		stepBoost -
		0.7*in.BumpRate
	return util.Clamp(reward, -1.1, 2.2)
}

// classifyStatus derives the mission status from an updated record.
func classifyStatus(rec *MissionRecord, idealSteps int) Status {
	if rec.Attempts == 0 {
		return StatusNew
	}
	efficient := rec.LastAvgStepsOnSuccess != nil &&
		(idealSteps <= 0 || *rec.LastAvgStepsOnSuccess <= 1.9*float64(idealSteps))
	if rec.LastSuccessRate >= 85 && efficient && rec.MasteryPercent >= 80 {
		return StatusMastered
	}
	if rec.LastSuccessRate >= 45 || rec.Improvement >= 12 || rec.MasteryPercent >= 55 {
		return StatusImproving
	}
	return StatusPracticing
}

// applyRun folds a run summary into rec and returns the freshly computed
// (unsmoothed) mastery.
func applyRun(rec *MissionRecord, s analysis.Summary, idealSteps int) int {
	mastery := MasteryScore(s, idealSteps)
	first := rec.Attempts == 0

	rec.Attempts++
	rec.LastSuccessRate = s.SuccessRate
	rec.BestSuccessRate = math.Max(rec.BestSuccessRate, s.SuccessRate)
	if s.HasAvgStepsOnSuccess {
		avg := s.AvgStepsOnSuccess
		rec.LastAvgStepsOnSuccess = &avg
		if rec.BestAvgStepsOnSuccess == nil || avg < *rec.BestAvgStepsOnSuccess {
			best := avg
			rec.BestAvgStepsOnSuccess = &best
		}
	} else {
		rec.LastAvgStepsOnSuccess = nil
	}
	rec.ExploreRate = s.ExploreRate
	rec.BumpRate = s.BumpRate
	rec.Improvement = s.Improvement

	if first {
		rec.MasteryPercent = mastery
	} else {
		blended := float64(rec.MasteryPercent)*masterySmoothingPrev + float64(mastery)*masterySmoothingNext
		rec.MasteryPercent = util.ClampInt(int(math.Round(blended)), 0, 100)
	}
	rec.Status = classifyStatus(rec, idealSteps)
	return mastery
}
