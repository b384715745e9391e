package coach

import (
	"github.com/zeu5/maze-coach/policies"
)

// Status is the learner's standing on a mission.
type Status string

const (
	StatusNew        Status = "new"
	StatusPracticing Status = "practicing"
	StatusImproving  Status = "improving"
	StatusMastered   Status = "mastered"
)

// Speed is the playback pace the presentation layer should use.
type Speed string

const (
	SpeedSlow   Speed = "slow"
	SpeedNormal Speed = "normal"
	SpeedFast   Speed = "fast"
	SpeedTurbo  Speed = "turbo"
)

// MissionRecord holds the rolling statistics of one mission. Step averages
// are nil until a run has at least one successful episode.
type MissionRecord struct {
	Attempts              int      `json:"attempts"`
	LastSuccessRate       float64  `json:"lastSuccessRate"`
	BestSuccessRate       float64  `json:"bestSuccessRate"`
	LastAvgStepsOnSuccess *float64 `json:"lastAvgStepsOnSuccess,omitempty"`
	BestAvgStepsOnSuccess *float64 `json:"bestAvgStepsOnSuccess,omitempty"`
	ExploreRate           float64  `json:"exploreRate"`
	BumpRate              float64  `json:"bumpRate"`
	Improvement           float64  `json:"improvement"`
	MasteryPercent        int      `json:"masteryPercent"`
	Status                Status   `json:"status"`

	// PlanState and PlanAction remember the last ChooseCoachPlan decision
	// until the matching run is recorded.
	PlanState  string `json:"planState,omitempty"`
	PlanAction *int   `json:"planAction,omitempty"`
}

func (r MissionRecord) clone() MissionRecord {
	out := r
	if r.LastAvgStepsOnSuccess != nil {
		v := *r.LastAvgStepsOnSuccess
		out.LastAvgStepsOnSuccess = &v
	}
	if r.BestAvgStepsOnSuccess != nil {
		v := *r.BestAvgStepsOnSuccess
		out.BestAvgStepsOnSuccess = &v
	}
	if r.PlanAction != nil {
		v := *r.PlanAction
		out.PlanAction = &v
	}
	return out
}

// ConceptRecord tracks quiz performance on one concept.
type ConceptRecord struct {
	Attempts       int     `json:"attempts"`
	Correct        int     `json:"correct"`
	Streak         int     `json:"streak"`
	MasteryPercent int     `json:"masteryPercent"`
	QValue         float64 `json:"qValue"`
}

// State is the persisted coach blob.
type State struct {
	Missions     map[int]*MissionRecord    `json:"missions"`
	PolicyQ      map[string][]float64      `json:"policyQ"`
	Concepts     map[string]*ConceptRecord `json:"concepts"`
	QuestionSeen map[string]int            `json:"questionSeen"`
	// Decisions counts random coaching decisions taken so far; the
	// exploration stream of a reopened coach is derived from it.
	Decisions    int                       `json:"decisions,omitempty"`
}

func NewState() *State {
	return &State{
		Missions:     make(map[int]*MissionRecord),
		PolicyQ:      make(map[string][]float64),
		Concepts:     make(map[string]*ConceptRecord),
		QuestionSeen: make(map[string]int),
	}
}

// Preset is one coaching action: a training configuration to suggest.
type Preset struct {
	Name         string             `json:"name"`
	Algorithm    policies.Algorithm `json:"algorithm"`
	Speed        Speed              `json:"speed"`
	BaseEpisodes int                `json:"baseEpisodes"`
	LevelBump    int                `json:"levelBump"`
	Rationale    string             `json:"rationale"`
}

// MissionPlan is the training configuration suggested for a mission.
type MissionPlan struct {
	LevelID   int                `json:"levelId"`
	Algorithm policies.Algorithm `json:"algorithm"`
	Episodes  int                `json:"episodes"`
	Speed     Speed              `json:"speed"`
	Reason    string             `json:"reason"`
	Preset    string             `json:"preset"`
	Action    int                `json:"action"`
	Explored  bool               `json:"explored"`
}

// MissionInsight is the read-only view of a mission for display.
type MissionInsight struct {
	Status         Status      `json:"status"`
	MasteryPercent int         `json:"masteryPercent"`
	CoachTip       string      `json:"coachTip"`
	SummaryLine    string      `json:"summaryLine"`
	NextStep       string      `json:"nextStep"`
	Plan           MissionPlan `json:"plan"`
}
