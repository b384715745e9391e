package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zeu5/maze-coach/analysis"
	"github.com/zeu5/maze-coach/util"
)

// Coach suggests training configurations per mission and learns from the
// outcome of each run. It is not safe for concurrent use.
type Coach struct {
	state      *State
	store      Store
	seed       uint64
	rng        *util.Rng
	logger     *slog.Logger
	idealSteps map[int]int
}

type Option func(*Coach)

func WithLogger(l *slog.Logger) Option {
	return func(c *Coach) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSeed sets the base seed of the coach's exploration stream. The stream
// itself is derived from the base seed and the number of decisions already
// recorded in the loaded state.
func WithSeed(seed uint64) Option {
	return func(c *Coach) {
		c.seed = seed
	}
}

// WithIdealSteps sets the shortest path length of each mission's maze.
func WithIdealSteps(steps map[int]int) Option {
	return func(c *Coach) {
		for level, n := range steps {
			c.idealSteps[level] = n
		}
	}
}

// New builds a coach backed by store. A missing or unreadable blob yields an
// empty state; store may be nil for a purely in-memory coach.
func New(store Store, opts ...Option) *Coach {
	c := &Coach{
		state:      NewState(),
		store:      store,
		seed:       1,
		logger:     slog.Default().With("component", "coach"),
		idealSteps: make(map[int]int),
	}
	for _, o := range opts {
		o(c)
	}
	c.reload(context.Background())
	c.rng = util.NewRng(util.DeriveSeed(c.seed, c.state.Decisions))
	return c
}

func (c *Coach) reload(ctx context.Context) {
	if c.store == nil {
		return
	}
	blob, err := c.store.Load(ctx)
	if errors.Is(err, ErrNoState) {
		return
	}
	if err != nil {
		c.logger.Warn("could not load coach state, starting fresh", "err", err)
		return
	}
	st, err := DecodeState(blob)
	if err != nil {
		c.logger.Warn("discarding malformed coach state", "err", err)
		return
	}
	c.state = st
	c.logger.Debug("coach state loaded", "missions", len(st.Missions), "states", len(st.PolicyQ))
}

// SetIdealSteps records the shortest path length of a mission's maze. A
// non-positive value marks it unknown.
func (c *Coach) SetIdealSteps(levelID, steps int) {
	c.idealSteps[levelID] = steps
}

func (c *Coach) ideal(levelID int) int {
	return c.idealSteps[levelID]
}

func (s *State) mission(levelID int) *MissionRecord {
	rec, ok := s.Missions[levelID]
	if !ok {
		rec = &MissionRecord{Status: StatusNew}
		s.Missions[levelID] = rec
	}
	return rec
}

// Mission returns a copy of the record of levelID.
func (c *Coach) Mission(levelID int) (MissionRecord, bool) {
	rec, ok := c.state.Missions[levelID]
	if !ok {
		return MissionRecord{Status: StatusNew}, false
	}
	return rec.clone(), true
}

// ChooseCoachPlan picks a preset epsilon-greedily for the mission's current
// coach state and remembers the choice for the next RecordMissionRun.
func (c *Coach) ChooseCoachPlan(levelID int) MissionPlan {
	rec := c.state.mission(levelID)
	key := StateKey(levelID, rec, c.ideal(levelID))
	row := c.state.policyRow(key)

	action, explored := greedyPreset(row), false
	c.state.Decisions++
	if c.rng.Float64() < CoachEpsilon(rec.Attempts) {
		action, explored = c.rng.Intn(len(Presets)), true
	}
	rec.PlanState = key
	rec.PlanAction = &action

	plan := buildPlan(levelID, rec, action)
	plan.Explored = explored
	c.logger.Info("coach plan chosen",
		"level", levelID, "state", key, "preset", plan.Preset, "episodes", plan.Episodes, "explored", explored)
	return plan
}

// GetMissionInsight is the greedy, read-only view of a mission. It neither
// creates records nor touches the coach table.
func (c *Coach) GetMissionInsight(levelID int) MissionInsight {
	rec, _ := c.Mission(levelID)
	ideal := c.ideal(levelID)
	key := StateKey(levelID, &rec, ideal)
	plan := buildPlan(levelID, &rec, greedyPreset(c.state.peekPolicyRow(key)))

	return MissionInsight{
		Status:         rec.Status,
		MasteryPercent: rec.MasteryPercent,
		CoachTip:       coachTip(performanceBucket(&rec, ideal)),
		SummaryLine:    summaryLine(levelID, &rec),
		NextStep:       nextStep(levelID, &rec, plan),
		Plan:           plan,
	}
}

// RecordMissionRun folds a finished run into the mission record and applies
// the coach's own Q-learning update. When no plan is pending the update is
// credited to the greedy preset of the pre-run state.
func (c *Coach) RecordMissionRun(levelID int, sum analysis.Summary) MissionRecord {
	rec := c.state.mission(levelID)
	ideal := c.ideal(levelID)

	before, action := rec.PlanState, 0
	if before != "" && rec.PlanAction != nil {
		action = *rec.PlanAction
	} else {
		before = StateKey(levelID, rec, ideal)
		action = greedyPreset(c.state.peekPolicyRow(before))
	}

	first := rec.Attempts == 0
	prevSuccess := rec.LastSuccessRate
	var prevAvg *float64
	if rec.LastAvgStepsOnSuccess != nil {
		v := *rec.LastAvgStepsOnSuccess
		prevAvg = &v
	}

	mastery := applyRun(rec, sum, ideal)

	delta := 0.0
	if !first {
		delta = sum.SuccessRate - prevSuccess
	}
	reward := CoachReward(RewardInputs{
		SuccessRate:  sum.SuccessRate,
		DeltaSuccess: delta,
		Improvement:  sum.Improvement,
		Mastery:      mastery,
		BumpRate:     sum.BumpRate,
		PrevAvgSteps: prevAvg,
		NewAvgSteps:  rec.LastAvgStepsOnSuccess,
	})
	after := StateKey(levelID, rec, ideal)
	c.state.updatePolicy(before, action, reward, after)

	rec.PlanState = ""
	rec.PlanAction = nil

	c.logger.Info("mission run recorded",
		"level", levelID, "attempts", rec.Attempts, "success", sum.SuccessRate,
		"mastery", rec.MasteryPercent, "status", rec.Status, "reward", reward,
		"from", before, "to", after)
	return rec.clone()
}

// Save persists the current state through the store.
func (c *Coach) Save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	blob, err := EncodeState(c.state)
	if err != nil {
		return fmt.Errorf("encode coach state: %w", err)
	}
	if err := c.store.Save(ctx, blob); err != nil {
		return fmt.Errorf("save coach state: %w", err)
	}
	return nil
}

// Snapshot returns a deep copy of the coach state.
func (c *Coach) Snapshot() *State {
	out := NewState()
	for id, rec := range c.state.Missions {
		r := rec.clone()
		out.Missions[id] = &r
	}
	for key, row := range c.state.PolicyQ {
		out.PolicyQ[key] = append([]float64(nil), row...)
	}
	for id, rec := range c.state.Concepts {
		r := *rec
		out.Concepts[id] = &r
	}
	out.QuestionSeen = util.CopyStringIntMap(c.state.QuestionSeen)
	out.Decisions = c.state.Decisions
	return out
}

func buildPlan(levelID int, rec *MissionRecord, action int) MissionPlan {
	p := Presets[action]
	return MissionPlan{
		LevelID:   levelID,
		Algorithm: p.Algorithm,
		Episodes:  planEpisodes(p, levelID, rec),
		Speed:     p.Speed,
		Reason:    p.Rationale,
		Preset:    p.Name,
		Action:    action,
	}
}

func coachTip(bucket string) string {
	switch bucket {
	case "new":
		return "Start with a first run and watch how the agent explores before it knows anything."
	case "struggle":
		return "The agent rarely reaches the goal yet. More episodes give exploration time to stumble onto a route."
	case "learning":
		return "The agent finds the goal some of the time. Watch the success rate climb as values spread back from the goal."
	case "inefficient":
		return "The agent reaches the goal but wanders. Compare its path with the shortest route and look for loops."
	case "growing":
		return "Success is becoming reliable. Lower exploration late in training sharpens the final route."
	default:
		return "The agent solves this maze reliably. Try a different algorithm to compare how fast each one learns."
	}
}

func summaryLine(levelID int, rec *MissionRecord) string {
	if rec.Attempts == 0 {
		return fmt.Sprintf("Mission %d has no recorded runs yet.", levelID)
	}
	steps := "no successful episodes"
	if rec.LastAvgStepsOnSuccess != nil {
		steps = fmt.Sprintf("%.1f steps per success", *rec.LastAvgStepsOnSuccess)
	}
	return fmt.Sprintf("Run %d: %.0f%% success (best %.0f%%), %s, mastery %d%%.",
		rec.Attempts, rec.LastSuccessRate, rec.BestSuccessRate, steps, rec.MasteryPercent)
}

func nextStep(levelID int, rec *MissionRecord, plan MissionPlan) string {
	switch rec.Status {
	case StatusMastered:
		return fmt.Sprintf("Move on to mission %d, or replay this one with %s to compare.", levelID+1, plan.Algorithm.Label())
	case StatusImproving:
		return fmt.Sprintf("Run %s for %d episodes to push success past 85%%.", plan.Algorithm.Label(), plan.Episodes)
	default:
		return fmt.Sprintf("Train with %s for %d episodes at %s speed.", plan.Algorithm.Label(), plan.Episodes, plan.Speed)
	}
}
