package coach

import (
	"context"
	"testing"

	"github.com/zeu5/maze-coach/analysis"
	"github.com/zeu5/maze-coach/util"
)

func summary(successRate float64, avgSteps float64, improvement float64) analysis.Summary {
	s := analysis.Summary{
		Episodes:    100,
		SuccessRate: successRate,
		Improvement: improvement,
		ExploreRate: 0.2,
		BumpRate:    0.05,
	}
	if avgSteps > 0 {
		s.AvgStepsOnSuccess = avgSteps
		s.HasAvgStepsOnSuccess = true
	}
	return s
}

func TestCoachEpsilon(t *testing.T) {
	if CoachEpsilon(0) != 0.34 {
		t.Fatalf("expected 0.34 with no attempts, got %v", CoachEpsilon(0))
	}
	prev := CoachEpsilon(0)
	for attempts := 1; attempts <= 30; attempts++ {
		eps := CoachEpsilon(attempts)
		if eps < 0.08 {
			t.Fatalf("epsilon %v below the floor at %d attempts", eps, attempts)
		}
		if prev > 0.08 && eps >= prev {
			t.Fatalf("epsilon did not decrease at %d attempts: %v -> %v", attempts, prev, eps)
		}
		prev = eps
	}
	if CoachEpsilon(1000) != 0.08 {
		t.Fatalf("expected the floor for many attempts, got %v", CoachEpsilon(1000))
	}
}

func TestMasteryBounds(t *testing.T) {
	cases := []analysis.Summary{
		{},
		summary(100, 10, 100),
		summary(0, 0, -100),
		summary(150, 1, 400),
		{SuccessRate: -20, Improvement: -1e9, ExploreRate: 5},
	}
	for _, s := range cases {
		for _, ideal := range []int{-1, 0, 14} {
			m := MasteryScore(s, ideal)
			if m < 0 || m > 100 {
				t.Fatalf("mastery %d out of range for %+v ideal %d", m, s, ideal)
			}
		}
	}
	if got := MasteryScore(summary(90, 14, 20), 14); got < 95 {
		t.Fatalf("a perfect run should score near 100, got %d", got)
	}
}

func TestFirstRunTakesRawMastery(t *testing.T) {
	c := New(nil, WithIdealSteps(map[int]int{1: 14}))
	s := summary(60, 30, 10)
	rec := c.RecordMissionRun(1, s)
	if want := MasteryScore(s, 14); rec.MasteryPercent != want {
		t.Fatalf("first run: expected raw mastery %d, got %d", want, rec.MasteryPercent)
	}

	s2 := summary(95, 15, 20)
	rec2 := c.RecordMissionRun(1, s2)
	raw := MasteryScore(s2, 14)
	if rec2.MasteryPercent == raw {
		t.Fatalf("second run should be smoothed, got raw %d", raw)
	}
	lo, hi := rec.MasteryPercent, raw
	if rec2.MasteryPercent < lo || rec2.MasteryPercent > hi {
		t.Fatalf("smoothed mastery %d outside [%d, %d]", rec2.MasteryPercent, lo, hi)
	}
	if rec2.Attempts != 2 || rec2.BestSuccessRate != 95 {
		t.Fatalf("unexpected record %+v", rec2)
	}
	if rec2.BestAvgStepsOnSuccess == nil || *rec2.BestAvgStepsOnSuccess != 15 {
		t.Fatal("best steps should track the minimum")
	}
}

func TestStatusClassification(t *testing.T) {
	c := New(nil, WithIdealSteps(map[int]int{1: 10, 2: 10, 3: 10}))
	if rec := c.RecordMissionRun(1, summary(10, 0, 0)); rec.Status != StatusPracticing {
		t.Fatalf("expected practicing, got %s", rec.Status)
	}
	if rec := c.RecordMissionRun(2, summary(50, 40, 0)); rec.Status != StatusImproving {
		t.Fatalf("expected improving, got %s", rec.Status)
	}
	if rec := c.RecordMissionRun(3, summary(95, 12, 20)); rec.Status != StatusMastered {
		t.Fatalf("expected mastered, got %+v", rec)
	}
	// too many steps for mastered even with full success
	c2 := New(nil, WithIdealSteps(map[int]int{1: 10}))
	if rec := c2.RecordMissionRun(1, summary(100, 25, 20)); rec.Status == StatusMastered {
		t.Fatalf("inefficient run should not be mastered: %+v", rec)
	}
}

func TestStateKeyBuckets(t *testing.T) {
	avg := 50.0
	cases := []struct {
		level int
		rec   *MissionRecord
		want  string
	}{
		{1, nil, "intro:new"},
		{3, &MissionRecord{Attempts: 1, LastSuccessRate: 10}, "core:struggle"},
		{4, &MissionRecord{Attempts: 1, LastSuccessRate: 40}, "core:learning"},
		{5, &MissionRecord{Attempts: 1, LastSuccessRate: 70, LastAvgStepsOnSuccess: &avg}, "advanced:inefficient"},
		{6, &MissionRecord{Attempts: 1, LastSuccessRate: 70}, "advanced:growing"},
		{2, &MissionRecord{Attempts: 1, LastSuccessRate: 90}, "intro:master"},
	}
	for _, tc := range cases {
		if got := StateKey(tc.level, tc.rec, 20); got != tc.want {
			t.Fatalf("level %d: expected %s, got %s", tc.level, tc.want, got)
		}
	}
}

func TestPlanEpisodes(t *testing.T) {
	p := Presets[0]
	if got := planEpisodes(p, 1, nil); got != p.BaseEpisodes {
		t.Fatalf("expected %d, got %d", p.BaseEpisodes, got)
	}
	rec := &MissionRecord{Attempts: 1, LastSuccessRate: 20, Status: StatusPracticing}
	want := p.BaseEpisodes + 2*p.LevelBump + 12 + 14
	if got := planEpisodes(p, 3, rec); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
	if got := planEpisodes(p, 100, rec); got != maxPlanEpisodes {
		t.Fatalf("expected the cap %d, got %d", maxPlanEpisodes, got)
	}
	small := Preset{BaseEpisodes: 10}
	if got := planEpisodes(small, 1, &MissionRecord{Attempts: 3, LastSuccessRate: 90, Status: StatusMastered}); got != minPlanEpisodes {
		t.Fatalf("expected the floor %d, got %d", minPlanEpisodes, got)
	}
}

func TestCoachRewardClamp(t *testing.T) {
	prev, next := 100.0, 0.0
	high := CoachReward(RewardInputs{SuccessRate: 100, DeltaSuccess: 100, Improvement: 100, Mastery: 100, PrevAvgSteps: &prev, NewAvgSteps: &next})
	if high != 2.2 {
		t.Fatalf("expected the upper clamp 2.2, got %v", high)
	}
	low := CoachReward(RewardInputs{DeltaSuccess: -100, Improvement: -100, BumpRate: 1, PrevAvgSteps: &next, NewAvgSteps: &prev})
	if low != -1.1 {
		t.Fatalf("expected the lower clamp -1.1, got %v", low)
	}
}

func TestRecordMissionRunUpdatesPlannedAction(t *testing.T) {
	c := New(nil, WithSeed(3), WithIdealSteps(map[int]int{1: 12}))
	plan := c.ChooseCoachPlan(1)
	rec, ok := c.Mission(1)
	if !ok || rec.PlanAction == nil || *rec.PlanAction != plan.Action || rec.PlanState != "intro:new" {
		t.Fatalf("plan should be remembered: %+v", rec)
	}

	c.RecordMissionRun(1, summary(80, 20, 30))
	row := c.Snapshot().PolicyQ["intro:new"]
	if len(row) != len(Presets) {
		t.Fatalf("expected a %d-wide row, got %v", len(Presets), row)
	}
	if row[plan.Action] <= 0 {
		t.Fatalf("a good run should raise the chosen preset's value: %v", row)
	}
	after, _ := c.Mission(1)
	if after.PlanAction != nil || after.PlanState != "" {
		t.Fatal("pending plan should be cleared")
	}
}

func TestInsightIsReadOnly(t *testing.T) {
	c := New(nil)
	insight := c.GetMissionInsight(4)
	if insight.Status != StatusNew || insight.MasteryPercent != 0 {
		t.Fatalf("unexpected insight %+v", insight)
	}
	if insight.Plan.Preset != Presets[0].Name {
		t.Fatalf("empty table should pick the first preset, got %s", insight.Plan.Preset)
	}
	snap := c.Snapshot()
	if len(snap.Missions) != 0 || len(snap.PolicyQ) != 0 {
		t.Fatalf("insight must not change state: %+v", snap)
	}
	if insight.CoachTip == "" || insight.SummaryLine == "" || insight.NextStep == "" {
		t.Fatal("insight text should be filled in")
	}
}

func TestInsightFollowsGreedyPreset(t *testing.T) {
	c := New(nil)
	c.state.PolicyQ["intro:new"] = []float64{0, 0, 0.7, 0, 0}
	if got := c.GetMissionInsight(1).Plan.Preset; got != Presets[2].Name {
		t.Fatalf("expected %s, got %s", Presets[2].Name, got)
	}
}

func TestSaveAndReload(t *testing.T) {
	store := NewMemoryStore(nil)
	c := New(store, WithIdealSteps(map[int]int{2: 16}))
	c.ChooseCoachPlan(2)
	c.RecordMissionRun(2, summary(70, 30, 5))
	c.RecordAnswer("td-error", true)
	if err := c.Save(context.Background()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := New(store)
	rec, ok := reloaded.Mission(2)
	if !ok || rec.Attempts != 1 || rec.LastSuccessRate != 70 {
		t.Fatalf("mission not restored: %+v", rec)
	}
	if _, ok := reloaded.Concept("td-error"); !ok {
		t.Fatal("concept not restored")
	}
	if len(reloaded.Snapshot().PolicyQ) == 0 {
		t.Fatal("policy table not restored")
	}
}

func TestMalformedStateFallsBack(t *testing.T) {
	blobs := []string{
		`{not json`,
		`{"missions":{"1":null}}`,
		`{"policyQ":{"intro:new":[1,2]}}`,
		`{"policyQ":{"intro:new":[1,2,3,4,5,6,7]}}`,
		`{"missions":{"1":{"attempts":2,"masteryPercent":140}}}`,
		`{"missions":{"1":{"attempts":1}},"decisions":-3}`,
		`[]`,
	}
	for _, blob := range blobs {
		c := New(NewMemoryStore([]byte(blob)))
		snap := c.Snapshot()
		if len(snap.Missions) != 0 || len(snap.PolicyQ) != 0 {
			t.Fatalf("blob %s should fall back to an empty state, got %+v", blob, snap)
		}
	}
}

func TestShortPolicyRowIsWidened(t *testing.T) {
	c := New(NewMemoryStore([]byte(`{"policyQ":{"intro:new":[0.5,0.1,0.2]}}`)))
	plan := c.ChooseCoachPlan(1)
	if plan.Action < 0 || plan.Action >= len(Presets) {
		t.Fatalf("invalid action %d", plan.Action)
	}
	if row := c.Snapshot().PolicyQ["intro:new"]; len(row) != len(Presets) || row[0] != 0.5 {
		t.Fatalf("row should be widened and keep its values, got %v", row)
	}
}

func TestChooseCoachPlanExploresAtEpsilon(t *testing.T) {
	cases := []struct {
		attempts int
		lo, hi   float64
	}{
		{0, 0.30, 0.38},
		{3, 0.21, 0.29},
		{20, 0.06, 0.10},
	}
	for _, tc := range cases {
		c := New(nil, WithSeed(5), WithIdealSteps(map[int]int{3: 12}))
		c.state.Missions[3] = &MissionRecord{Attempts: tc.attempts, Status: StatusPracticing}
		key := StateKey(3, c.state.Missions[3], 12)
		c.state.PolicyQ[key] = []float64{0, 0, 0.6, 0, 0}

		const n = 4000
		explored := 0
		presets := make(map[int]bool)
		for i := 0; i < n; i++ {
			plan := c.ChooseCoachPlan(3)
			if plan.Explored {
				explored++
				presets[plan.Action] = true
			} else if plan.Action != 2 {
				t.Fatalf("attempts %d: a greedy plan should pick preset 2, got %d", tc.attempts, plan.Action)
			}
		}
		rate := float64(explored) / n
		if rate < tc.lo || rate > tc.hi {
			t.Fatalf("attempts %d: explore rate %.3f outside [%.2f, %.2f] (epsilon %.2f)",
				tc.attempts, rate, tc.lo, tc.hi, CoachEpsilon(tc.attempts))
		}
		if len(presets) != len(Presets) {
			t.Fatalf("attempts %d: exploration should reach every preset, got %v", tc.attempts, presets)
		}
	}
}

func TestReopenedCoachKeepsExploring(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	draws := make(map[float64]bool)
	explored := 0
	const rounds = 200
	for i := 0; i < rounds; i++ {
		// a fresh coach per call with the same base seed
		c := New(store, WithSeed(7), WithIdealSteps(map[int]int{3: 12}))
		if got := c.Snapshot().Decisions; got != i {
			t.Fatalf("round %d: expected %d recorded decisions, got %d", i, i, got)
		}
		stream := util.NewRng(util.DeriveSeed(7, c.state.Decisions))
		draws[stream.Float64()] = true

		if c.ChooseCoachPlan(3).Explored {
			explored++
		}
		if err := c.Save(ctx); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if len(draws) != rounds {
		t.Fatalf("expected a distinct first draw per reopen, got %d of %d", len(draws), rounds)
	}
	// attempts stay at 0, so epsilon is 0.34
	if explored < 40 || explored > 100 {
		t.Fatalf("expected about 68 explored plans out of %d, got %d", rounds, explored)
	}
}
