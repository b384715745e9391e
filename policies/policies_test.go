package policies

import (
	"context"
	"math"
	"testing"

	"github.com/zeu5/maze-coach/core"
	"github.com/zeu5/maze-coach/util"
)

var testGrid = []string{
	"#########",
	"#...#...#",
	"#.#.#.#.#",
	"#.#...#.#",
	"#.#####.#",
	"#.......#",
	"#######.#",
	"#.......#",
	"#########",
}

func testLayout(t *testing.T) *core.MazeLayout {
	t.Helper()
	m, err := core.ParseMaze(core.MazeSpec{
		Size:  9,
		Start: core.Cell{Row: 1, Col: 1},
		Goal:  core.Cell{Row: 7, Col: 1},
		Grid:  testGrid,
	})
	if err != nil {
		t.Fatalf("ParseMaze: %v", err)
	}
	return m
}

// train plays episodes the same way the experiment driver does.
func train(t *testing.T, policy core.Policy, episodes int, seed uint64, observer core.StepObserver) []core.EpisodeMetrics {
	t.Helper()
	env := core.NewGridWorld(testLayout(t), core.DefaultRewardConfig())
	rng := util.NewRng(seed)
	policy.StartTrial(seed)
	out := make([]core.EpisodeMetrics, 0, episodes)
	for i := 0; i < episodes; i++ {
		m, err := core.RunEpisode(context.Background(), core.EpisodeRequest{
			Env:      env,
			Policy:   policy,
			Rng:      rng,
			Index:    i,
			Total:    episodes,
			Observer: observer,
		})
		if err != nil {
			t.Fatalf("RunEpisode: %v", err)
		}
		out = append(out, m)
	}
	return out
}

func TestQLearningWorkedExample(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha, cfg.Gamma = 0.2, 0.95
	q := NewQLearningPolicy(cfg)
	q.Update(core.Transition{StateKey: "s", Action: core.ActionForward, Reward: 1, NextStateKey: "t", Done: true})
	if got := q.QValues("s")[core.ActionForward]; math.Abs(got-0.2) > 1e-12 {
		t.Fatalf("expected 0.2, got %v", got)
	}
}

func TestQLearningBootstrapsOnMax(t *testing.T) {
	q := NewQLearningPolicy(Config{Alpha: 0.5, Gamma: 0.9})
	q.Table().Set("t", core.ActionLeft, 2)
	q.Table().Set("t", core.ActionRight, -1)
	q.Update(core.Transition{StateKey: "s", Action: core.ActionRight, Reward: 0, NextStateKey: "t"})
	if got := q.QValues("s")[core.ActionRight]; math.Abs(got-0.9) > 1e-12 {
		t.Fatalf("expected 0.5*0.9*2 = 0.9, got %v", got)
	}
}

func TestEveryAlgorithmKeepsThreeValuesPerState(t *testing.T) {
	for _, alg := range AllAlgorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			policy, err := New(alg, DefaultConfig())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			visited := make(map[string]bool)
			train(t, policy, 5, 3, func(s core.StepInfo) {
				visited[s.StateKey] = true
			})
			if len(visited) == 0 {
				t.Fatal("no states visited")
			}
			for key := range visited {
				first := policy.QValues(key)
				if len(first) != core.NumActions {
					t.Fatalf("state %s has %d values", key, len(first))
				}
				for _, v := range first {
					if math.IsNaN(v) || math.IsInf(v, 0) {
						t.Fatalf("state %s has non-finite value %v", key, v)
					}
				}
				if second := policy.QValues(key); second != first {
					t.Fatalf("QValues not idempotent for %s: %v vs %v", key, first, second)
				}
			}
		})
	}
}

func TestSameSeedSameTrajectory(t *testing.T) {
	for _, alg := range AllAlgorithms() {
		t.Run(alg.String(), func(t *testing.T) {
			a, _ := New(alg, DefaultConfig())
			b, _ := New(alg, DefaultConfig())
			ma := train(t, a, 8, 42, nil)
			mb := train(t, b, 8, 42, nil)
			for i := range ma {
				if ma[i] != mb[i] {
					t.Fatalf("episode %d differs: %+v vs %+v", i, ma[i], mb[i])
				}
			}
		})
	}
}

func TestDynaQWithoutPlanningMatchesQLearning(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlanningSteps = 0
	dyna := NewDynaQPolicy(cfg)
	plain := NewQLearningPolicy(cfg)

	md := train(t, dyna, 10, 9, nil)
	mq := train(t, plain, 10, 9, nil)
	for i := range md {
		if md[i] != mq[i] {
			t.Fatalf("episode %d differs: %+v vs %+v", i, md[i], mq[i])
		}
	}
	if dyna.Table().Size() != plain.Table().Size() {
		t.Fatalf("table sizes differ: %d vs %d", dyna.Table().Size(), plain.Table().Size())
	}
	for _, key := range plain.Table().Keys() {
		if dyna.QValues(key) != plain.QValues(key) {
			t.Fatalf("state %s differs", key)
		}
	}
}

func TestDynaQPlanningPropagatesReward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PlanningSteps = 20
	d := NewDynaQPolicy(cfg)
	d.StartTrial(1)
	d.Update(core.Transition{StateKey: "a", Action: core.ActionForward, Reward: 0, NextStateKey: "b"})
	d.Update(core.Transition{StateKey: "b", Action: core.ActionForward, Reward: 1, NextStateKey: "g", Done: true})
	if d.ModelSize() != 2 {
		t.Fatalf("expected 2 model entries, got %d", d.ModelSize())
	}
	if d.QValues("a")[core.ActionForward] <= 0 {
		t.Fatal("planning should have propagated the goal reward back to a")
	}
}

func TestSarsaUsesChosenNextAction(t *testing.T) {
	s := NewSarsaPolicy(Config{Alpha: 1, Gamma: 1})
	s.Table().Set("t", core.ActionForward, 5)
	s.Table().Set("t", core.ActionLeft, 1)
	next := core.ActionLeft
	s.Update(core.Transition{StateKey: "s", Action: core.ActionForward, NextStateKey: "t", NextAction: &next})
	if got := s.QValues("s")[core.ActionForward]; got != 1 {
		t.Fatalf("expected SARSA to bootstrap on Q[t][left]=1, got %v", got)
	}
}

func TestExpectedValue(t *testing.T) {
	values := core.ActionValues{3, 0, 0}
	if got := expectedValue(values, 0); got != 3 {
		t.Fatalf("greedy expectation: expected 3, got %v", got)
	}
	if got := expectedValue(values, 1); math.Abs(got-1) > 1e-12 {
		t.Fatalf("uniform expectation: expected 1, got %v", got)
	}
	if got := expectedValue(values, 0.3); math.Abs(got-(0.7*3+0.3)) > 1e-12 {
		t.Fatalf("mixed expectation: got %v", got)
	}
}

func TestDoubleQAveragesTables(t *testing.T) {
	d := NewDoubleQPolicy(Config{Alpha: 1, Gamma: 0.9})
	d.StartTrial(5)
	d.Update(core.Transition{StateKey: "s", Action: core.ActionRight, Reward: 1, Done: true})
	a, b := d.Tables()
	if !a.HasState("s") || !b.HasState("s") {
		t.Fatal("both tables should know the visited state")
	}
	got := d.QValues("s")[core.ActionRight]
	if got != 0.5 {
		t.Fatalf("expected the average 0.5, got %v", got)
	}
}

func TestPPOLogitsStayCentered(t *testing.T) {
	p := NewPPOPolicy(DefaultConfig())
	p.StartTrial(1)
	transitions := []core.Transition{
		{StateKey: "s", Action: core.ActionForward, Reward: 1, NextStateKey: "g", Done: true},
		{StateKey: "s", Action: core.ActionLeft, Reward: -0.06, NextStateKey: "s"},
		{StateKey: "s", Action: core.ActionRight, Reward: -5, NextStateKey: "s"},
		{StateKey: "u", Action: core.ActionForward, Reward: 3, NextStateKey: "s"},
	}
	for round := 0; round < 20; round++ {
		for _, tr := range transitions {
			before := p.Logits(tr.StateKey)
			p.Update(tr)
			after := p.Logits(tr.StateKey)
			mean := (after[0] + after[1] + after[2]) / 3
			if math.Abs(mean) > 1e-9 {
				t.Fatalf("logit mean %v after update of %s", mean, tr.StateKey)
			}
			for j := range after {
				// centering can shift each logit by at most the mean delta
				if math.Abs(after[j]-before[j]) > 2*ppoMaxLogitDelta+1e-9 {
					t.Fatalf("logit %d moved by %v", j, after[j]-before[j])
				}
			}
		}
	}
	probs := p.Probabilities("s")
	if math.Abs(probs[0]+probs[1]+probs[2]-1) > 1e-9 {
		t.Fatalf("probabilities do not sum to 1: %v", probs)
	}
	if probs[core.ActionForward] <= probs[core.ActionRight] {
		t.Fatalf("rewarded action should be preferred: %v", probs)
	}
}

func TestPPOClipStopsAtRatioBound(t *testing.T) {
	cases := []struct {
		advantage float64
		want      float64
	}{
		{1.5, 1 + ppoRatioClip},
		{-1.5, 1 - ppoRatioClip},
	}
	for _, tc := range cases {
		var logits, delta core.ActionValues
		action := core.ActionForward
		for j := range delta {
			indicator := 0.0
			if core.Action(j) == action {
				indicator = 1
			}
			delta[j] = ppoStepSize * tc.advantage * (indicator - 1.0/core.NumActions)
		}
		clipped := clipPolicyStep(logits, delta, action, tc.advantage)
		var moved core.ActionValues
		for j := range moved {
			moved[j] = logits[j] + clipped[j]
		}
		ratio := softmax(moved, 1)[action] * core.NumActions
		if math.Abs(ratio-tc.want) > 1e-9 {
			t.Fatalf("advantage %v: expected ratio %v, got %v", tc.advantage, tc.want, ratio)
		}
	}

	small := core.ActionValues{0.01, -0.005, -0.005}
	if got := clipPolicyStep(core.ActionValues{}, small, core.ActionForward, 0.1); got != small {
		t.Fatalf("a step inside the bound should be kept, got %v", got)
	}
}

func TestEpsilonSchedule(t *testing.T) {
	q := NewQLearningPolicy(DefaultConfig())
	q.StartEpisode(0, 11)
	if q.Epsilon() != 0.3 {
		t.Fatalf("expected 0.3 at the first episode, got %v", q.Epsilon())
	}
	q.StartEpisode(10, 11)
	if math.Abs(q.Epsilon()-0.05) > 1e-12 {
		t.Fatalf("expected 0.05 at the last episode, got %v", q.Epsilon())
	}
	q.StartEpisode(5, 11)
	if math.Abs(q.Epsilon()-0.175) > 1e-12 {
		t.Fatalf("expected 0.175 halfway, got %v", q.Epsilon())
	}
}

func TestLearningImprovesOverRandom(t *testing.T) {
	learned := train(t, NewQLearningPolicy(DefaultConfig()), 150, 7, nil)
	successes := 0
	for _, m := range learned[100:] {
		if m.Success {
			successes++
		}
	}
	if successes == 0 {
		t.Fatal("Q-learning never reached the goal in its last 50 episodes")
	}
}
